package dashboard

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	gridSize      = 100
	minActiveDots = 4
	maxActiveDots = 8
)

// PressureGrid backs the dashboard's pressure-dot widget: a 10x10 grid whose
// active subset is re-randomized every tick. The active count is between 4
// and 8; a load hint (overdue complaints) pushes it toward the top of that
// range.
type PressureGrid struct {
	mu       sync.Mutex
	rng      *rand.Rand
	interval time.Duration
	active   []int
	load     int
	tickedAt time.Time
}

func NewPressureGrid(interval time.Duration) *PressureGrid {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	g := &PressureGrid{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		interval: interval,
	}
	g.Tick()
	return g
}

// SetLoad feeds the real overdue count into the next tick.
func (g *PressureGrid) SetLoad(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n < 0 {
		n = 0
	}
	g.load = n
}

// Tick re-randomizes the active dot set.
func (g *PressureGrid) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := minActiveDots + g.rng.Intn(maxActiveDots-minActiveDots+1)
	if g.load > 0 {
		count = minActiveDots + g.load
		if count > maxActiveDots {
			count = maxActiveDots
		}
	}

	perm := g.rng.Perm(gridSize)
	g.active = append(g.active[:0], perm[:count]...)
	g.tickedAt = time.Now().UTC()
}

// Snapshot returns a copy of the current active set and when it was produced.
func (g *PressureGrid) Snapshot() ([]int, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int, len(g.active))
	copy(out, g.active)
	return out, g.tickedAt
}

// Run ticks the grid until the context is cancelled; the ticker is released
// on teardown.
func (g *PressureGrid) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Tick()
		}
	}
}
