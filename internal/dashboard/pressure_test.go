package dashboard

import (
	"testing"
	"time"
)

func TestPressureGridActiveSetBounds(t *testing.T) {
	g := NewPressureGrid(time.Second)
	for i := 0; i < 50; i++ {
		g.Tick()
		active, _ := g.Snapshot()
		if len(active) < 4 || len(active) > 8 {
			t.Fatalf("tick %d: active set size %d outside [4,8]", i, len(active))
		}
		seen := map[int]struct{}{}
		for _, dot := range active {
			if dot < 0 || dot > 99 {
				t.Fatalf("tick %d: dot %d outside [0,99]", i, dot)
			}
			if _, dup := seen[dot]; dup {
				t.Fatalf("tick %d: duplicate dot %d", i, dot)
			}
			seen[dot] = struct{}{}
		}
	}
}

func TestPressureGridLoadHint(t *testing.T) {
	g := NewPressureGrid(time.Second)

	g.SetLoad(100)
	g.Tick()
	active, _ := g.Snapshot()
	if len(active) != 8 {
		t.Fatalf("heavy load should saturate at 8 active dots, got %d", len(active))
	}

	g.SetLoad(1)
	g.Tick()
	active, _ = g.Snapshot()
	if len(active) != 5 {
		t.Fatalf("load 1 should light 5 dots, got %d", len(active))
	}
}

func TestPressureGridSnapshotIsCopy(t *testing.T) {
	g := NewPressureGrid(time.Second)
	a, _ := g.Snapshot()
	if len(a) == 0 {
		t.Fatalf("expected initial tick to populate the grid")
	}
	a[0] = -1
	b, _ := g.Snapshot()
	if b[0] == -1 {
		t.Fatalf("snapshot must not share backing storage")
	}
}
