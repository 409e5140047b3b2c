package dashboard

import (
	"testing"

	"github.com/civicdesk/backend/internal/models"
)

func TestStepsStateCounts(t *testing.T) {
	for total := 1; total <= 6; total++ {
		for current := 1; current <= total; current++ {
			states := Steps(current, total)
			var completed, cur, pending int
			for _, s := range states {
				switch s {
				case StepCompleted:
					completed++
				case StepCurrent:
					cur++
				case StepPending:
					pending++
				}
			}
			if completed != current-1 || cur != 1 || pending != total-current {
				t.Fatalf("Steps(%d,%d): completed=%d current=%d pending=%d", current, total, completed, cur, pending)
			}
			if states[current-1] != StepCurrent {
				t.Fatalf("Steps(%d,%d): step %d should be current", current, total, current)
			}
		}
	}
}

func TestStepsPastEndAllCompleted(t *testing.T) {
	for _, s := range Steps(6, 5) {
		if s != StepCompleted {
			t.Fatalf("current past total should complete every step, got %v", s)
		}
	}
}

func TestStepsDegenerateInputs(t *testing.T) {
	if Steps(1, 0) != nil {
		t.Fatalf("zero total should render no steps")
	}
	for _, s := range Steps(0, 3) {
		if s != StepPending {
			t.Fatalf("current before start should leave all steps pending, got %v", s)
		}
	}
}

func TestProgressFollowsStatus(t *testing.T) {
	steps := Progress(models.StatusAssigned)
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}
	if steps[2].State != StepCurrent || steps[2].Label != "Assigned" {
		t.Fatalf("expected Assigned current, got %+v", steps[2])
	}
	if steps[0].State != StepCompleted || steps[1].State != StepCompleted {
		t.Fatalf("earlier steps should be completed")
	}

	for _, s := range Progress(models.StatusResolved) {
		if s.State != StepCompleted {
			t.Fatalf("resolved complaint should show every step completed")
		}
	}
}

func TestRolesSelection(t *testing.T) {
	roles, err := Roles("agent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var selected int
	for _, r := range roles {
		if r.Selected {
			selected++
			if r.ID != "agent" {
				t.Fatalf("wrong role selected: %s", r.ID)
			}
		}
	}
	if selected != 1 {
		t.Fatalf("expected exactly one selected role, got %d", selected)
	}

	if _, err := Roles("mayor"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
