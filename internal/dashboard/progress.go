package dashboard

import "github.com/civicdesk/backend/internal/models"

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepPending   StepState = "pending"
)

// Steps renders the step-progress contract: for current step k of n, steps
// 1..k-1 are completed, step k is current, the rest pending. A current step
// past the end renders everything completed; before the start, everything
// pending.
func Steps(current, total int) []StepState {
	if total <= 0 {
		return nil
	}
	out := make([]StepState, total)
	for i := range out {
		step := i + 1
		switch {
		case current > total:
			out[i] = StepCompleted
		case step < current:
			out[i] = StepCompleted
		case step == current:
			out[i] = StepCurrent
		default:
			out[i] = StepPending
		}
	}
	return out
}

// intake flow steps shown to the citizen, in order
var progressSteps = []string{"Submitted", "Classified", "Assigned", "In progress", "Resolved"}

func statusStep(s models.Status) int {
	switch s {
	case models.StatusSubmitted:
		return 1
	case models.StatusClassified:
		return 2
	case models.StatusAssigned:
		return 3
	case models.StatusInProgress:
		return 4
	case models.StatusResolved, models.StatusRejected:
		return len(progressSteps) + 1
	default:
		return 0
	}
}

type ProgressStep struct {
	Label string    `json:"label"`
	State StepState `json:"state"`
}

// Progress maps a complaint status onto the intake flow steps.
func Progress(status models.Status) []ProgressStep {
	states := Steps(statusStep(status), len(progressSteps))
	out := make([]ProgressStep, len(states))
	for i, st := range states {
		out[i] = ProgressStep{Label: progressSteps[i], State: st}
	}
	return out
}
