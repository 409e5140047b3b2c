package ai

import (
	"context"

	"github.com/civicdesk/backend/internal/models"
)

type Classifier interface {
	Classify(ctx context.Context, c models.Complaint) (models.AgentDecision, error)
}
