package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/civicdesk/backend/internal/models"
	"github.com/civicdesk/backend/internal/utils"
)

// MockClassifier derives a deterministic pseudo-classification from a hash of
// the complaint ID. Used when no API key is configured, and by the service
// layer to produce fallback decisions when the real model errors.
type MockClassifier struct {
	ModelVersion string
}

var (
	mockIssueTypes  = []string{"Road damage", "Water supply", "Garbage", "Street lighting", "Drainage", "Noise"}
	mockDepartments = []string{"Public Works", "Water Board", "Sanitation", "Electrical", "Health"}
	mockSeverities  = []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical}
)

func (m MockClassifier) Classify(ctx context.Context, c models.Complaint) (models.AgentDecision, error) {
	start := time.Now()
	h := utils.HashStringToUint64(c.ID)

	severity := mockSeverities[int(h%uint64(len(mockSeverities)))]
	issueType := mockIssueTypes[int((h/7)%uint64(len(mockIssueTypes)))]
	department := mockDepartments[int((h/13)%uint64(len(mockDepartments)))]
	priority := 1 + int((h/17)%10)

	confidence := 0.75
	if h%5 == 0 {
		confidence = 0.62
	}

	decision := models.AgentDecision{
		ComplaintID:  c.ID,
		IssueType:    issueType,
		Severity:     severity,
		Department:   department,
		Priority:     priority,
		Confidence:   confidence,
		Reasoning:    fmt.Sprintf("Complaint %s auto-classified", c.ID),
		ModelVersion: m.ModelVersion,
		LatencyMS:    time.Since(start).Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
	return decision, nil
}
