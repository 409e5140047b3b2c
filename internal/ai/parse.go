package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/civicdesk/backend/internal/models"
)

type decisionPayload struct {
	IssueType  string  `json:"issue_type"`
	Severity   string  `json:"severity"`
	Department string  `json:"department"`
	Priority   int     `json:"priority"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseDecision validates the model's JSON reply and turns it into an
// AgentDecision. The reply text is kept verbatim in Raw whatever the parse
// outcome of individual fields; a reply that is not a JSON object at all is
// an error and the caller falls back.
func ParseDecision(complaintID, raw string) (models.AgentDecision, error) {
	text := stripFences(raw)

	var p decisionPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return models.AgentDecision{}, fmt.Errorf("decode model reply: %w", err)
	}
	if strings.TrimSpace(p.Department) == "" {
		return models.AgentDecision{}, fmt.Errorf("model reply missing department")
	}

	severity := normalizeSeverity(p.Severity)
	if !severity.Valid() {
		return models.AgentDecision{}, fmt.Errorf("model reply has unknown severity %q", p.Severity)
	}

	return models.AgentDecision{
		ComplaintID: complaintID,
		IssueType:   strings.TrimSpace(p.IssueType),
		Severity:    severity,
		Department:  strings.TrimSpace(p.Department),
		Priority:    clampPriority(p.Priority, severity),
		Confidence:  clamp01(p.Confidence),
		Reasoning:   strings.TrimSpace(p.Reasoning),
		Raw:         raw,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the JSON response MIME type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalizeSeverity(value string) models.Severity {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "low", "minor":
		return models.SeverityLow
	case "medium", "moderate":
		return models.SeverityMedium
	case "high", "major":
		return models.SeverityHigh
	case "critical", "severe", "urgent":
		return models.SeverityCritical
	default:
		return models.Severity(v)
	}
}

func clampPriority(p int, severity models.Severity) int {
	if p < 1 || p > 10 {
		// priority missing or out of range: derive from severity
		switch severity {
		case models.SeverityCritical:
			return 9
		case models.SeverityHigh:
			return 7
		case models.SeverityMedium:
			return 5
		default:
			return 2
		}
	}
	return p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
