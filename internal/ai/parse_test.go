package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/civicdesk/backend/internal/models"
)

func TestParseDecisionValidReply(t *testing.T) {
	raw := `{"issue_type":"Road damage","severity":"HIGH","department":"Public Works","priority":8,"confidence":0.91,"reasoning":"Pothole on arterial road."}`
	d, err := ParseDecision("c1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Severity != models.SeverityHigh {
		t.Fatalf("expected severity high, got %s", d.Severity)
	}
	if d.Department != "Public Works" || d.Priority != 8 {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Raw != raw {
		t.Fatalf("expected verbatim raw reply to be retained")
	}
}

func TestParseDecisionStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"severity\":\"low\",\"department\":\"Sanitation\",\"priority\":2,\"confidence\":0.5}\n```"
	d, err := ParseDecision("c1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Department != "Sanitation" {
		t.Fatalf("expected Sanitation, got %q", d.Department)
	}
}

func TestParseDecisionRejectsGarbage(t *testing.T) {
	if _, err := ParseDecision("c1", "I cannot classify this."); err == nil {
		t.Fatalf("expected error for non-JSON reply")
	}
	if _, err := ParseDecision("c1", `{"severity":"whatever","department":"X"}`); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
	if _, err := ParseDecision("c1", `{"severity":"low","department":""}`); err == nil {
		t.Fatalf("expected error for missing department")
	}
}

func TestParseDecisionClampsOutOfRange(t *testing.T) {
	d, err := ParseDecision("c1", `{"severity":"critical","department":"Water Board","priority":99,"confidence":3.5}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Priority != 9 {
		t.Fatalf("expected out-of-range priority derived from severity, got %d", d.Priority)
	}
	if d.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %f", d.Confidence)
	}
}

func TestMockClassifierDeterministic(t *testing.T) {
	m := MockClassifier{ModelVersion: "mock-v1"}
	c := models.Complaint{ID: "complaint-42", Description: "streetlight out"}

	d1, err := m.Classify(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, _ := m.Classify(context.Background(), c)
	if d1.Severity != d2.Severity || d1.Department != d2.Department || d1.Priority != d2.Priority {
		t.Fatalf("expected deterministic classification, got %+v vs %+v", d1, d2)
	}
	if d1.Priority < 1 || d1.Priority > 10 {
		t.Fatalf("priority out of range: %d", d1.Priority)
	}
	if !d1.Severity.Valid() {
		t.Fatalf("invalid severity: %s", d1.Severity)
	}
	if !strings.Contains(d1.Reasoning, c.ID) {
		t.Fatalf("expected reasoning to reference complaint id")
	}
}
