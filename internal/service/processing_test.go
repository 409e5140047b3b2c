package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/civicdesk/backend/internal/ai"
	"github.com/civicdesk/backend/internal/db"
	"github.com/civicdesk/backend/internal/models"
)

type brokenClassifier struct{}

func (brokenClassifier) Classify(ctx context.Context, c models.Complaint) (models.AgentDecision, error) {
	return models.AgentDecision{}, errors.New("model unavailable")
}

func testStore(t *testing.T) *db.Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := db.New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestRunFallsBackWhenClassifierFails(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	intake := &IntakeService{Store: store, Logger: zerolog.Nop()}
	c, err := intake.Submit(ctx, SubmitInput{
		CitizenName:    "Test Citizen",
		CitizenContact: "test@example.com",
		Ward:           "Ward 1",
		Description:    "Streetlight out on the corner for a week",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	processor := &ProcessingService{
		Store:      store,
		Classifier: brokenClassifier{},
		Fallback:   ai.MockClassifier{ModelVersion: "fallback-v1"},
		Logger:     zerolog.Nop(),
	}
	summary, err := processor.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Counts["fallbacks"].(int) < 1 {
		t.Fatalf("expected at least one fallback, got %+v", summary.Counts)
	}

	details, err := store.GetComplaintDetails(ctx, c.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	d, ok := details["decision"].(models.AgentDecision)
	if !ok {
		t.Fatalf("expected a decision to be recorded")
	}
	if !d.Fallback() {
		t.Fatalf("expected fallback reason to be recorded, got %+v", d)
	}
	if d.ModelVersion != "fallback-v1" {
		t.Fatalf("expected fallback model version, got %s", d.ModelVersion)
	}

	got := details["complaint"].(models.Complaint)
	if got.Status != models.StatusClassified {
		t.Fatalf("expected CLASSIFIED after fallback, got %s", got.Status)
	}
	if got.SLADeadline == nil {
		t.Fatalf("expected SLA deadline to be set")
	}
}

func TestWriteDecisionFirstWriteWins(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	intake := &IntakeService{Store: store, Logger: zerolog.Nop()}
	c, err := intake.Submit(ctx, SubmitInput{
		CitizenName:    "Test Citizen",
		CitizenContact: "test@example.com",
		Ward:           "Ward 2",
		Description:    "Garbage pileup behind the market building",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	processor := &ProcessingService{
		Store:    store,
		Fallback: ai.MockClassifier{ModelVersion: "fallback-v1"},
		Logger:   zerolog.Nop(),
	}

	first, _ := ai.MockClassifier{ModelVersion: "first-v1"}.Classify(ctx, c)
	if err := processor.writeDecision(ctx, c, first); err != nil {
		t.Fatalf("first write: %v", err)
	}

	second := first
	second.ModelVersion = "second-v1"
	second.Severity = models.SeverityCritical
	second.Priority = 10
	if err := processor.writeDecision(ctx, c, second); err != nil {
		t.Fatalf("second write: %v", err)
	}

	details, err := store.GetComplaintDetails(ctx, c.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	d := details["decision"].(models.AgentDecision)
	if d.ModelVersion != "first-v1" {
		t.Fatalf("expected the first decision to stand, got %s", d.ModelVersion)
	}
	if d.Severity != first.Severity || d.Priority != first.Priority {
		t.Fatalf("decision was recomputed: %+v", d)
	}
}
