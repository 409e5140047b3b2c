package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/civicdesk/backend/internal/db"
	"github.com/civicdesk/backend/internal/models"
	"github.com/civicdesk/backend/internal/service"
)

func TestEscalateConflictAtMaxLevel(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := db.New(ctx, url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()

	intake := &service.IntakeService{Store: store, Logger: zerolog.Nop()}
	c, err := intake.Submit(ctx, service.SubmitInput{
		CitizenName:    "Test Citizen",
		CitizenContact: "test@example.com",
		Ward:           "Ward 4",
		Description:    "Sewage overflow on the residential street",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	escalations := &service.EscalationService{Store: store, Logger: zerolog.Nop()}
	for i := 0; i < models.MaxEscalationLevel; i++ {
		if _, err := escalations.Escalate(ctx, c.ID, "bump", models.ActorAdmin, "ops"); err != nil {
			t.Fatalf("escalate to level %d: %v", i+1, err)
		}
	}

	h := &Handler{
		Store:       store,
		Escalations: escalations,
		Validator:   validator.New(),
		Logger:      zerolog.Nop(),
	}
	r := gin.New()
	r.POST("/api/complaints/:id/escalate", h.Escalate)

	body := strings.NewReader(`{"reason":"one more","actor":"ops"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/complaints/"+c.ID+"/escalate", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error.Code != "STALE_ESCALATION" {
		t.Fatalf("expected STALE_ESCALATION, got %q", resp.Error.Code)
	}
}
