package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/civicdesk/backend/internal/db"
	"github.com/civicdesk/backend/internal/models"
	"github.com/civicdesk/backend/internal/timeutil"
)

type IntakeService struct {
	Store  *db.Store
	Logger zerolog.Logger
}

type SubmitInput struct {
	CitizenName    string `json:"citizen_name" validate:"required"`
	CitizenContact string `json:"citizen_contact" validate:"required"`
	Ward           string `json:"ward" validate:"required"`
	Description    string `json:"description" validate:"required,min=10"`
	ImageRef       string `json:"image_ref"`
	// OccurredAt arrives in whatever shape the client sends: RFC3339 string,
	// epoch number, or a seconds/nanos object. Coerced at the boundary.
	OccurredAt any `json:"occurred_at"`
}

func (s *IntakeService) Submit(ctx context.Context, in SubmitInput) (models.Complaint, error) {
	now := time.Now().UTC()
	occurredAt := now
	if in.OccurredAt != nil {
		occurredAt = timeutil.CoerceTime(in.OccurredAt)
	}
	c := models.Complaint{
		ID:             uuid.NewString(),
		CitizenName:    strings.TrimSpace(in.CitizenName),
		CitizenContact: strings.TrimSpace(in.CitizenContact),
		Ward:           strings.TrimSpace(in.Ward),
		Description:    strings.TrimSpace(in.Description),
		ImageRef:       strings.TrimSpace(in.ImageRef),
		OccurredAt:     occurredAt,
		Status:         models.StatusSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.InsertComplaint(ctx, tx, c); err != nil {
			return err
		}
		return s.Store.AppendAudit(ctx, tx, models.AuditEntry{
			ID:          uuid.NewString(),
			ComplaintID: c.ID,
			Action:      "complaint.submitted",
			ActorKind:   models.ActorCitizen,
			Actor:       c.CitizenName,
			At:          now,
		})
	})
	if err != nil {
		return models.Complaint{}, err
	}

	s.Logger.Info().Str("complaint_id", c.ID).Str("ward", c.Ward).Msg("complaint submitted")
	return c, nil
}

// SetStatus moves a complaint through its lifecycle and records who did it.
func (s *IntakeService) SetStatus(ctx context.Context, complaintID string, status models.Status, actorKind models.ActorKind, actor string) error {
	return s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.UpdateStatus(ctx, tx, complaintID, status); err != nil {
			return err
		}
		return s.Store.AppendAudit(ctx, tx, models.AuditEntry{
			ID:          uuid.NewString(),
			ComplaintID: complaintID,
			Action:      "status.changed",
			ActorKind:   actorKind,
			Actor:       actor,
			Detail:      string(status),
			At:          time.Now().UTC(),
		})
	})
}
