package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/civicdesk/backend/internal/db"
	"github.com/civicdesk/backend/internal/models"
)

const (
	ReasonSLABreach    = "SLA_BREACH"
	ReasonRepeatBreach = "REPEAT_BREACH"
	ReasonManual       = "MANUAL_ESCALATION"
)

type EscalationService struct {
	Store  *db.Store
	Logger zerolog.Logger
}

type SweepSummary struct {
	Checked    int            `json:"checked"`
	Escalated  int            `json:"escalated"`
	AtMaxLevel int            `json:"at_max_level"`
	Errors     int            `json:"errors"`
	ByLevel    map[string]int `json:"by_level"`
}

// Sweep raises the escalation level of every unresolved complaint whose SLA
// deadline has passed. Each level gets one extra SLA window of grace before
// the next bump, so a complaint walks up the hierarchy one level per window,
// never past MaxEscalationLevel.
func (s *EscalationService) Sweep(ctx context.Context, asOf time.Time) (SweepSummary, error) {
	overdue, err := s.Store.ListOverdue(ctx, asOf)
	if err != nil {
		return SweepSummary{}, err
	}

	summary := SweepSummary{Checked: len(overdue), ByLevel: map[string]int{}}
	for _, c := range overdue {
		if c.EscalationLevel >= models.MaxEscalationLevel {
			summary.AtMaxLevel++
			continue
		}
		if !dueForBump(c, asOf) {
			continue
		}

		reason := ReasonSLABreach
		text := fmt.Sprintf("SLA deadline %s passed", c.SLADeadline.Format(time.RFC3339))
		if c.EscalationLevel > 0 {
			reason = ReasonRepeatBreach
			text = fmt.Sprintf("still unresolved at level %d past SLA deadline", c.EscalationLevel)
		}

		if _, err := s.escalate(ctx, c, c.EscalationLevel+1, reason, text, models.ActorSystem, ""); err != nil {
			s.Logger.Error().Err(err).Str("complaint_id", c.ID).Msg("escalation failed")
			summary.Errors++
			continue
		}
		summary.Escalated++
		summary.ByLevel[fmt.Sprintf("level_%d", c.EscalationLevel+1)]++
	}

	if summary.Escalated > 0 {
		s.Logger.Info().Int("escalated", summary.Escalated).Int("checked", summary.Checked).Msg("escalation sweep")
	}
	return summary, nil
}

// Escalate performs a manual bump by one level.
func (s *EscalationService) Escalate(ctx context.Context, complaintID, reasonText string, actorKind models.ActorKind, actor string) (models.EscalationEvent, error) {
	c, err := s.Store.GetComplaint(ctx, complaintID)
	if err != nil {
		return models.EscalationEvent{}, err
	}
	if c.EscalationLevel >= models.MaxEscalationLevel {
		return models.EscalationEvent{}, db.ErrStaleEscalation
	}
	return s.escalate(ctx, c, c.EscalationLevel+1, ReasonManual, reasonText, actorKind, actor)
}

func (s *EscalationService) escalate(ctx context.Context, c models.Complaint, toLevel int, reasonCode, reasonText string, actorKind models.ActorKind, actor string) (models.EscalationEvent, error) {
	now := time.Now().UTC()
	ev := models.EscalationEvent{
		ID:          uuid.NewString(),
		ComplaintID: c.ID,
		FromLevel:   c.EscalationLevel,
		ToLevel:     toLevel,
		ReasonCode:  reasonCode,
		ReasonText:  reasonText,
		At:          now,
	}
	audit := models.AuditEntry{
		ID:          uuid.NewString(),
		ComplaintID: c.ID,
		Action:      "complaint.escalated",
		ActorKind:   actorKind,
		Actor:       actor,
		Detail:      fmt.Sprintf("%s: level %d -> %d", reasonCode, ev.FromLevel, ev.ToLevel),
		At:          now,
	}
	if err := s.Store.AppendEscalation(ctx, ev, audit); err != nil {
		return models.EscalationEvent{}, err
	}
	return ev, nil
}

// dueForBump works out whether the complaint has sat past its deadline long
// enough for its current level: level n breaches at deadline + n windows.
func dueForBump(c models.Complaint, asOf time.Time) bool {
	if c.SLADeadline == nil {
		return false
	}
	window := SLAWindow(c.Priority)
	nextBreach := c.SLADeadline.Add(time.Duration(c.EscalationLevel) * window)
	return asOf.After(nextBreach)
}
