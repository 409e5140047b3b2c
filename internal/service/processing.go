package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/civicdesk/backend/internal/ai"
	"github.com/civicdesk/backend/internal/db"
	"github.com/civicdesk/backend/internal/models"
)

type ProcessingService struct {
	Store      *db.Store
	Classifier ai.Classifier
	Fallback   ai.MockClassifier
	Logger     zerolog.Logger
}

type RunSummary struct {
	Events []map[string]any `json:"events"`
	Counts map[string]any   `json:"counts"`
}

// Run classifies every complaint that has no decision yet. A classifier
// failure never drops a complaint: the deterministic fallback classifies it
// and the decision records why. Decisions already written are never
// recomputed.
func (s *ProcessingService) Run(ctx context.Context) (RunSummary, error) {
	pending, err := s.Store.ListUnclassified(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()
	summary.Events = append(summary.Events, map[string]any{
		"type":    "classification_start",
		"message": "Complaints ready for classification",
		"count":   len(pending),
		"time":    time.Now().UTC(),
	})

	var (
		classified   int
		fallbacks    int
		writeErrors  int
		latencyTotal int64
		bySeverity   = map[string]int{}
	)

	for _, c := range pending {
		decision, err := s.Classifier.Classify(ctx, c)
		if err != nil {
			s.Logger.Warn().Err(err).Str("complaint_id", c.ID).Msg("classifier failed, using fallback")
			decision, _ = s.Fallback.Classify(ctx, c)
			decision.FallbackReason = err.Error()
			fallbacks++
		}
		latencyTotal += decision.LatencyMS

		if err := s.writeDecision(ctx, c, decision); err != nil {
			s.Logger.Error().Err(err).Str("complaint_id", c.ID).Msg("decision write failed")
			writeErrors++
			continue
		}
		classified++
		bySeverity[string(decision.Severity)]++
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":           "classification_done",
		"classified":     classified,
		"fallbacks":      fallbacks,
		"write_errors":   writeErrors,
		"avg_latency_ms": avgLatency(latencyTotal, classified),
		"elapsed_ms":     time.Since(start).Milliseconds(),
		"time":           time.Now().UTC(),
	})

	summary.Counts["pending"] = len(pending)
	summary.Counts["classified"] = classified
	summary.Counts["fallbacks"] = fallbacks
	summary.Counts["write_errors"] = writeErrors
	summary.Counts["by_severity"] = bySeverity
	return summary, nil
}

func (s *ProcessingService) writeDecision(ctx context.Context, c models.Complaint, d models.AgentDecision) error {
	deadline := SLADeadline(d.CreatedAt, d.Priority)
	return s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		inserted, err := s.Store.InsertDecision(ctx, tx, d)
		if err != nil {
			return err
		}
		if !inserted {
			// decision already exists; first write wins
			return nil
		}
		if err := s.Store.ApplyClassification(ctx, tx, c.ID, d, deadline); err != nil {
			return err
		}
		action := "complaint.classified"
		detail := string(d.Severity)
		if d.Fallback() {
			action = "complaint.classified_fallback"
			detail = d.FallbackReason
		}
		return s.Store.AppendAudit(ctx, tx, models.AuditEntry{
			ID:          uuid.NewString(),
			ComplaintID: c.ID,
			Action:      action,
			ActorKind:   models.ActorAgent,
			Actor:       d.ModelVersion,
			Detail:      detail,
			At:          time.Now().UTC(),
		})
	})
}

func avgLatency(total int64, count int) int64 {
	if count == 0 {
		return 0
	}
	return total / int64(count)
}
