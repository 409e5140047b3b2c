package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/backend/internal/models"
)

// ErrStaleEscalation is returned when an escalation event does not advance
// the complaint's current level, or would exceed the maximum level.
var ErrStaleEscalation = errors.New("escalation level must increase and stay within bounds")

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) InsertComplaint(ctx context.Context, tx pgx.Tx, c models.Complaint) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO complaints (id, citizen_name, citizen_contact, ward, description, image_ref, occurred_at, status, escalation_level, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, c.ID, c.CitizenName, c.CitizenContact, c.Ward, c.Description, c.ImageRef, c.OccurredAt, c.Status, c.EscalationLevel, c.CreatedAt, c.UpdatedAt)
	return err
}

// InsertDecision writes the agent decision for a complaint. A decision is
// written once and never recomputed: a second insert for the same complaint
// is a no-op and reports inserted=false.
func (s *Store) InsertDecision(ctx context.Context, tx pgx.Tx, d models.AgentDecision) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO agent_decisions (complaint_id, issue_type, severity, department, priority, confidence, reasoning, raw, model_version, latency_ms, fallback_reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (complaint_id) DO NOTHING
	`, d.ComplaintID, d.IssueType, d.Severity, d.Department, d.Priority, d.Confidence, d.Reasoning, d.Raw, d.ModelVersion, d.LatencyMS, d.FallbackReason, d.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyClassification copies the decision's classification onto the complaint
// row and moves it to CLASSIFIED with its SLA deadline.
func (s *Store) ApplyClassification(ctx context.Context, tx pgx.Tx, complaintID string, d models.AgentDecision, deadline time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE complaints
		SET issue_type = $1, severity = $2, department = $3, priority = $4,
			status = $5, sla_deadline = $6, updated_at = NOW()
		WHERE id = $7
	`, d.IssueType, d.Severity, d.Department, d.Priority, models.StatusClassified, deadline, complaintID)
	return err
}

func (s *Store) UpdateStatus(ctx context.Context, tx pgx.Tx, complaintID string, status models.Status) error {
	tag, err := tx.Exec(ctx, `UPDATE complaints SET status = $1, updated_at = NOW() WHERE id = $2`, status, complaintID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AppendEscalation records a level bump together with its audit entry. The
// complaint row is locked so the level check, the history append and the audit
// write are atomic; levels never move backwards.
func (s *Store) AppendEscalation(ctx context.Context, ev models.EscalationEvent, audit models.AuditEntry) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		var current int
		if err := tx.QueryRow(ctx, `SELECT escalation_level FROM complaints WHERE id = $1 FOR UPDATE`, ev.ComplaintID).Scan(&current); err != nil {
			return err
		}
		if ev.FromLevel != current || ev.ToLevel <= current || ev.ToLevel > models.MaxEscalationLevel {
			return ErrStaleEscalation
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO escalation_events (id, complaint_id, from_level, to_level, reason_code, reason_text, at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, ev.ID, ev.ComplaintID, ev.FromLevel, ev.ToLevel, ev.ReasonCode, ev.ReasonText, ev.At); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE complaints SET escalation_level = $1, updated_at = NOW() WHERE id = $2`, ev.ToLevel, ev.ComplaintID); err != nil {
			return err
		}
		return s.AppendAudit(ctx, tx, audit)
	})
}

func (s *Store) AppendAudit(ctx context.Context, tx pgx.Tx, e models.AuditEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_log (id, complaint_id, action, actor_kind, actor, detail, at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, e.ID, e.ComplaintID, e.Action, e.ActorKind, e.Actor, e.Detail, e.At)
	return err
}

func (s *Store) ListComplaints(ctx context.Context, status, department, severity, q string, limit, offset int) ([]models.Complaint, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, citizen_name, citizen_contact, ward, description, image_ref, occurred_at,
		COALESCE(issue_type, ''), COALESCE(severity, ''), COALESCE(department, ''), COALESCE(priority, 0),
		status, sla_deadline, escalation_level, created_at, updated_at
		FROM complaints`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if department != "" {
		args = append(args, department)
		wheres = append(wheres, fmt.Sprintf("department = $%d", len(args)))
	}
	if severity != "" {
		args = append(args, severity)
		wheres = append(wheres, fmt.Sprintf("severity = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(description ILIKE $%d OR id ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		var c models.Complaint
		if err := rows.Scan(&c.ID, &c.CitizenName, &c.CitizenContact, &c.Ward, &c.Description, &c.ImageRef, &c.OccurredAt,
			&c.IssueType, &c.Severity, &c.Department, &c.Priority,
			&c.Status, &c.SLADeadline, &c.EscalationLevel, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetComplaint(ctx context.Context, id string) (models.Complaint, error) {
	var c models.Complaint
	err := s.Pool.QueryRow(ctx, `
		SELECT id, citizen_name, citizen_contact, ward, description, image_ref, occurred_at,
			COALESCE(issue_type, ''), COALESCE(severity, ''), COALESCE(department, ''), COALESCE(priority, 0),
			status, sla_deadline, escalation_level, created_at, updated_at
		FROM complaints WHERE id = $1
	`, id).Scan(&c.ID, &c.CitizenName, &c.CitizenContact, &c.Ward, &c.Description, &c.ImageRef, &c.OccurredAt,
		&c.IssueType, &c.Severity, &c.Department, &c.Priority,
		&c.Status, &c.SLADeadline, &c.EscalationLevel, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) GetComplaintDetails(ctx context.Context, id string) (map[string]any, error) {
	c, err := s.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}

	result := map[string]any{"complaint": c}

	var d models.AgentDecision
	err = s.Pool.QueryRow(ctx, `
		SELECT complaint_id, issue_type, severity, department, priority, confidence, reasoning, raw, model_version, latency_ms, COALESCE(fallback_reason, ''), created_at
		FROM agent_decisions WHERE complaint_id = $1
	`, id).Scan(&d.ComplaintID, &d.IssueType, &d.Severity, &d.Department, &d.Priority, &d.Confidence, &d.Reasoning, &d.Raw, &d.ModelVersion, &d.LatencyMS, &d.FallbackReason, &d.CreatedAt)
	if err == nil {
		result["decision"] = d
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	escalations, err := s.listEscalations(ctx, id)
	if err != nil {
		return nil, err
	}
	result["escalations"] = escalations

	audit, err := s.listAudit(ctx, id)
	if err != nil {
		return nil, err
	}
	result["audit_log"] = audit

	return result, nil
}

func (s *Store) listEscalations(ctx context.Context, complaintID string) ([]models.EscalationEvent, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, complaint_id, from_level, to_level, reason_code, reason_text, at
		FROM escalation_events WHERE complaint_id = $1 ORDER BY at ASC
	`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.EscalationEvent{}
	for rows.Next() {
		var ev models.EscalationEvent
		if err := rows.Scan(&ev.ID, &ev.ComplaintID, &ev.FromLevel, &ev.ToLevel, &ev.ReasonCode, &ev.ReasonText, &ev.At); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) listAudit(ctx context.Context, complaintID string) ([]models.AuditEntry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, complaint_id, action, actor_kind, COALESCE(actor, ''), COALESCE(detail, ''), at
		FROM audit_log WHERE complaint_id = $1 ORDER BY at ASC
	`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.Action, &e.ActorKind, &e.Actor, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListUnclassified returns complaints that have no agent decision yet, oldest
// first, for the classification run.
func (s *Store) ListUnclassified(ctx context.Context) ([]models.Complaint, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT c.id, c.citizen_name, c.citizen_contact, c.ward, c.description, c.image_ref, c.occurred_at,
			COALESCE(c.issue_type, ''), COALESCE(c.severity, ''), COALESCE(c.department, ''), COALESCE(c.priority, 0),
			c.status, c.sla_deadline, c.escalation_level, c.created_at, c.updated_at
		FROM complaints c
		LEFT JOIN agent_decisions d ON d.complaint_id = c.id
		WHERE d.complaint_id IS NULL
		ORDER BY c.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		var c models.Complaint
		if err := rows.Scan(&c.ID, &c.CitizenName, &c.CitizenContact, &c.Ward, &c.Description, &c.ImageRef, &c.OccurredAt,
			&c.IssueType, &c.Severity, &c.Department, &c.Priority,
			&c.Status, &c.SLADeadline, &c.EscalationLevel, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListOverdue returns unresolved complaints whose SLA deadline has passed.
func (s *Store) ListOverdue(ctx context.Context, asOf time.Time) ([]models.Complaint, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, citizen_name, citizen_contact, ward, description, image_ref, occurred_at,
			COALESCE(issue_type, ''), COALESCE(severity, ''), COALESCE(department, ''), COALESCE(priority, 0),
			status, sla_deadline, escalation_level, created_at, updated_at
		FROM complaints
		WHERE sla_deadline IS NOT NULL
			AND sla_deadline < $1
			AND status NOT IN ($2, $3)
		ORDER BY sla_deadline ASC
	`, asOf, models.StatusResolved, models.StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		var c models.Complaint
		if err := rows.Scan(&c.ID, &c.CitizenName, &c.CitizenContact, &c.Ward, &c.Description, &c.ImageRef, &c.OccurredAt,
			&c.IssueType, &c.Severity, &c.Department, &c.Priority,
			&c.Status, &c.SLADeadline, &c.EscalationLevel, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type StatusCount struct {
	Status models.Status `json:"status"`
	Count  int           `json:"count"`
}

type SeverityCount struct {
	Severity models.Severity `json:"severity"`
	Count    int             `json:"count"`
}

func (s *Store) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.Pool.Query(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) CountBySeverity(ctx context.Context) ([]SeverityCount, error) {
	rows, err := s.Pool.Query(ctx, `SELECT severity, COUNT(*) FROM complaints WHERE severity IS NOT NULL GROUP BY severity ORDER BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeverityCount
	for rows.Next() {
		var sc SeverityCount
		if err := rows.Scan(&sc.Severity, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) CountOverdue(ctx context.Context, asOf time.Time) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM complaints
		WHERE sla_deadline IS NOT NULL AND sla_deadline < $1 AND status NOT IN ($2, $3)
	`, asOf, models.StatusResolved, models.StatusRejected).Scan(&n)
	return n, err
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO runs (status, started_at) VALUES ($1, NOW()) RETURNING id`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (map[string]any, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var (
		id       string
		started  time.Time
		finished *time.Time
		status   string
		summary  []byte
	)
	if err := row.Scan(&id, &started, &finished, &status, &summary); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          id,
		"started_at":  started,
		"finished_at": finished,
		"status":      status,
		"summary":     summary,
	}, nil
}
