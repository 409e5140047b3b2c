package models

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusClassified Status = "CLASSIFIED"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusRejected   Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusClassified, StatusAssigned, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the complaint lifecycle is finished and the
// SLA/escalation sweep must leave it alone.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

type ActorKind string

const (
	ActorCitizen ActorKind = "citizen"
	ActorAgent   ActorKind = "agent"
	ActorSystem  ActorKind = "system"
	ActorAdmin   ActorKind = "admin"
)

// MaxEscalationLevel is the top of the organizational hierarchy a complaint
// can be raised to.
const MaxEscalationLevel = 3

type Complaint struct {
	ID              string     `json:"id"`
	CitizenName     string     `json:"citizen_name"`
	CitizenContact  string     `json:"citizen_contact"`
	Ward            string     `json:"ward"`
	Description     string     `json:"description"`
	ImageRef        string     `json:"image_ref,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
	IssueType       string     `json:"issue_type,omitempty"`
	Severity        Severity   `json:"severity,omitempty"`
	Department      string     `json:"department,omitempty"`
	Priority        int        `json:"priority,omitempty"`
	Status          Status     `json:"status"`
	SLADeadline     *time.Time `json:"sla_deadline,omitempty"`
	EscalationLevel int        `json:"escalation_level"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AgentDecision is the record of one classification call. It is written
// exactly once per complaint and never recomputed; Raw keeps the model's
// reply verbatim for audit. FallbackReason is set when the model was
// unavailable and the deterministic fallback classified instead.
type AgentDecision struct {
	ComplaintID    string    `json:"complaint_id"`
	IssueType      string    `json:"issue_type"`
	Severity       Severity  `json:"severity"`
	Department     string    `json:"department"`
	Priority       int       `json:"priority"`
	Confidence     float64   `json:"confidence"`
	Reasoning      string    `json:"reasoning"`
	Raw            string    `json:"raw,omitempty"`
	ModelVersion   string    `json:"model_version"`
	LatencyMS      int64     `json:"latency_ms"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Fallback reports whether the decision was produced locally because the
// model call failed.
func (d AgentDecision) Fallback() bool {
	return d.FallbackReason != ""
}

type EscalationEvent struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	FromLevel   int       `json:"from_level"`
	ToLevel     int       `json:"to_level"`
	ReasonCode  string    `json:"reason_code"`
	ReasonText  string    `json:"reason_text"`
	At          time.Time `json:"at"`
}

type AuditEntry struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	Action      string    `json:"action"`
	ActorKind   ActorKind `json:"actor_kind"`
	Actor       string    `json:"actor,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	At          time.Time `json:"at"`
}

type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary,omitempty"`
}
