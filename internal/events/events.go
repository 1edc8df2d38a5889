package events

import "time"

// Subjects (routing keys) on the issue exchange. Downstream consumers handle
// deliveries idempotently keyed by issue id and event kind.
const (
	SubjectIssueReported  = "issue.reported"
	SubjectIssueValidated = "issue.validated"
)

// IssueReported announces a durably committed issue creation.
type IssueReported struct {
	IssueID    string    `json:"issue_id"`
	ReportedAt time.Time `json:"reported_at"`
}

// IssueValidated announces the routing/validation step's outcome.
type IssueValidated struct {
	IssueID     string    `json:"issue_id"`
	Priority    int       `json:"priority"`
	Duplicate   bool      `json:"duplicate"`
	ValidatedAt time.Time `json:"validated_at"`
}
