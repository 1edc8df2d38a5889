package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/spec-kit/city-issue-service/internal/events"
	apperrors "github.com/spec-kit/city-issue-service/pkg/util/errorutil"
)

// Publisher emits issue lifecycle notifications to the message bus. Delivery
// is at-least-once; no retry state survives process restarts.
type Publisher interface {
	PublishReported(ctx context.Context, issueID string) error
	PublishValidated(ctx context.Context, issueID string, priority int, duplicate bool) error
}

// NATSPublisher publishes JSON payloads on the issue subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// PublishReported emits an issue.reported notification.
func (p *NATSPublisher) PublishReported(_ context.Context, issueID string) error {
	event := events.IssueReported{
		IssueID:    issueID,
		ReportedAt: time.Now().UTC(),
	}
	return p.publish(events.SubjectIssueReported, event)
}

// PublishValidated emits an issue.validated notification.
func (p *NATSPublisher) PublishValidated(_ context.Context, issueID string, priority int, duplicate bool) error {
	event := events.IssueValidated{
		IssueID:     issueID,
		Priority:    priority,
		Duplicate:   duplicate,
		ValidatedAt: time.Now().UTC(),
	}
	return p.publish(events.SubjectIssueValidated, event)
}

func (p *NATSPublisher) publish(subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewPublishFailed(err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return apperrors.NewPublishFailed(err)
	}
	return nil
}
