package notifications

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridianwm/advisor-sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// Record is one delivered notification in the outbox
type Record struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Outbox persists every delivered notification to crm.db so the CRM keeps
// an audit trail of what advisors were told and when.
type Outbox struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewOutbox creates a new outbox repository
func NewOutbox(db *sql.DB, log zerolog.Logger) *Outbox {
	return &Outbox{
		db:  db,
		log: log.With().Str("repository", "outbox").Logger(),
	}
}

// Record stores a delivered notification
func (o *Outbox) Record(recipient, title, body string, sentAt time.Time) error {
	_, err := o.db.Exec(`
		INSERT INTO notifications (id, recipient, title, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), recipient, title, body, sentAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the most recent notifications for a recipient
func (o *Outbox) ListByRecipient(recipient string, limit int) ([]Record, error) {
	rows, err := o.db.Query(`
		SELECT id, recipient, title, body, created_at
		FROM notifications
		WHERE recipient = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Recipient, &rec.Title, &rec.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return records, nil
}

// Count returns the total number of recorded notifications
func (o *Outbox) Count() (int, error) {
	var count int
	if err := o.db.QueryRow("SELECT COUNT(*) FROM notifications").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// OutboxNotifier decorates a transport with outbox recording. A recording
// failure is logged but does not fail the send; delivery already happened.
type OutboxNotifier struct {
	transport domain.Notifier
	outbox    *Outbox
	log       zerolog.Logger
}

// NewOutboxNotifier wraps a transport with outbox recording
func NewOutboxNotifier(transport domain.Notifier, outbox *Outbox, log zerolog.Logger) *OutboxNotifier {
	return &OutboxNotifier{
		transport: transport,
		outbox:    outbox,
		log:       log.With().Str("component", "outbox_notifier").Logger(),
	}
}

// Send delivers via the wrapped transport, then records the message
func (n *OutboxNotifier) Send(ctx context.Context, recipient, title, body string) error {
	if err := n.transport.Send(ctx, recipient, title, body); err != nil {
		return err
	}

	if err := n.outbox.Record(recipient, title, body, time.Now()); err != nil {
		n.log.Error().Err(err).Str("recipient", recipient).Msg("Failed to record notification in outbox")
	}

	return nil
}
