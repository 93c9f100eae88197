// Package notifications provides the notification transport and the outbox
// audit trail. The default transport renders messages to the structured
// log; a real email/SMS transport plugs in behind domain.Notifier.
package notifications

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notifications to the structured log. Used as the
// default transport and in development.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a new log-backed notifier
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		log: log.With().Str("component", "log_notifier").Logger(),
	}
}

// Send logs the message
func (n *LogNotifier) Send(ctx context.Context, recipient, title, body string) error {
	n.log.Info().
		Str("recipient", recipient).
		Str("title", title).
		Str("body", body).
		Msg("Notification")
	return nil
}
