package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianwm/advisor-sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// Dispatcher renders and sends the per-advisor compliance digests. One
// consolidated message per advisor, critical findings first, warnings
// after; info-severity alerts are never push-notified.
type Dispatcher struct {
	notifier domain.Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(notifier domain.Notifier, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		log:      log.With().Str("component", "alert_dispatcher").Logger(),
	}
}

// DispatchAdvisorDigest sends one consolidated message covering the new
// alerts for an advisor's households. An empty set (or info-only set) is a
// silent no-op.
func (d *Dispatcher) DispatchAdvisorDigest(ctx context.Context, advisor domain.AdvisorRef, alerts []Alert) error {
	var critical, warning []Alert
	for _, alert := range alerts {
		switch alert.Severity {
		case SeverityCritical:
			critical = append(critical, alert)
		case SeverityWarning:
			warning = append(warning, alert)
		}
		// info alerts are scan/API output only
	}

	if len(critical) == 0 && len(warning) == 0 {
		return nil
	}

	title := fmt.Sprintf("Compliance alerts: %d critical, %d warning", len(critical), len(warning))
	body := renderDigest(critical, warning)

	if err := d.notifier.Send(ctx, advisor.Email, title, body); err != nil {
		return fmt.Errorf("failed to notify advisor %s: %w", advisor.ID, err)
	}

	d.log.Info().
		Str("advisor_id", advisor.ID).
		Int("critical", len(critical)).
		Int("warning", len(warning)).
		Msg("Advisor digest sent")

	return nil
}

// renderDigest builds the message body with distinct critical and warning
// sections
func renderDigest(critical, warning []Alert) string {
	var b strings.Builder

	if len(critical) > 0 {
		b.WriteString("CRITICAL\n")
		b.WriteString("--------\n")
		for _, alert := range critical {
			writeAlertLine(&b, alert)
		}
	}

	if len(warning) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("WARNING\n")
		b.WriteString("-------\n")
		for _, alert := range warning {
			writeAlertLine(&b, alert)
		}
	}

	return b.String()
}

func writeAlertLine(b *strings.Builder, alert Alert) {
	fmt.Fprintf(b, "- [%s] %s\n", alert.HouseholdName, alert.Title)
	fmt.Fprintf(b, "  %s\n", alert.Description)
	if alert.Recommendation != "" {
		fmt.Fprintf(b, "  Recommendation: %s\n", alert.Recommendation)
	}
}
