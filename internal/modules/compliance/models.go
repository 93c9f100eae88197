// Package compliance implements the compliance alert engine: rule evaluation
// over household portfolio aggregates, alert history tracking with
// re-notification throttling, and the scheduled scan and cleanup jobs.
package compliance

import (
	"fmt"
	"time"
)

// Severity indicates alert urgency. Ordered by urgency, not numeric.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AlertType identifies which rule produced an alert. Closed set; adding a
// new rule adds a new variant.
type AlertType string

const (
	AlertTypeConcentrationRisk   AlertType = "concentration_risk"
	AlertTypeSuitabilityMismatch AlertType = "suitability_mismatch"
	AlertTypeAnnualReviewDue     AlertType = "annual_review_due"
	AlertTypeLargePosition       AlertType = "large_position"
	AlertTypeUnderperforming     AlertType = "underperforming"
)

// AffectedHolding describes one holding implicated by an alert
type AffectedHolding struct {
	Ticker     string  `json:"ticker"`
	Percentage float64 `json:"percentage"`
	Value      float64 `json:"value"`
}

// Alert is an immutable compliance finding for one household. The ID is
// deterministic across scan runs: it is the join key against the alert
// history ledger, so the same condition detected on different days maps to
// the same ledger entry.
type Alert struct {
	ID               string            `json:"id"`
	Severity         Severity          `json:"severity"`
	Type             AlertType         `json:"type"`
	HouseholdID      string            `json:"household_id"`
	HouseholdName    string            `json:"household_name"`
	AdvisorID        string            `json:"advisor_id"`
	AdvisorName      string            `json:"advisor_name"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Recommendation   string            `json:"recommendation"`
	AffectedHoldings []AffectedHolding `json:"affected_holdings,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// alertID builds the deterministic alert identity. The key disambiguates
// multiple alerts of the same type for one household (e.g. per ticker) and
// is empty for at-most-one-per-household rules.
func alertID(alertType AlertType, householdID, key string) string {
	if key == "" {
		return fmt.Sprintf("%s:%s", alertType, householdID)
	}
	return fmt.Sprintf("%s:%s:%s", alertType, householdID, key)
}

// Stats is a pure projection over a batch of alerts, recomputed on demand
type Stats struct {
	Total       int               `json:"total"`
	BySeverity  map[Severity]int  `json:"by_severity"`
	ByType      map[AlertType]int `json:"by_type"`
	Households  int               `json:"households"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// ComputeStats reduces a batch of alerts to summary counts
func ComputeStats(alerts []Alert, now time.Time) Stats {
	stats := Stats{
		Total:       len(alerts),
		BySeverity:  make(map[Severity]int),
		ByType:      make(map[AlertType]int),
		GeneratedAt: now,
	}

	households := make(map[string]struct{})
	for _, alert := range alerts {
		stats.BySeverity[alert.Severity]++
		stats.ByType[alert.Type]++
		households[alert.HouseholdID] = struct{}{}
	}
	stats.Households = len(households)

	return stats
}
