package compliance

import (
	"fmt"
	"time"

	"github.com/meridianwm/advisor-sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// Rule thresholds. These are part of the engine's contract with compliance,
// not tuning knobs.
const (
	// Concentration: flag any holding above this share of portfolio value
	concentrationWarningPct  = 10.0
	concentrationCriticalPct = 20.0

	// Suitability: acceptable equity exposure band for moderate households,
	// ceiling for conservative, floor for aggressive
	equityCeilingConservative = 40.0
	equityFloorModerate       = 40.0
	equityCeilingModerate     = 70.0
	equityFloorAggressive     = 70.0

	// Annual review
	reviewDueDays        = 365
	reviewCriticalDays   = 400
	reviewMissingDaysVal = 999

	// Large position (informational)
	largePositionPortfolioMin = 500000.0
	largePositionValueMin     = 100000.0
	largePositionPctMin       = 5.0

	// Underperforming (informational)
	underperformingLossPct  = -20.0
	underperformingValueMin = 10000.0
)

// Evaluator runs the fixed battery of compliance rules against one
// household's portfolio aggregate. Rules are independent and
// order-insensitive; their outputs are concatenated.
type Evaluator struct {
	log zerolog.Logger
}

// NewEvaluator creates a new rule evaluator
func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{
		log: log.With().Str("component", "rule_evaluator").Logger(),
	}
}

// Evaluate runs all rules against one household and returns every alert it
// currently violates. A household can trigger multiple alerts of different
// types and multiple alerts of the same type.
func (e *Evaluator) Evaluate(agg *domain.PortfolioAggregate, now time.Time) []Alert {
	var alerts []Alert

	alerts = append(alerts, e.checkConcentration(agg, now)...)
	alerts = append(alerts, e.checkSuitability(agg, now)...)
	alerts = append(alerts, e.checkAnnualReview(agg, now)...)
	alerts = append(alerts, e.checkLargePositions(agg, now)...)
	alerts = append(alerts, e.checkUnderperforming(agg, now)...)

	e.log.Debug().
		Str("household_id", agg.HouseholdID).
		Int("alerts", len(alerts)).
		Msg("Household evaluated")

	return alerts
}

// checkConcentration flags every holding above 10% of portfolio value.
// Severity escalates to critical above 20%.
func (e *Evaluator) checkConcentration(agg *domain.PortfolioAggregate, now time.Time) []Alert {
	total := agg.TotalValue()
	if total <= 0 {
		return nil
	}

	var alerts []Alert
	for _, h := range agg.Holdings {
		pct := h.CurrentValue / total * 100
		if pct <= concentrationWarningPct {
			continue
		}

		severity := SeverityWarning
		if pct > concentrationCriticalPct {
			severity = SeverityCritical
		}

		alerts = append(alerts, Alert{
			ID:            alertID(AlertTypeConcentrationRisk, agg.HouseholdID, h.Ticker),
			Severity:      severity,
			Type:          AlertTypeConcentrationRisk,
			HouseholdID:   agg.HouseholdID,
			HouseholdName: agg.HouseholdName,
			AdvisorID:     agg.AdvisorID,
			AdvisorName:   agg.AdvisorName,
			Title:         fmt.Sprintf("Concentration risk: %s", h.Ticker),
			Description: fmt.Sprintf("%s represents %.1f%% of the portfolio for %s ($%.0f of $%.0f).",
				h.Ticker, pct, agg.HouseholdName, h.CurrentValue, total),
			Recommendation: fmt.Sprintf("Consider trimming %s to bring the position below %.0f%% of portfolio value.",
				h.Ticker, concentrationWarningPct),
			AffectedHoldings: []AffectedHolding{{
				Ticker:     h.Ticker,
				Percentage: pct,
				Value:      h.CurrentValue,
			}},
			CreatedAt: now,
		})
	}

	return alerts
}

// checkSuitability compares actual equity exposure against the household's
// declared risk tolerance. Missing tolerance defaults to moderate. At most
// one alert per household.
func (e *Evaluator) checkSuitability(agg *domain.PortfolioAggregate, now time.Time) []Alert {
	total := agg.TotalValue()
	if total <= 0 {
		return nil
	}

	equityPct := agg.EquityValue() / total * 100

	tolerance := agg.RiskTolerance
	if tolerance == "" {
		tolerance = domain.RiskToleranceModerate
	}

	var problem string
	switch tolerance {
	case domain.RiskToleranceConservative:
		if equityPct > equityCeilingConservative {
			problem = fmt.Sprintf("equity exposure of %.1f%% exceeds the %.0f%% ceiling for a conservative profile",
				equityPct, equityCeilingConservative)
		}
	case domain.RiskToleranceAggressive:
		if equityPct < equityFloorAggressive {
			problem = fmt.Sprintf("equity exposure of %.1f%% is below the %.0f%% floor for an aggressive profile",
				equityPct, equityFloorAggressive)
		}
	default: // moderate
		if equityPct < equityFloorModerate || equityPct > equityCeilingModerate {
			problem = fmt.Sprintf("equity exposure of %.1f%% is outside the %.0f-%.0f%% band for a moderate profile",
				equityPct, equityFloorModerate, equityCeilingModerate)
		}
	}

	if problem == "" {
		return nil
	}

	return []Alert{{
		ID:            alertID(AlertTypeSuitabilityMismatch, agg.HouseholdID, ""),
		Severity:      SeverityWarning,
		Type:          AlertTypeSuitabilityMismatch,
		HouseholdID:   agg.HouseholdID,
		HouseholdName: agg.HouseholdName,
		AdvisorID:     agg.AdvisorID,
		AdvisorName:   agg.AdvisorName,
		Title:         fmt.Sprintf("Suitability mismatch for %s", agg.HouseholdName),
		Description:   fmt.Sprintf("Declared risk tolerance is %s but %s.", tolerance, problem),
		Recommendation: "Review the household's asset allocation against its stated risk tolerance, " +
			"or update the tolerance on record if circumstances have changed.",
		CreatedAt: now,
	}}
}

// checkAnnualReview flags households overdue for their annual review.
// A household with no review on record is treated as 999 days overdue.
func (e *Evaluator) checkAnnualReview(agg *domain.PortfolioAggregate, now time.Time) []Alert {
	daysSince := reviewMissingDaysVal
	if agg.LastReviewDate != nil {
		daysSince = int(now.Sub(*agg.LastReviewDate).Hours() / 24)
	}

	if daysSince <= reviewDueDays {
		return nil
	}

	severity := SeverityWarning
	if daysSince > reviewCriticalDays {
		severity = SeverityCritical
	}

	description := fmt.Sprintf("Last review for %s was %d days ago.", agg.HouseholdName, daysSince)
	if agg.LastReviewDate == nil {
		description = fmt.Sprintf("No review on record for %s.", agg.HouseholdName)
	}

	return []Alert{{
		ID:             alertID(AlertTypeAnnualReviewDue, agg.HouseholdID, ""),
		Severity:       severity,
		Type:           AlertTypeAnnualReviewDue,
		HouseholdID:    agg.HouseholdID,
		HouseholdName:  agg.HouseholdName,
		AdvisorID:      agg.AdvisorID,
		AdvisorName:    agg.AdvisorName,
		Title:          fmt.Sprintf("Annual review due: %s", agg.HouseholdName),
		Description:    description,
		Recommendation: "Schedule an annual review meeting with the household.",
		CreatedAt:      now,
	}}
}

// checkLargePositions emits informational alerts for outsized positions in
// large portfolios. Only evaluated when the portfolio exceeds $500k.
func (e *Evaluator) checkLargePositions(agg *domain.PortfolioAggregate, now time.Time) []Alert {
	total := agg.TotalValue()
	if total <= largePositionPortfolioMin {
		return nil
	}

	var alerts []Alert
	for _, h := range agg.Holdings {
		pct := h.CurrentValue / total * 100
		if h.CurrentValue <= largePositionValueMin || pct <= largePositionPctMin {
			continue
		}

		alerts = append(alerts, Alert{
			ID:            alertID(AlertTypeLargePosition, agg.HouseholdID, h.Ticker),
			Severity:      SeverityInfo,
			Type:          AlertTypeLargePosition,
			HouseholdID:   agg.HouseholdID,
			HouseholdName: agg.HouseholdName,
			AdvisorID:     agg.AdvisorID,
			AdvisorName:   agg.AdvisorName,
			Title:         fmt.Sprintf("Large position: %s", h.Ticker),
			Description: fmt.Sprintf("%s holds $%.0f of %s (%.1f%% of a $%.0f portfolio).",
				agg.HouseholdName, h.CurrentValue, h.Ticker, pct, total),
			Recommendation: "No action required; flagged for awareness in quarterly review prep.",
			AffectedHoldings: []AffectedHolding{{
				Ticker:     h.Ticker,
				Percentage: pct,
				Value:      h.CurrentValue,
			}},
			CreatedAt: now,
		})
	}

	return alerts
}

// checkUnderperforming emits informational alerts for material positions
// down more than 20% from cost basis. Holdings with no cost basis on record
// are skipped.
func (e *Evaluator) checkUnderperforming(agg *domain.PortfolioAggregate, now time.Time) []Alert {
	var alerts []Alert
	for _, h := range agg.Holdings {
		cost := h.CostBasis()
		if cost <= 0 {
			continue
		}

		gainLossPct := (h.CurrentValue - cost) / cost * 100
		if gainLossPct >= underperformingLossPct || h.CurrentValue <= underperformingValueMin {
			continue
		}

		alerts = append(alerts, Alert{
			ID:            alertID(AlertTypeUnderperforming, agg.HouseholdID, h.Ticker),
			Severity:      SeverityInfo,
			Type:          AlertTypeUnderperforming,
			HouseholdID:   agg.HouseholdID,
			HouseholdName: agg.HouseholdName,
			AdvisorID:     agg.AdvisorID,
			AdvisorName:   agg.AdvisorName,
			Title:         fmt.Sprintf("Underperforming position: %s", h.Ticker),
			Description: fmt.Sprintf("%s is down %.1f%% from cost basis ($%.0f current vs $%.0f cost).",
				h.Ticker, -gainLossPct, h.CurrentValue, cost),
			Recommendation: "Evaluate whether the position still fits the household's plan, " +
				"and consider tax-loss harvesting opportunities.",
			AffectedHoldings: []AffectedHolding{{
				Ticker:     h.Ticker,
				Percentage: percentOf(h.CurrentValue, agg.TotalValue()),
				Value:      h.CurrentValue,
			}},
			CreatedAt: now,
		})
	}

	return alerts
}

func percentOf(value, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return value / total * 100
}
