package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianwm/advisor-sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// readerTimeout bounds each portfolio reader call so a stuck data source
// surfaces as a per-household failure instead of hanging the whole scan.
const readerTimeout = 30 * time.Second

// Service orchestrates compliance scans. The read paths
// (ScanAdvisorPortfolios, GetComplianceStats, GetHouseholdAlerts) are
// side-effect-free with respect to the alert history ledger; only the
// scheduled scan job path mutates ledger state.
type Service struct {
	reader    domain.PortfolioReader
	evaluator *Evaluator
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new compliance scan service
func NewService(reader domain.PortfolioReader, evaluator *Evaluator, log zerolog.Logger) *Service {
	return &Service{
		reader:    reader,
		evaluator: evaluator,
		log:       log.With().Str("service", "compliance").Logger(),
		now:       time.Now,
	}
}

// SetClock overrides the wall clock, used by tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ScanAdvisorPortfolios evaluates every household against all rules and
// returns the flat list of alerts. A nil advisorID scans all households
// across all advisors. No ordering is guaranteed.
//
// If the portfolio reader is unavailable the scan fails fast with no
// partial result. A failure on a single household is logged and skipped;
// the rest of the batch still completes.
func (s *Service) ScanAdvisorPortfolios(ctx context.Context, advisorID *string) ([]Alert, error) {
	households, err := s.listHouseholds(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("data source unavailable: %w", err)
	}

	now := s.now()
	var alerts []Alert
	skipped := 0

	for _, ref := range households {
		agg, err := s.fetchAggregate(ctx, ref.ID)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("household_id", ref.ID).
				Msg("Skipping household, failed to load aggregate")
			skipped++
			continue
		}

		// Households with no holdings have nothing to evaluate
		if len(agg.Holdings) == 0 {
			continue
		}

		alerts = append(alerts, s.evaluator.Evaluate(agg, now)...)
	}

	s.log.Info().
		Int("households", len(households)).
		Int("skipped", skipped).
		Int("alerts", len(alerts)).
		Msg("Portfolio scan completed")

	return alerts, nil
}

// GetComplianceStats runs a full scan and reduces it to summary counts.
// Stats are never cached; callers pay the full scan cost on every request.
func (s *Service) GetComplianceStats(ctx context.Context, advisorID *string) (Stats, error) {
	alerts, err := s.ScanAdvisorPortfolios(ctx, advisorID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(alerts, s.now()), nil
}

// GetHouseholdAlerts returns the alerts for one household. It runs a full
// unfiltered scan and filters the result here rather than pushing the
// filter down to the data layer.
func (s *Service) GetHouseholdAlerts(ctx context.Context, householdID string) ([]Alert, error) {
	alerts, err := s.ScanAdvisorPortfolios(ctx, nil)
	if err != nil {
		return nil, err
	}

	var filtered []Alert
	for _, alert := range alerts {
		if alert.HouseholdID == householdID {
			filtered = append(filtered, alert)
		}
	}
	return filtered, nil
}

// ListAdvisors exposes the reader's advisor listing to the scan job
func (s *Service) ListAdvisors(ctx context.Context) ([]domain.AdvisorRef, error) {
	advisors, err := s.reader.ListAdvisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("data source unavailable: %w", err)
	}
	return advisors, nil
}

func (s *Service) listHouseholds(ctx context.Context, advisorID *string) ([]domain.HouseholdRef, error) {
	ctx, cancel := context.WithTimeout(ctx, readerTimeout)
	defer cancel()
	return s.reader.ListHouseholds(ctx, advisorID)
}

func (s *Service) fetchAggregate(ctx context.Context, householdID string) (*domain.PortfolioAggregate, error) {
	ctx, cancel := context.WithTimeout(ctx, readerTimeout)
	defer cancel()

	agg, err := s.reader.GetAggregate(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, fmt.Errorf("no aggregate for household %s", householdID)
	}
	return agg, nil
}
