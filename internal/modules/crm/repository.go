package crm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meridianwm/advisor-sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// Repository reads advisors, households and holdings from crm.db and
// assembles the portfolio aggregates the compliance engine evaluates. It
// implements domain.PortfolioReader.
//
// Validation happens here, at the boundary: malformed rows surface as
// errors on the household they belong to, never as bad data inside rule
// evaluation.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new CRM repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "crm").Logger(),
	}
}

// ListAdvisors returns all advisors
func (r *Repository) ListAdvisors(ctx context.Context) ([]domain.AdvisorRef, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, email FROM advisors ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query advisors: %w", err)
	}
	defer rows.Close()

	var advisors []domain.AdvisorRef
	for rows.Next() {
		var a domain.AdvisorRef
		if err := rows.Scan(&a.ID, &a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("failed to scan advisor: %w", err)
		}
		advisors = append(advisors, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating advisors: %w", err)
	}

	return advisors, nil
}

// ListHouseholds returns households, optionally filtered to one advisor
func (r *Repository) ListHouseholds(ctx context.Context, advisorID *string) ([]domain.HouseholdRef, error) {
	query := "SELECT id, name, advisor_id FROM households"
	var args []interface{}
	if advisorID != nil {
		query += " WHERE advisor_id = ?"
		args = append(args, *advisorID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query households: %w", err)
	}
	defer rows.Close()

	var households []domain.HouseholdRef
	for rows.Next() {
		var h domain.HouseholdRef
		if err := rows.Scan(&h.ID, &h.Name, &h.AdvisorID); err != nil {
			return nil, fmt.Errorf("failed to scan household: %w", err)
		}
		households = append(households, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating households: %w", err)
	}

	return households, nil
}

// GetAggregate assembles the portfolio aggregate for one household:
// household metadata joined with the advisor, plus every holding across the
// household's accounts.
func (r *Repository) GetAggregate(ctx context.Context, householdID string) (*domain.PortfolioAggregate, error) {
	agg := &domain.PortfolioAggregate{HouseholdID: householdID}

	var riskTolerance sql.NullString
	var lastReview sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT h.name, h.advisor_id, a.name, h.risk_tolerance, h.last_review_date
		FROM households h
		JOIN advisors a ON a.id = h.advisor_id
		WHERE h.id = ?
	`, householdID).Scan(&agg.HouseholdName, &agg.AdvisorID, &agg.AdvisorName, &riskTolerance, &lastReview)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("household %s not found", householdID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load household %s: %w", householdID, err)
	}

	agg.RiskTolerance = normalizeRiskTolerance(riskTolerance)
	if lastReview.Valid {
		t := unixTime(lastReview.Int64)
		agg.LastReviewDate = &t
	}

	holdings, err := r.loadHoldings(ctx, householdID)
	if err != nil {
		return nil, err
	}
	agg.Holdings = holdings

	return agg, nil
}

// loadHoldings returns all holdings across the household's accounts
func (r *Repository) loadHoldings(ctx context.Context, householdID string) ([]domain.Holding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hl.ticker, hl.company_name, hl.current_value, hl.asset_class,
		       hl.sector, hl.shares, hl.cost_basis_per_share
		FROM holdings hl
		JOIN accounts ac ON ac.id = hl.account_id
		WHERE ac.household_id = ?
	`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for household %s: %w", householdID, err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		var companyName, assetClass, sector sql.NullString
		var costBasis sql.NullFloat64
		if err := rows.Scan(&h.Ticker, &companyName, &h.CurrentValue, &assetClass,
			&sector, &h.Shares, &costBasis); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		if h.Ticker == "" {
			return nil, fmt.Errorf("malformed holding for household %s: empty ticker", householdID)
		}
		if h.CurrentValue < 0 {
			return nil, fmt.Errorf("malformed holding %s for household %s: negative value", h.Ticker, householdID)
		}

		if companyName.Valid {
			h.CompanyName = &companyName.String
		}
		if assetClass.Valid {
			h.AssetClass = &assetClass.String
		}
		if sector.Valid {
			h.Sector = &sector.String
		}
		if costBasis.Valid {
			h.CostBasisPerShare = &costBasis.Float64
		}

		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// unixTime converts a stored Unix timestamp to UTC time
func unixTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// normalizeRiskTolerance maps the nullable CRM column to a valid tolerance.
// Absent or unrecognized values default to moderate.
func normalizeRiskTolerance(value sql.NullString) domain.RiskTolerance {
	if !value.Valid {
		return domain.RiskToleranceModerate
	}
	switch domain.RiskTolerance(value.String) {
	case domain.RiskToleranceConservative:
		return domain.RiskToleranceConservative
	case domain.RiskToleranceAggressive:
		return domain.RiskToleranceAggressive
	default:
		return domain.RiskToleranceModerate
	}
}
