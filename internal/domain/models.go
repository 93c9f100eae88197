// Package domain provides core domain models and types.
package domain

import "time"

// RiskTolerance represents a household's declared risk tolerance
type RiskTolerance string

const (
	RiskToleranceConservative RiskTolerance = "conservative"
	RiskToleranceModerate     RiskTolerance = "moderate"
	RiskToleranceAggressive   RiskTolerance = "aggressive"
)

// AssetClassEquity is the asset class value that counts toward equity exposure
const AssetClassEquity = "equity"

// Holding represents a single position within a household's portfolio.
// Optional fields from the data layer are pointers; the reader boundary is
// responsible for normalization, rule evaluation never sees raw rows.
type Holding struct {
	Ticker            string   `json:"ticker"`
	CompanyName       *string  `json:"company_name,omitempty"`
	CurrentValue      float64  `json:"current_value"`
	AssetClass        *string  `json:"asset_class,omitempty"`
	Sector            *string  `json:"sector,omitempty"`
	Shares            float64  `json:"shares"`
	CostBasisPerShare *float64 `json:"cost_basis_per_share,omitempty"`
}

// CostBasis returns the total cost of the holding, or 0 if the cost basis is unknown
func (h Holding) CostBasis() float64 {
	if h.CostBasisPerShare == nil {
		return 0
	}
	return h.Shares * *h.CostBasisPerShare
}

// IsEquity reports whether the holding counts toward equity exposure
func (h Holding) IsEquity() bool {
	return h.AssetClass != nil && *h.AssetClass == AssetClassEquity
}

// PortfolioAggregate is one household's portfolio plus the metadata the
// compliance rules need. It is a read-only snapshot supplied by the reader.
type PortfolioAggregate struct {
	HouseholdID    string        `json:"household_id"`
	HouseholdName  string        `json:"household_name"`
	AdvisorID      string        `json:"advisor_id"`
	AdvisorName    string        `json:"advisor_name"`
	RiskTolerance  RiskTolerance `json:"risk_tolerance"`
	LastReviewDate *time.Time    `json:"last_review_date,omitempty"`
	Holdings       []Holding     `json:"holdings"`
}

// TotalValue returns the sum of all holding values
func (p PortfolioAggregate) TotalValue() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.CurrentValue
	}
	return total
}

// EquityValue returns the sum of equity holding values
func (p PortfolioAggregate) EquityValue() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		if h.IsEquity() {
			total += h.CurrentValue
		}
	}
	return total
}

// HouseholdRef is a lightweight household listing row
type HouseholdRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AdvisorID string `json:"advisor_id"`
}

// AdvisorRef is a lightweight advisor listing row
type AdvisorRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
