// Package crm provides the sqlite-backed portfolio data layer: advisors,
// households, accounts and holdings as maintained by the CRM screens. The
// compliance engine consumes it through domain.PortfolioReader.
package crm

// Advisor is a CRM advisor row
type Advisor struct {
	ID    string
	Name  string
	Email string
}

// Household is a CRM household row
type Household struct {
	ID             string
	Name           string
	AdvisorID      string
	RiskTolerance  *string // NULL when the household never declared one
	LastReviewUnix *int64  // NULL when no review on record
}

// Account is a CRM account row, linking holdings to a household
type Account struct {
	ID          string
	HouseholdID string
	Name        string
}

// Holding is a CRM holding row. Nullable columns stay pointers until the
// reader boundary normalizes them.
type Holding struct {
	ID                int64
	AccountID         string
	Ticker            string
	CompanyName       *string
	CurrentValue      float64
	AssetClass        *string
	Sector            *string
	Shares            float64
	CostBasisPerShare *float64
}
