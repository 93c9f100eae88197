package crm

import (
	"database/sql"
	"fmt"
)

// Insert helpers used by tests and the dev seed path. The production CRM
// writes these tables itself; the engine only ever reads them.

// InsertAdvisor inserts an advisor row
func InsertAdvisor(db *sql.DB, a Advisor) error {
	_, err := db.Exec("INSERT INTO advisors (id, name, email) VALUES (?, ?, ?)", a.ID, a.Name, a.Email)
	if err != nil {
		return fmt.Errorf("failed to insert advisor %s: %w", a.ID, err)
	}
	return nil
}

// InsertHousehold inserts a household row
func InsertHousehold(db *sql.DB, h Household) error {
	_, err := db.Exec(`
		INSERT INTO households (id, name, advisor_id, risk_tolerance, last_review_date)
		VALUES (?, ?, ?, ?, ?)
	`, h.ID, h.Name, h.AdvisorID, h.RiskTolerance, h.LastReviewUnix)
	if err != nil {
		return fmt.Errorf("failed to insert household %s: %w", h.ID, err)
	}
	return nil
}

// InsertAccount inserts an account row
func InsertAccount(db *sql.DB, a Account) error {
	_, err := db.Exec("INSERT INTO accounts (id, household_id, name) VALUES (?, ?, ?)",
		a.ID, a.HouseholdID, a.Name)
	if err != nil {
		return fmt.Errorf("failed to insert account %s: %w", a.ID, err)
	}
	return nil
}

// InsertHolding inserts a holding row
func InsertHolding(db *sql.DB, h Holding) error {
	_, err := db.Exec(`
		INSERT INTO holdings (account_id, ticker, company_name, current_value,
		                      asset_class, sector, shares, cost_basis_per_share)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, h.AccountID, h.Ticker, h.CompanyName, h.CurrentValue, h.AssetClass, h.Sector, h.Shares, h.CostBasisPerShare)
	if err != nil {
		return fmt.Errorf("failed to insert holding %s: %w", h.Ticker, err)
	}
	return nil
}
