package crm

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianwm/advisor-sentinel/internal/domain"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(db))
	return db
}

func strPtr(s string) *string { return &s }

func intPtr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

// seedHousehold inserts one advisor, household and account and returns the
// account id for holdings.
func seedHousehold(t *testing.T, db *sql.DB, h Household) string {
	t.Helper()

	require.NoError(t, InsertAdvisor(db, Advisor{ID: h.AdvisorID, Name: "Jane Advisor", Email: "jane@example.com"}))
	require.NoError(t, InsertHousehold(db, h))

	accountID := h.ID + "-acct"
	require.NoError(t, InsertAccount(db, Account{ID: accountID, HouseholdID: h.ID, Name: "Brokerage"}))
	return accountID
}

func TestListAdvisorsOrderedByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, InsertAdvisor(db, Advisor{ID: "adv-2", Name: "Zoe Park", Email: "zoe@example.com"}))
	require.NoError(t, InsertAdvisor(db, Advisor{ID: "adv-1", Name: "Ana Reyes", Email: "ana@example.com"}))

	advisors, err := repo.ListAdvisors(context.Background())
	require.NoError(t, err)
	require.Len(t, advisors, 2)
	assert.Equal(t, "Ana Reyes", advisors[0].Name)
	assert.Equal(t, "Zoe Park", advisors[1].Name)
}

func TestListHouseholdsFilterByAdvisor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, InsertAdvisor(db, Advisor{ID: "adv-1", Name: "Ana Reyes", Email: "ana@example.com"}))
	require.NoError(t, InsertAdvisor(db, Advisor{ID: "adv-2", Name: "Zoe Park", Email: "zoe@example.com"}))
	require.NoError(t, InsertHousehold(db, Household{ID: "hh-1", Name: "Smith Family", AdvisorID: "adv-1"}))
	require.NoError(t, InsertHousehold(db, Household{ID: "hh-2", Name: "Jones Family", AdvisorID: "adv-1"}))
	require.NoError(t, InsertHousehold(db, Household{ID: "hh-3", Name: "Lee Family", AdvisorID: "adv-2"}))

	all, err := repo.ListHouseholds(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	advisorID := "adv-1"
	filtered, err := repo.ListHouseholds(context.Background(), &advisorID)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, h := range filtered {
		assert.Equal(t, "adv-1", h.AdvisorID)
	}
}

func TestGetAggregateAssemblesHoldings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	reviewed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	accountID := seedHousehold(t, db, Household{
		ID: "hh-1", Name: "Smith Family", AdvisorID: "adv-1",
		RiskTolerance:  strPtr("conservative"),
		LastReviewUnix: intPtr(reviewed.Unix()),
	})

	require.NoError(t, InsertHolding(db, Holding{
		AccountID: accountID, Ticker: "AAPL", CompanyName: strPtr("Apple Inc."),
		CurrentValue: 25000, AssetClass: strPtr("equity"), Sector: strPtr("Technology"),
		Shares: 100, CostBasisPerShare: floatPtr(150),
	}))
	require.NoError(t, InsertHolding(db, Holding{
		AccountID: accountID, Ticker: "BND", CurrentValue: 75000, AssetClass: strPtr("bond"), Shares: 1000,
	}))

	agg, err := repo.GetAggregate(context.Background(), "hh-1")
	require.NoError(t, err)

	assert.Equal(t, "Smith Family", agg.HouseholdName)
	assert.Equal(t, "adv-1", agg.AdvisorID)
	assert.Equal(t, "Jane Advisor", agg.AdvisorName)
	assert.Equal(t, domain.RiskToleranceConservative, agg.RiskTolerance)
	require.NotNil(t, agg.LastReviewDate)
	assert.True(t, agg.LastReviewDate.Equal(reviewed))

	require.Len(t, agg.Holdings, 2)
	assert.Equal(t, 100000.0, agg.TotalValue())
	assert.Equal(t, 25000.0, agg.EquityValue())

	var aapl domain.Holding
	for _, h := range agg.Holdings {
		if h.Ticker == "AAPL" {
			aapl = h
		}
	}
	require.NotNil(t, aapl.CompanyName)
	assert.Equal(t, "Apple Inc.", *aapl.CompanyName)
	require.NotNil(t, aapl.CostBasisPerShare)
	assert.Equal(t, 15000.0, aapl.CostBasis())

	// the bond holding never recorded a cost basis
	for _, h := range agg.Holdings {
		if h.Ticker == "BND" {
			assert.Nil(t, h.CostBasisPerShare)
		}
	}
}

func TestGetAggregateDefaultsMissingTolerance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	seedHousehold(t, db, Household{ID: "hh-1", Name: "Smith Family", AdvisorID: "adv-1"})

	agg, err := repo.GetAggregate(context.Background(), "hh-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskToleranceModerate, agg.RiskTolerance)
	assert.Nil(t, agg.LastReviewDate)
	assert.Empty(t, agg.Holdings)
}

func TestGetAggregateNormalizesUnknownTolerance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	seedHousehold(t, db, Household{
		ID: "hh-1", Name: "Smith Family", AdvisorID: "adv-1",
		RiskTolerance: strPtr("yolo"),
	})

	agg, err := repo.GetAggregate(context.Background(), "hh-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskToleranceModerate, agg.RiskTolerance)
}

func TestGetAggregateUnknownHousehold(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.GetAggregate(context.Background(), "hh-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetAggregateRejectsMalformedHolding(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	accountID := seedHousehold(t, db, Household{ID: "hh-1", Name: "Smith Family", AdvisorID: "adv-1"})
	require.NoError(t, InsertHolding(db, Holding{
		AccountID: accountID, Ticker: "AAPL", CurrentValue: -50, AssetClass: strPtr("equity"),
	}))

	_, err := repo.GetAggregate(context.Background(), "hh-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative value")
}
