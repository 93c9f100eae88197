package domain

import "context"

// PortfolioReader supplies household portfolio aggregates to the compliance
// engine. The engine treats it as a read-only, possibly cached data source.
// This interface breaks the dependency between the compliance module and the
// crm storage package, and lets tests substitute in-memory fixtures.
type PortfolioReader interface {
	// ListAdvisors returns all advisors known to the CRM
	ListAdvisors(ctx context.Context) ([]AdvisorRef, error)

	// ListHouseholds returns households, optionally filtered to one advisor.
	// A nil advisorID means all households across all advisors.
	ListHouseholds(ctx context.Context, advisorID *string) ([]HouseholdRef, error)

	// GetAggregate returns the portfolio aggregate for one household
	GetAggregate(ctx context.Context, householdID string) (*PortfolioAggregate, error)
}

// Notifier delivers a rendered message to a recipient. The transport behind
// it (log, email, SMS) is an infrastructure concern; failures are returned
// to the caller and handled per recipient.
type Notifier interface {
	Send(ctx context.Context, recipient, title, body string) error
}
