// Package billing abstracts the purchase flow behind a small provider
// interface. The core only ever consumes the resulting entitlement flag and
// never inspects purchase internals. Tokens handed out here are opaque; a
// production deployment must verify them against the platform's billing
// service before trusting them, which no provider in this package does.
package billing

import "context"

// Purchase states.
const (
	StatePurchased = "purchased"
	StateCancelled = "cancelled"
)

// Purchase is the outcome of one purchase attempt. Token is set only when
// State is StatePurchased.
type Purchase struct {
	Token string
	State string
}

// Provider runs the platform purchase flow.
type Provider interface {
	// PurchasePremium starts a purchase. A user backing out is reported
	// as StateCancelled, not as an error.
	PurchasePremium(ctx context.Context) (Purchase, error)
	// ListExistingPurchases returns tokens from past purchases, used to
	// restore the entitlement on a fresh install.
	ListExistingPurchases(ctx context.Context) ([]string, error)
}
