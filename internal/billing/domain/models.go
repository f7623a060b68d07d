// Package domain defines the billing write and read path contracts: the
// checkout orchestrator and the subscription info resolver.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ventrahq/ventra/internal/payment/stripe"
)

var (
	ErrInvalidPrice = errors.New("invalid_price")
	ErrOrgNotFound  = errors.New("organization_not_found")
)

// CurrencyMismatchError is returned when a plan change requests a price
// denominated in a different currency than the active subscription.
// Currency changes require an explicit cancel-and-restart, never a silent
// conversion, so both currencies travel up to the caller.
type CurrencyMismatchError struct {
	Current   string
	Requested string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: subscription is %s, requested price is %s", e.Current, e.Requested)
}

// CheckoutResultType discriminates the two write-path outcomes.
type CheckoutResultType string

const (
	ResultCheckoutSession     CheckoutResultType = "checkout_session"
	ResultSubscriptionUpdated CheckoutResultType = "subscription_updated"
)

type CheckoutRequest struct {
	OrganizationID snowflake.ID
	UserID         snowflake.ID
	PriceID        string
}

type CheckoutResult struct {
	Type CheckoutResultType `json:"type"`

	// Set when Type == checkout_session.
	SessionID string `json:"sessionId,omitempty"`
	URL       string `json:"url,omitempty"`

	// Set when Type == subscription_updated.
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Message        string `json:"message,omitempty"`
	RedirectURL    string `json:"redirectUrl,omitempty"`
}

// SubscriptionInfo is the best-known current billing truth for an
// organization.
type SubscriptionInfo struct {
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	Interval          string     `json:"interval,omitempty"`
	PriceID           string     `json:"priceId,omitempty"`
}

// Service is the billing core. Checkout is the write path and propagates
// typed errors; SubscriptionInfo is the read path and is total, degrading
// to the last persisted state instead of failing.
type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
	SubscriptionInfo(ctx context.Context, orgID snowflake.ID) SubscriptionInfo
}

// Provider is the slice of the payment provider API the billing core
// consumes.
type Provider interface {
	CreateCustomer(ctx context.Context, orgID, name, email string) (stripe.Customer, error)
	ListActiveSubscriptions(ctx context.Context, customerID string) ([]stripe.Subscription, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (stripe.Subscription, error)
	UpdateSubscriptionItem(ctx context.Context, subscriptionID, itemID, priceID string) (stripe.Subscription, error)
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error)
	RetrievePrice(ctx context.Context, priceID string) (stripe.Price, error)
}

// Authorizer gates billing calls: mutations need a billing-capable role,
// reads need an active membership.
type Authorizer interface {
	RequireBilling(ctx context.Context, orgID, userID snowflake.ID) error
	RequireMember(ctx context.Context, orgID, userID snowflake.ID) error
}
