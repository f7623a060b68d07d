package service

import (
	"context"
	"errors"
	"strings"

	billingdomain "github.com/ventrahq/ventra/internal/billing/domain"
	"github.com/ventrahq/ventra/internal/clock"
	"github.com/ventrahq/ventra/internal/config"
	orgdomain "github.com/ventrahq/ventra/internal/organization/domain"
	"github.com/ventrahq/ventra/internal/payment/stripe"
	"github.com/ventrahq/ventra/internal/plan"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	cfg      config.BillingConfig
	clock    clock.Clock
	catalog  *plan.Catalog
	orgs     orgdomain.Repository
	provider billingdomain.Provider
	gate     billingdomain.Authorizer
}

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	Catalog  *plan.Catalog
	Orgs     orgdomain.Repository
	Provider billingdomain.Provider
	Gate     billingdomain.Authorizer
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		log:      p.Log.Named("billing.service"),
		cfg:      p.Cfg.Billing,
		clock:    p.Clock,
		catalog:  p.Catalog,
		orgs:     p.Orgs,
		provider: p.Provider,
		gate:     p.Gate,
	}
}

// Checkout decides between creating a new subscription through a hosted
// checkout session and updating the existing subscription in place. The
// provider is the sole source of truth for "is there an active
// subscription"; the local cache is never consulted for that decision.
func (s *Service) Checkout(ctx context.Context, req billingdomain.CheckoutRequest) (billingdomain.CheckoutResult, error) {
	if err := s.gate.RequireBilling(ctx, req.OrganizationID, req.UserID); err != nil {
		return billingdomain.CheckoutResult{}, err
	}

	org, err := s.orgs.FindByID(ctx, req.OrganizationID)
	if err != nil {
		if errors.Is(err, orgdomain.ErrNotFound) {
			return billingdomain.CheckoutResult{}, billingdomain.ErrOrgNotFound
		}
		return billingdomain.CheckoutResult{}, err
	}

	priceID := strings.TrimSpace(req.PriceID)
	planID, err := s.catalog.PlanForPrice(priceID)
	if err != nil {
		return billingdomain.CheckoutResult{}, billingdomain.ErrInvalidPrice
	}

	customerID, err := s.ensureCustomer(ctx, org)
	if err != nil {
		return billingdomain.CheckoutResult{}, err
	}

	subs, err := s.provider.ListActiveSubscriptions(ctx, customerID)
	if err != nil {
		return billingdomain.CheckoutResult{}, err
	}

	if len(subs) == 0 {
		return s.startCheckout(ctx, org, customerID, planID, priceID)
	}
	return s.changePlan(ctx, subs[0], priceID)
}

// ensureCustomer lazily creates the provider customer and caches its id.
// The cache write only lands when the column is still null, so concurrent
// first-time checkouts converge on one id; a tight race before the first
// write can still create an orphan customer at the provider, which a later
// reconciliation pass can merge.
func (s *Service) ensureCustomer(ctx context.Context, org *orgdomain.Organization) (string, error) {
	if org.ProviderCustomerID != nil && *org.ProviderCustomerID != "" {
		return *org.ProviderCustomerID, nil
	}

	customer, err := s.provider.CreateCustomer(ctx, org.ID.String(), org.Name, org.BillingEmail)
	if err != nil {
		return "", err
	}

	if err := s.orgs.SetProviderCustomerID(ctx, org.ID, customer.ID); err != nil {
		return "", err
	}

	// Re-read to pick up whichever id won a concurrent race.
	fresh, err := s.orgs.FindByID(ctx, org.ID)
	if err != nil {
		return "", err
	}
	if fresh.ProviderCustomerID == nil || *fresh.ProviderCustomerID == "" {
		// Should not happen after a successful write; keep the created id.
		return customer.ID, nil
	}

	org.ProviderCustomerID = fresh.ProviderCustomerID
	return *fresh.ProviderCustomerID, nil
}

// startCheckout opens a provider-hosted checkout session, attaching the
// plan's trial when the organization has never consumed one. Billing
// fields stay untouched here; they converge later through the resolver or
// the provider webhook.
func (s *Service) startCheckout(ctx context.Context, org *orgdomain.Organization, customerID string, planID plan.ID, priceID string) (billingdomain.CheckoutResult, error) {
	trialDays := 0
	if !org.IsTrialUsed {
		trialDays = s.catalog.TrialDays(planID)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: s.cfg.CheckoutSuccessURL,
		CancelURL:  s.cfg.CheckoutCancelURL,
		TrialDays:  trialDays,
		Metadata: map[string]string{
			"organization_id": org.ID.String(),
			"plan":            string(planID),
		},
	})
	if err != nil {
		return billingdomain.CheckoutResult{}, err
	}

	s.log.Info("checkout session created",
		zap.String("org_id", org.ID.String()),
		zap.String("price_id", priceID),
		zap.Int("trial_days", trialDays),
	)

	return billingdomain.CheckoutResult{
		Type:      billingdomain.ResultCheckoutSession,
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// changePlan swaps the active subscription's single line item to the new
// price with prorated billing. The same subscription is adjusted, keeping
// the provider's subscription count per customer at most one.
func (s *Service) changePlan(ctx context.Context, sub stripe.Subscription, priceID string) (billingdomain.CheckoutResult, error) {
	price, err := s.provider.RetrievePrice(ctx, priceID)
	if err != nil {
		return billingdomain.CheckoutResult{}, err
	}

	current := strings.ToLower(sub.Currency)
	requested := strings.ToLower(price.Currency)
	if current != "" && requested != current {
		return billingdomain.CheckoutResult{}, &billingdomain.CurrencyMismatchError{
			Current:   current,
			Requested: requested,
		}
	}

	item, ok := sub.FirstItem()
	if !ok {
		return billingdomain.CheckoutResult{}, &stripe.Error{
			HTTPStatus: 500,
			Code:       "subscription_without_items",
			Message:    "active subscription has no line items",
		}
	}

	updated, err := s.provider.UpdateSubscriptionItem(ctx, sub.ID, item.ID, priceID)
	if err != nil {
		return billingdomain.CheckoutResult{}, err
	}

	s.log.Info("subscription updated in place",
		zap.String("subscription_id", updated.ID),
		zap.String("price_id", priceID),
	)

	return billingdomain.CheckoutResult{
		Type:           billingdomain.ResultSubscriptionUpdated,
		SubscriptionID: updated.ID,
		Message:        "Your subscription has been updated. The change takes effect immediately with prorated billing.",
		RedirectURL:    s.cfg.BillingPortalURL,
	}, nil
}
