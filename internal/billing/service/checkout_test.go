package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ventrahq/ventra/internal/authorization"
	billingdomain "github.com/ventrahq/ventra/internal/billing/domain"
	"github.com/ventrahq/ventra/internal/clock"
	"github.com/ventrahq/ventra/internal/config"
	orgdomain "github.com/ventrahq/ventra/internal/organization/domain"
	orgrepository "github.com/ventrahq/ventra/internal/organization/repository"
	"github.com/ventrahq/ventra/internal/payment/stripe"
	"github.com/ventrahq/ventra/internal/plan"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fake provider

type subscriptionUpdate struct {
	SubscriptionID string
	ItemID         string
	PriceID        string
}

type fakeProvider struct {
	customerSeq      int
	createdCustomers []stripe.Customer
	activeSubs       []stripe.Subscription
	prices           map[string]stripe.Price

	sessions []stripe.CheckoutSessionParams
	updates  []subscriptionUpdate

	createCustomerErr error
	listErr           error
	retrieveErr       error
	updateErr         error

	listCalls     int
	retrieveCalls int
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, orgID, name, email string) (stripe.Customer, error) {
	if f.createCustomerErr != nil {
		return stripe.Customer{}, f.createCustomerErr
	}
	f.customerSeq++
	customer := stripe.Customer{ID: "cus_" + orgID + "_" + strconv.Itoa(f.customerSeq), Name: name, Email: email}
	f.createdCustomers = append(f.createdCustomers, customer)
	return customer, nil
}

func (f *fakeProvider) ListActiveSubscriptions(ctx context.Context, customerID string) ([]stripe.Subscription, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.activeSubs, nil
}

func (f *fakeProvider) RetrieveSubscription(ctx context.Context, subscriptionID string) (stripe.Subscription, error) {
	f.retrieveCalls++
	if f.retrieveErr != nil {
		return stripe.Subscription{}, f.retrieveErr
	}
	for _, sub := range f.activeSubs {
		if sub.ID == subscriptionID {
			return sub, nil
		}
	}
	return stripe.Subscription{}, stripe.ErrNotFound
}

func (f *fakeProvider) UpdateSubscriptionItem(ctx context.Context, subscriptionID, itemID, priceID string) (stripe.Subscription, error) {
	if f.updateErr != nil {
		return stripe.Subscription{}, f.updateErr
	}
	f.updates = append(f.updates, subscriptionUpdate{subscriptionID, itemID, priceID})
	for i, sub := range f.activeSubs {
		if sub.ID != subscriptionID {
			continue
		}
		price, ok := f.prices[priceID]
		if ok && len(sub.Items.Data) > 0 {
			f.activeSubs[i].Items.Data[0].Price = price
		}
		return f.activeSubs[i], nil
	}
	return stripe.Subscription{}, stripe.ErrNotFound
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error) {
	f.sessions = append(f.sessions, params)
	return stripe.CheckoutSession{
		ID:  "cs_test_1",
		URL: "https://checkout.provider.test/c/cs_test_1",
	}, nil
}

func (f *fakeProvider) RetrievePrice(ctx context.Context, priceID string) (stripe.Price, error) {
	price, ok := f.prices[priceID]
	if !ok {
		return stripe.Price{}, stripe.ErrNotFound
	}
	return price, nil
}

// Test fixture

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	orgs     orgdomain.Repository
	provider *fakeProvider
	svc      billingdomain.Service
}

func testPlanCatalog() *plan.Catalog {
	return plan.NewCatalog([]plan.Definition{
		{ID: plan.Free, Name: "Free", Limits: plan.Limits{MaxCustomers: 10}},
		{
			ID:   plan.Pro,
			Name: "Pro",
			Prices: []plan.Price{
				{ID: "price_pro_monthly_try", Currency: "try", UnitAmount: 59900, Interval: plan.Month},
				{ID: "price_pro_yearly_try", Currency: "try", UnitAmount: 599000, Interval: plan.Year},
			},
			Features:  plan.Features{APIAccess: true},
			Limits:    plan.Limits{MaxCustomers: plan.Unlimited},
			TrialDays: 14,
		},
	})
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orgdomain.Organization{}, &orgdomain.Member{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	orgs := orgrepository.Provide(db)
	gate := authorization.NewGate(authorization.GateParam{Log: zap.NewNop(), Orgs: orgs})
	provider := &fakeProvider{
		prices: map[string]stripe.Price{
			"price_pro_monthly_try": {ID: "price_pro_monthly_try", Currency: "try", UnitAmount: 59900, Recurring: stripe.Recurring{Interval: "month"}},
			"price_pro_yearly_try":  {ID: "price_pro_yearly_try", Currency: "try", UnitAmount: 599000, Recurring: stripe.Recurring{Interval: "year"}},
			"price_pro_monthly_usd": {ID: "price_pro_monthly_usd", Currency: "usd", UnitAmount: 1900, Recurring: stripe.Recurring{Interval: "month"}},
		},
	}

	cfg := config.Config{}
	cfg.Billing.CheckoutSuccessURL = "https://app.test/billing?checkout=success"
	cfg.Billing.CheckoutCancelURL = "https://app.test/billing?checkout=canceled"
	cfg.Billing.BillingPortalURL = "https://app.test/billing"

	svc := NewService(ServiceParam{
		Log:      zap.NewNop(),
		Cfg:      cfg,
		Clock:    clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)),
		Catalog:  testPlanCatalog(),
		Orgs:     orgs,
		Provider: provider,
		Gate:     gate,
	})

	return &fixture{db: db, node: node, orgs: orgs, provider: provider, svc: svc}
}

func (f *fixture) createOrg(t *testing.T, mutate func(*orgdomain.Organization)) *orgdomain.Organization {
	t.Helper()
	org := &orgdomain.Organization{
		ID:                 f.node.Generate(),
		Name:               "Acme Ltd",
		Slug:               "acme-" + f.node.Generate().String(),
		SubscriptionPlan:   string(plan.Free),
		SubscriptionStatus: orgdomain.SubscriptionStatusNone,
		BillingCurrency:    "try",
		BillingEmail:       "billing@acme.test",
	}
	if mutate != nil {
		mutate(org)
	}
	require.NoError(t, f.db.Create(org).Error)
	return org
}

func (f *fixture) addMember(t *testing.T, orgID snowflake.ID, role string, status orgdomain.MemberStatus) snowflake.ID {
	t.Helper()
	userID := f.node.Generate()
	require.NoError(t, f.db.Create(&orgdomain.Member{
		ID:     f.node.Generate(),
		OrgID:  orgID,
		UserID: userID,
		Role:   role,
		Status: status,
	}).Error)
	return userID
}

func (f *fixture) reload(t *testing.T, id snowflake.ID) *orgdomain.Organization {
	t.Helper()
	org, err := f.orgs.FindByID(context.Background(), id)
	require.NoError(t, err)
	return org
}

// Tests

func TestCheckoutCreatesSessionWithTrial(t *testing.T) {
	f := setup(t)
	org := f.createOrg(t, nil)
	owner := f.addMember(t, org.ID, "owner", orgdomain.MemberStatusActive)

	result, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		UserID:         owner,
		PriceID:        "price_pro_monthly_try",
	})
	require.NoError(t, err)

	assert.Equal(t, billingdomain.ResultCheckoutSession, result.Type)
	assert.NotEmpty(t, result.URL)
	assert.NotEmpty(t, result.SessionID)

	require.Len(t, f.provider.sessions, 1)
	session := f.provider.sessions[0]
	assert.Equal(t, 14, session.TrialDays)
	assert.Equal(t, "price_pro_monthly_try", session.PriceID)
	assert.Equal(t, org.ID.String(), session.Metadata["organization_id"])

	// The customer id is cached; everything else converges later via the
	// resolver or the provider webhook.
	after := f.reload(t, org.ID)
	require.NotNil(t, after.ProviderCustomerID)
	assert.NotEmpty(t, *after.ProviderCustomerID)
	assert.False(t, after.IsTrialUsed)
	assert.Equal(t, string(plan.Free), after.SubscriptionPlan)
	assert.Nil(t, after.ProviderSubscriptionID)
}

func TestCheckoutSkipsTrialWhenAlreadyUsed(t *testing.T) {
	f := setup(t)
	org := f.createOrg(t, func(o *orgdomain.Organization) {
		o.IsTrialUsed = true
	})
	owner := f.addMember(t, org.ID, "owner", orgdomain.MemberStatusActive)

	_, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		UserID:         owner,
		PriceID:        "price_pro_monthly_try",
	})
	require.NoError(t, err)

	require.Len(t, f.provider.sessions, 1)
	assert.Zero(t, f.provider.sessions[0].TrialDays)
}

func TestCheckoutCreatesCustomerOnce(t *testing.T) {
	f := setup(t)
	org := f.createOrg(t, nil)
	owner := f.addMember(t, org.ID, "owner", orgdomain.MemberStatusActive)

	req := billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		UserID:         owner,
		PriceID:        "price_pro_monthly_try",
	}

	_, err := f.svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	_, err = f.svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, f.provider.createdCustomers, 1)
}

func TestCheckoutAuthorization(t *testing.T) {
	f := setup(t)
	org := f.createOrg(t, nil)

	member := f.addMember(t, org.ID, "member", orgdomain.MemberStatusActive)
	viewer := f.addMember(t, org.ID, "viewer", orgdomain.MemberStatusActive)
	pendingAdmin := f.addMember(t, org.ID, "admin", orgdomain.MemberStatusPending)
	stranger := f.node.Generate()

	for name, userID := range map[string]snowflake.ID{
		"member":        member,
		"viewer":        viewer,
		"pending admin": pendingAdmin,
		"non-member":    stranger,
	} {
		_, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
			OrganizationID: org.ID,
			UserID:         userID,
			PriceID:        "price_pro_monthly_try",
		})
		assert.ErrorIs(t, err, authorization.ErrPermissionDenied, name)
	}

	_, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		PriceID:        "price_pro_monthly_try",
	})
	assert.ErrorIs(t, err, authorization.ErrUnauthorized)

	// Nothing reached the provider.
	assert.Empty(t, f.provider.createdCustomers)
	assert.Empty(t, f.provider.sessions)
}

func TestCheckoutUnknownPrice(t *testing.T) {
	f := setup(t)
	org := f.createOrg(t, nil)
	owner := f.addMember(t, org.ID, "owner", orgdomain.MemberStatusActive)

	_, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		UserID:         owner,
		PriceID:        "price_nonexistent",
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidPrice)
}

func TestCheckoutUnknownOrganization(t *testing.T) {
	f := setup(t)
	// Membership exists but the organization row does not.
	orgID := f.node.Generate()
	userID := f.addMember(t, orgID, "owner", orgdomain.MemberStatusActive)

	_, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: orgID,
		UserID:         userID,
		PriceID:        "price_pro_monthly_try",
	})
	assert.ErrorIs(t, err, billingdomain.ErrOrgNotFound)
}

func TestCheckoutCurrencyMismatchLeavesStateUntouched(t *testing.T) {
	f := setup(t)
	customerID := "cus_existing"
	subID := "sub_1"
	org := f.createOrg(t, func(o *orgdomain.Organization) {
		o.ProviderCustomerID = &customerID
		o.ProviderSubscriptionID = &subID
		o.SubscriptionPlan = string(plan.Pro)
		o.SubscriptionStatus = orgdomain.SubscriptionStatusActive
		o.BillingCurrency = "usd"
		o.IsTrialUsed = true
	})
	owner := f.addMember(t, org.ID, "owner", orgdomain.MemberStatusActive)

	f.provider.activeSubs = []stripe.Subscription{{
		ID:       subID,
		Status:   "active",
		Currency: "usd",
		Items:    subscriptionItems("si_1", f.provider.prices["price_pro_monthly_usd"]),
	}}

	_, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		UserID:         owner,
		PriceID:        "price_pro_yearly_try",
	})

	var mismatch *billingdomain.CurrencyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "usd", mismatch.Current)
	assert.Equal(t, "try", mismatch.Requested)

	// No mutation happened: no update call, no session, row unchanged.
	assert.Empty(t, f.provider.updates)
	assert.Empty(t, f.provider.sessions)
	after := f.reload(t, org.ID)
	assert.Equal(t, string(plan.Pro), after.SubscriptionPlan)
	assert.Equal(t, "usd", after.BillingCurrency)
}

func TestCheckoutUpdatesExistingSubscriptionInPlace(t *testing.T) {
	f := setup(t)
	customerID := "cus_existing"
	org := f.createOrg(t, func(o *orgdomain.Organization) {
		o.ProviderCustomerID = &customerID
		o.IsTrialUsed = true
	})
	owner := f.addMember(t, org.ID, "owner", orgdomain.MemberStatusActive)

	f.provider.activeSubs = []stripe.Subscription{{
		ID:       "sub_1",
		Status:   "active",
		Currency: "try",
		Items:    subscriptionItems("si_1", f.provider.prices["price_pro_monthly_try"]),
	}}

	result, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		UserID:         owner,
		PriceID:        "price_pro_yearly_try",
	})
	require.NoError(t, err)

	assert.Equal(t, billingdomain.ResultSubscriptionUpdated, result.Type)
	assert.Equal(t, "sub_1", result.SubscriptionID)
	assert.NotEmpty(t, result.Message)
	assert.NotEmpty(t, result.RedirectURL)

	// The same subscription was adjusted; no checkout session and no
	// second subscription.
	require.Len(t, f.provider.updates, 1)
	assert.Equal(t, subscriptionUpdate{"sub_1", "si_1", "price_pro_yearly_try"}, f.provider.updates[0])
	assert.Empty(t, f.provider.sessions)
}

func TestCheckoutProviderTimeoutPropagates(t *testing.T) {
	f := setup(t)
	customerID := "cus_existing"
	org := f.createOrg(t, func(o *orgdomain.Organization) {
		o.ProviderCustomerID = &customerID
	})
	owner := f.addMember(t, org.ID, "owner", orgdomain.MemberStatusActive)

	f.provider.listErr = stripe.ErrTimeout

	_, err := f.svc.Checkout(context.Background(), billingdomain.CheckoutRequest{
		OrganizationID: org.ID,
		UserID:         owner,
		PriceID:        "price_pro_monthly_try",
	})
	assert.ErrorIs(t, err, stripe.ErrTimeout)
	assert.Empty(t, f.provider.sessions)
	assert.Empty(t, f.provider.updates)
}

func subscriptionItems(itemID string, price stripe.Price) stripe.SubscriptionItemList {
	return stripe.SubscriptionItemList{
		Data: []stripe.SubscriptionItem{{ID: itemID, Price: price}},
	}
}
