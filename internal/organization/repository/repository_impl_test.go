package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ventrahq/ventra/internal/organization/domain"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Organization{}, &domain.Member{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newOrg(t *testing.T, node *snowflake.Node, db *gorm.DB) *domain.Organization {
	t.Helper()
	org := &domain.Organization{
		ID:                 node.Generate(),
		Name:               "Acme Ltd",
		Slug:               "acme-" + node.Generate().String(),
		SubscriptionPlan:   "free",
		SubscriptionStatus: domain.SubscriptionStatusNone,
		BillingCurrency:    "try",
	}
	require.NoError(t, db.Create(org).Error)
	return org
}

func TestSetProviderCustomerIDOnlyWhenNull(t *testing.T) {
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(1)
	r := Provide(db)
	ctx := context.Background()

	org := newOrg(t, node, db)

	require.NoError(t, r.SetProviderCustomerID(ctx, org.ID, "cus_first"))

	// A later write must not replace the cached id.
	require.NoError(t, r.SetProviderCustomerID(ctx, org.ID, "cus_second"))

	got, err := r.FindByID(ctx, org.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProviderCustomerID)
	assert.Equal(t, "cus_first", *got.ProviderCustomerID)
}

func TestMarkTrialUsedIsMonotonic(t *testing.T) {
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(1)
	r := Provide(db)
	ctx := context.Background()

	org := newOrg(t, node, db)
	require.NoError(t, r.MarkTrialUsed(ctx, org.ID))

	got, err := r.FindByID(ctx, org.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTrialUsed)

	// Marking again is a no-op and never flips the flag back.
	require.NoError(t, r.MarkTrialUsed(ctx, org.ID))
	got, err = r.FindByID(ctx, org.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTrialUsed)
}

func TestUpdateBillingState(t *testing.T) {
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(1)
	r := Provide(db)
	ctx := context.Background()

	org := newOrg(t, node, db)

	periodEnd := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	subID := "sub_123"
	priceID := "price_pro_monthly"
	interval := "month"

	err := r.UpdateBillingState(ctx, org.ID, domain.BillingState{
		Plan:              "pro",
		Status:            domain.SubscriptionStatusActive,
		CurrentPeriodEnd:  &periodEnd,
		CancelAtPeriodEnd: false,
		SubscriptionID:    &subID,
		PriceID:           &priceID,
		Interval:          &interval,
		Currency:          "try",
		Features:          map[string]any{"apiAccess": true},
		UsageLimits:       map[string]any{"maxCustomers": float64(-1)},
	})
	require.NoError(t, err)

	got, err := r.FindByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", got.SubscriptionPlan)
	assert.Equal(t, domain.SubscriptionStatusActive, got.SubscriptionStatus)
	require.NotNil(t, got.CurrentPeriodEnd)
	assert.True(t, periodEnd.Equal(*got.CurrentPeriodEnd))
	require.NotNil(t, got.ProviderSubscriptionID)
	assert.Equal(t, "sub_123", *got.ProviderSubscriptionID)
	assert.Equal(t, "try", got.BillingCurrency)
	assert.Equal(t, true, got.Features["apiAccess"])
}

func TestUpdateBillingStateUnknownOrg(t *testing.T) {
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(1)
	r := Provide(db)

	err := r.UpdateBillingState(context.Background(), node.Generate(), domain.BillingState{
		Plan:   "free",
		Status: domain.SubscriptionStatusNone,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindMember(t *testing.T) {
	db := setupTestDB(t)
	node, _ := snowflake.NewNode(1)
	r := Provide(db)
	ctx := context.Background()

	org := newOrg(t, node, db)
	userID := node.Generate()

	require.NoError(t, r.AddMember(ctx, &domain.Member{
		ID:     node.Generate(),
		OrgID:  org.ID,
		UserID: userID,
		Role:   "admin",
		Status: domain.MemberStatusActive,
	}))

	member, err := r.FindMember(ctx, org.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "admin", member.Role)

	_, err = r.FindMember(ctx, org.ID, node.Generate())
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}
