package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ventrahq/ventra/internal/organization/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repo) SetProviderCustomerID(ctx context.Context, id snowflake.ID, customerID string) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.Organization{}).
		Where("id = ? AND provider_customer_id IS NULL", id).
		Updates(map[string]any{
			"provider_customer_id": customerID,
			"updated_at":           time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	// Zero rows means a concurrent call already cached an id; the caller
	// re-reads and uses whichever won.
	return nil
}

func (r *repo) UpdateBillingState(ctx context.Context, id snowflake.ID, state domain.BillingState) error {
	updates := map[string]any{
		"subscription_plan":        state.Plan,
		"subscription_status":      state.Status,
		"current_period_end":       state.CurrentPeriodEnd,
		"cancel_at_period_end":     state.CancelAtPeriodEnd,
		"provider_subscription_id": state.SubscriptionID,
		"provider_price_id":        state.PriceID,
		"billing_interval":         state.Interval,
		"trial_ends_at":            state.TrialEndsAt,
		"updated_at":               time.Now().UTC(),
	}
	if state.Currency != "" {
		updates["billing_currency"] = state.Currency
	}
	if state.Features != nil {
		updates["features"] = datatypes.JSONMap(state.Features)
	}
	if state.UsageLimits != nil {
		updates["usage_limits"] = datatypes.JSONMap(state.UsageLimits)
	}

	tx := r.db.WithContext(ctx).
		Model(&domain.Organization{}).
		Where("id = ?", id).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) MarkTrialUsed(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Organization{}).
		Where("id = ? AND is_trial_used = ?", id, false).
		Updates(map[string]any{
			"is_trial_used": true,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *repo) FindMember(ctx context.Context, orgID, userID snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).
		First(&member, "org_id = ? AND user_id = ?", orgID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) AddMember(ctx context.Context, member *domain.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}
