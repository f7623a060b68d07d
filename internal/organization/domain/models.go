// Package domain contains persistence models for organizations and their
// cached billing state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus mirrors the provider-side subscription lifecycle as
// last observed for an organization.
type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = "none"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Organization represents a tenant. The provider_* columns and the
// subscription fields are a cache of the billing provider's state; the
// provider remains the source of truth for anything it also holds.
type Organization struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Slug         string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	BillingEmail string       `gorm:"type:text;column:billing_email" json:"billing_email"`

	SubscriptionPlan   string             `gorm:"type:text;not null;default:'free';column:subscription_plan" json:"subscription_plan"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:text;not null;default:'none';column:subscription_status" json:"subscription_status"`
	CurrentPeriodEnd   *time.Time         `gorm:"column:current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd  bool               `gorm:"not null;default:false;column:cancel_at_period_end" json:"cancel_at_period_end"`

	ProviderCustomerID     *string `gorm:"type:text;column:provider_customer_id;index" json:"provider_customer_id"`
	ProviderSubscriptionID *string `gorm:"type:text;column:provider_subscription_id" json:"provider_subscription_id"`
	ProviderPriceID        *string `gorm:"type:text;column:provider_price_id" json:"provider_price_id"`

	BillingInterval *string `gorm:"type:text;column:billing_interval" json:"billing_interval"`
	BillingCurrency string  `gorm:"type:text;not null;default:'try';column:billing_currency" json:"billing_currency"`

	TrialEndsAt *time.Time `gorm:"column:trial_ends_at" json:"trial_ends_at"`
	IsTrialUsed bool       `gorm:"not null;default:false;column:is_trial_used" json:"is_trial_used"`

	Features    datatypes.JSONMap `gorm:"type:jsonb" json:"features"`
	UsageLimits datatypes.JSONMap `gorm:"type:jsonb" json:"usage_limits"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// MemberStatus is the membership lifecycle state.
type MemberStatus string

const (
	MemberStatusActive      MemberStatus = "active"
	MemberStatusPending     MemberStatus = "pending"
	MemberStatusDeactivated MemberStatus = "deactivated"
)

// Member represents membership of a user in an organization.
type Member struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_member,priority:1" json:"org_id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_member,priority:2" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	Status    MemberStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "organization_members" }
