package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound       = errors.New("organization_not_found")
	ErrMemberNotFound = errors.New("member_not_found")
)

// BillingState is the set of cached billing columns refreshed together
// when live provider state is observed.
type BillingState struct {
	Plan              string
	Status            SubscriptionStatus
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	SubscriptionID    *string
	PriceID           *string
	Interval          *string
	Currency          string
	TrialEndsAt       *time.Time
	Features          map[string]any
	UsageLimits       map[string]any
}

// Repository persists organizations and memberships. All billing writes
// are single-row updates keyed by organization id.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)

	// SetProviderCustomerID caches a freshly created provider customer id.
	// It only writes when the column is still null, so a concurrent call
	// that lost the race does not clobber the winner.
	SetProviderCustomerID(ctx context.Context, id snowflake.ID, customerID string) error

	// UpdateBillingState writes through the observed provider state.
	UpdateBillingState(ctx context.Context, id snowflake.ID, state BillingState) error

	// MarkTrialUsed flips is_trial_used to true. The flag is monotonic and
	// is never reset.
	MarkTrialUsed(ctx context.Context, id snowflake.ID) error

	FindMember(ctx context.Context, orgID, userID snowflake.ID) (*Member, error)
	AddMember(ctx context.Context, member *Member) error
}
