package stripe

import "time"

// Explicit result structs for every provider response this service reads.
// Field access stays compile-checked and schema drift fails loudly in
// decoding instead of silently downstream.

// Customer is the provider-side billable party.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Recurring describes the billing cadence of a price.
type Recurring struct {
	Interval string `json:"interval"`
}

// Price is one billable SKU at the provider.
type Price struct {
	ID         string    `json:"id"`
	Currency   string    `json:"currency"`
	UnitAmount int64     `json:"unit_amount"`
	Recurring  Recurring `json:"recurring"`
}

// SubscriptionItem is a single line of a subscription. This service keeps
// exactly one item per subscription.
type SubscriptionItem struct {
	ID    string `json:"id"`
	Price Price  `json:"price"`
}

// SubscriptionItemList wraps the provider's list envelope for items.
type SubscriptionItemList struct {
	Data []SubscriptionItem `json:"data"`
}

// Subscription is the provider-side recurring billing object.
type Subscription struct {
	ID                string               `json:"id"`
	Status            string               `json:"status"`
	Currency          string               `json:"currency"`
	CancelAtPeriodEnd bool                 `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64                `json:"current_period_end"`
	TrialEnd          int64                `json:"trial_end"`
	Items             SubscriptionItemList `json:"items"`
}

// PeriodEnd converts the provider's unix timestamp, zero time when unset.
func (s Subscription) PeriodEnd() time.Time {
	if s.CurrentPeriodEnd <= 0 {
		return time.Time{}
	}
	return time.Unix(s.CurrentPeriodEnd, 0).UTC()
}

// TrialEndsAt converts the provider's trial end, zero time when unset.
func (s Subscription) TrialEndsAt() time.Time {
	if s.TrialEnd <= 0 {
		return time.Time{}
	}
	return time.Unix(s.TrialEnd, 0).UTC()
}

// FirstItem returns the subscription's single line item.
func (s Subscription) FirstItem() (SubscriptionItem, bool) {
	if len(s.Items.Data) == 0 {
		return SubscriptionItem{}, false
	}
	return s.Items.Data[0], true
}

// CheckoutSession is the provider-hosted flow for first-time subscription
// creation.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type subscriptionList struct {
	Data []Subscription `json:"data"`
}
