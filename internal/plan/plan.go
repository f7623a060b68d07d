// Package plan holds the static plan catalog: billable prices, feature
// flags and usage quotas per subscription tier. Pure lookups, no I/O.
package plan

import "errors"

// ID identifies a subscription tier.
type ID string

const (
	Free       ID = "free"
	Starter    ID = "starter"
	Pro        ID = "pro"
	Enterprise ID = "enterprise"
)

// Interval is a billing period length.
type Interval string

const (
	Month Interval = "month"
	Year  Interval = "year"
)

// Price is one billable SKU: a plan, an interval and a currency.
type Price struct {
	ID         string
	Currency   string
	UnitAmount int64
	Interval   Interval
}

// Features lists the capability flags bundled with a plan.
type Features struct {
	SMTP              bool `json:"smtp"`
	RemoveBranding    bool `json:"removeBranding"`
	APIAccess         bool `json:"apiAccess"`
	PrioritySupport   bool `json:"prioritySupport"`
	CustomDomain      bool `json:"customDomain"`
	WhiteLabel        bool `json:"whiteLabel"`
	AdvancedAnalytics bool `json:"advancedAnalytics"`
}

// Unlimited marks a quota with no upper bound.
const Unlimited = -1

// LimitKey names a countable usage quota.
type LimitKey string

const (
	LimitMaxOrganizations LimitKey = "maxOrganizations"
	LimitMaxUsers         LimitKey = "maxUsers"
	LimitMaxProjects      LimitKey = "maxProjects"
	LimitMaxCustomers     LimitKey = "maxCustomers"
	LimitMaxProposals     LimitKey = "maxProposals"
)

// Limits carries the usage quotas of a plan, Unlimited meaning no cap.
type Limits struct {
	MaxOrganizations int `json:"maxOrganizations"`
	MaxUsers         int `json:"maxUsers"`
	MaxProjects      int `json:"maxProjects"`
	MaxCustomers     int `json:"maxCustomers"`
	MaxProposals     int `json:"maxProposals"`
}

// Get returns the quota for key, false when the key is unknown.
func (l Limits) Get(key LimitKey) (int, bool) {
	switch key {
	case LimitMaxOrganizations:
		return l.MaxOrganizations, true
	case LimitMaxUsers:
		return l.MaxUsers, true
	case LimitMaxProjects:
		return l.MaxProjects, true
	case LimitMaxCustomers:
		return l.MaxCustomers, true
	case LimitMaxProposals:
		return l.MaxProposals, true
	default:
		return 0, false
	}
}

// Definition is one immutable catalog entry.
type Definition struct {
	ID        ID
	Name      string
	Prices    []Price
	Features  Features
	Limits    Limits
	TrialDays int
}

var (
	ErrUnknownPlan  = errors.New("unknown_plan")
	ErrUnknownPrice = errors.New("unknown_price")
)
