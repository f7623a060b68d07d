package plan

import (
	"github.com/ventrahq/ventra/internal/config"
	"go.uber.org/fx"
)

// Catalog resolves prices, feature flags and quotas for known plans.
type Catalog struct {
	plans   map[ID]Definition
	byPrice map[string]ID
}

// NewCatalog builds a catalog from definitions. Later definitions with the
// same id replace earlier ones; price ids must be unique across plans.
func NewCatalog(defs []Definition) *Catalog {
	c := &Catalog{
		plans:   make(map[ID]Definition, len(defs)),
		byPrice: make(map[string]ID),
	}
	for _, def := range defs {
		c.plans[def.ID] = def
	}
	for id, def := range c.plans {
		for _, price := range def.Prices {
			if price.ID == "" {
				continue
			}
			c.byPrice[price.ID] = id
		}
	}
	return c
}

// Definition returns the catalog entry for a plan.
func (c *Catalog) Definition(id ID) (Definition, error) {
	def, ok := c.plans[id]
	if !ok {
		return Definition{}, ErrUnknownPlan
	}
	return def, nil
}

// PlanForPrice maps a provider price id back to its plan.
func (c *Catalog) PlanForPrice(priceID string) (ID, error) {
	id, ok := c.byPrice[priceID]
	if !ok {
		return "", ErrUnknownPrice
	}
	return id, nil
}

// TrialDays returns the trial length of a plan, 0 when the plan has no
// trial or is unknown.
func (c *Catalog) TrialDays(id ID) int {
	def, ok := c.plans[id]
	if !ok {
		return 0
	}
	return def.TrialDays
}

// Features returns the feature flags of a plan, zero value when unknown.
func (c *Catalog) Features(id ID) Features {
	return c.plans[id].Features
}

// Limits returns the usage quotas of a plan, zero value when unknown.
func (c *Catalog) Limits(id ID) Limits {
	return c.plans[id].Limits
}

// Plans lists all catalog entries in tier order.
func (c *Catalog) Plans() []Definition {
	order := []ID{Free, Starter, Pro, Enterprise}
	out := make([]Definition, 0, len(c.plans))
	for _, id := range order {
		if def, ok := c.plans[id]; ok {
			out = append(out, def)
		}
	}
	for id, def := range c.plans {
		known := false
		for _, o := range order {
			if id == o {
				known = true
				break
			}
		}
		if !known {
			out = append(out, def)
		}
	}
	return out
}

// DefaultCatalog builds the standard four tiers, taking provider price ids
// from config so deployments can point at their own provider account.
func DefaultCatalog(cfg config.Config) *Catalog {
	b := cfg.Billing
	return NewCatalog([]Definition{
		{
			ID:       Free,
			Name:     "Free",
			Features: Features{},
			Limits: Limits{
				MaxOrganizations: 1,
				MaxUsers:         2,
				MaxProjects:      3,
				MaxCustomers:     10,
				MaxProposals:     10,
			},
		},
		{
			ID:   Starter,
			Name: "Starter",
			Prices: []Price{
				{ID: fallback(b.PriceStarterMonthly, "price_starter_monthly"), Currency: "try", UnitAmount: 29900, Interval: Month},
				{ID: fallback(b.PriceStarterYearly, "price_starter_yearly"), Currency: "try", UnitAmount: 299000, Interval: Year},
			},
			Features: Features{
				SMTP: true,
			},
			Limits: Limits{
				MaxOrganizations: 1,
				MaxUsers:         5,
				MaxProjects:      25,
				MaxCustomers:     100,
				MaxProposals:     100,
			},
			TrialDays: 14,
		},
		{
			ID:   Pro,
			Name: "Pro",
			Prices: []Price{
				{ID: fallback(b.PriceProMonthly, "price_pro_monthly"), Currency: "try", UnitAmount: 59900, Interval: Month},
				{ID: fallback(b.PriceProYearly, "price_pro_yearly"), Currency: "try", UnitAmount: 599000, Interval: Year},
			},
			Features: Features{
				SMTP:              true,
				RemoveBranding:    true,
				APIAccess:         true,
				AdvancedAnalytics: true,
			},
			Limits: Limits{
				MaxOrganizations: 3,
				MaxUsers:         25,
				MaxProjects:      Unlimited,
				MaxCustomers:     Unlimited,
				MaxProposals:     Unlimited,
			},
			TrialDays: 14,
		},
		{
			ID:   Enterprise,
			Name: "Enterprise",
			Prices: []Price{
				{ID: fallback(b.PriceEnterpriseMonthly, "price_enterprise_monthly"), Currency: "try", UnitAmount: 149900, Interval: Month},
				{ID: fallback(b.PriceEnterpriseYearly, "price_enterprise_yearly"), Currency: "try", UnitAmount: 1499000, Interval: Year},
			},
			Features: Features{
				SMTP:              true,
				RemoveBranding:    true,
				APIAccess:         true,
				PrioritySupport:   true,
				CustomDomain:      true,
				WhiteLabel:        true,
				AdvancedAnalytics: true,
			},
			Limits: Limits{
				MaxOrganizations: Unlimited,
				MaxUsers:         Unlimited,
				MaxProjects:      Unlimited,
				MaxCustomers:     Unlimited,
				MaxProposals:     Unlimited,
			},
		},
	})
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

var Module = fx.Module("plan.catalog",
	fx.Provide(DefaultCatalog),
)
