package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ventrahq/ventra/internal/config"
)

func testCatalog() *Catalog {
	return DefaultCatalog(config.Config{})
}

func TestPlanForPrice(t *testing.T) {
	c := testCatalog()

	id, err := c.PlanForPrice("price_pro_monthly")
	require.NoError(t, err)
	assert.Equal(t, Pro, id)

	id, err = c.PlanForPrice("price_starter_yearly")
	require.NoError(t, err)
	assert.Equal(t, Starter, id)

	_, err = c.PlanForPrice("price_does_not_exist")
	assert.ErrorIs(t, err, ErrUnknownPrice)
}

func TestPlanForPriceUsesConfigOverrides(t *testing.T) {
	cfg := config.Config{}
	cfg.Billing.PriceProMonthly = "price_1NXYZpro"
	c := DefaultCatalog(cfg)

	id, err := c.PlanForPrice("price_1NXYZpro")
	require.NoError(t, err)
	assert.Equal(t, Pro, id)

	// The default id is replaced, not kept alongside.
	_, err = c.PlanForPrice("price_pro_monthly")
	assert.ErrorIs(t, err, ErrUnknownPrice)
}

func TestTrialDays(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, 14, c.TrialDays(Pro))
	assert.Equal(t, 14, c.TrialDays(Starter))
	assert.Equal(t, 0, c.TrialDays(Free))
	assert.Equal(t, 0, c.TrialDays(Enterprise))
	assert.Equal(t, 0, c.TrialDays(ID("nope")))
}

func TestDefinition(t *testing.T) {
	c := testCatalog()

	def, err := c.Definition(Enterprise)
	require.NoError(t, err)
	assert.True(t, def.Features.WhiteLabel)
	assert.Equal(t, Unlimited, def.Limits.MaxUsers)

	_, err = c.Definition(ID("gold"))
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestPlansOrdering(t *testing.T) {
	c := testCatalog()

	plans := c.Plans()
	require.Len(t, plans, 4)
	assert.Equal(t, Free, plans[0].ID)
	assert.Equal(t, Starter, plans[1].ID)
	assert.Equal(t, Pro, plans[2].ID)
	assert.Equal(t, Enterprise, plans[3].ID)
}
