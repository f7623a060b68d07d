package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckLimit(t *testing.T) {
	c := NewCatalog([]Definition{
		{
			ID: Starter,
			Limits: Limits{
				MaxCustomers: 50,
				MaxProjects:  Unlimited,
			},
		},
	})

	assert.True(t, c.CheckLimit(Starter, LimitMaxCustomers, 49))
	assert.False(t, c.CheckLimit(Starter, LimitMaxCustomers, 50))
	assert.False(t, c.CheckLimit(Starter, LimitMaxCustomers, 51))

	// Unlimited always passes regardless of the count.
	assert.True(t, c.CheckLimit(Starter, LimitMaxProjects, 9999))

	assert.False(t, c.CheckLimit(Starter, LimitKey("maxWidgets"), 0))
	assert.False(t, c.CheckLimit(Pro, LimitMaxCustomers, 0))
}

func TestUsagePercentage(t *testing.T) {
	c := NewCatalog([]Definition{
		{
			ID: Starter,
			Limits: Limits{
				MaxCustomers: 50,
				MaxProjects:  Unlimited,
			},
		},
	})

	assert.InDelta(t, 50.0, c.UsagePercentage(Starter, LimitMaxCustomers, 25), 0.001)
	assert.InDelta(t, 100.0, c.UsagePercentage(Starter, LimitMaxCustomers, 50), 0.001)

	// Over-consumption caps at 100.
	assert.InDelta(t, 100.0, c.UsagePercentage(Starter, LimitMaxCustomers, 120), 0.001)

	// Unlimited never divides by the sentinel.
	assert.Zero(t, c.UsagePercentage(Starter, LimitMaxProjects, 10_000))
	assert.Zero(t, c.UsagePercentage(Starter, LimitKey("maxWidgets"), 3))
	assert.Zero(t, c.UsagePercentage(ID("nope"), LimitMaxCustomers, 3))
}

func TestRemainingQuota(t *testing.T) {
	c := NewCatalog([]Definition{
		{
			ID: Starter,
			Limits: Limits{
				MaxCustomers: 50,
				MaxProjects:  Unlimited,
			},
		},
	})

	assert.Equal(t, 25, c.RemainingQuota(Starter, LimitMaxCustomers, 25))
	assert.Equal(t, 0, c.RemainingQuota(Starter, LimitMaxCustomers, 50))
	assert.Equal(t, 0, c.RemainingQuota(Starter, LimitMaxCustomers, 70))
	assert.Equal(t, Unlimited, c.RemainingQuota(Starter, LimitMaxProjects, 70))
	assert.Equal(t, 0, c.RemainingQuota(Pro, LimitMaxCustomers, 0))
}
