package plan

// CheckLimit reports whether one more unit of usage fits under the plan's
// quota. Unlimited quotas always pass; unknown keys or plans never do.
func (c *Catalog) CheckLimit(id ID, key LimitKey, current int) bool {
	def, ok := c.plans[id]
	if !ok {
		return false
	}
	limit, ok := def.Limits.Get(key)
	if !ok {
		return false
	}
	if limit == Unlimited {
		return true
	}
	return current < limit
}

// UsagePercentage returns consumed quota as a percentage, capped at 100.
// Unlimited quotas report 0; the sentinel is never used as a divisor.
func (c *Catalog) UsagePercentage(id ID, key LimitKey, current int) float64 {
	def, ok := c.plans[id]
	if !ok {
		return 0
	}
	limit, ok := def.Limits.Get(key)
	if !ok || limit == Unlimited || limit <= 0 {
		return 0
	}
	pct := float64(current) / float64(limit) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// RemainingQuota returns how many units are left under the quota, floored
// at 0. Unlimited quotas report Unlimited.
func (c *Catalog) RemainingQuota(id ID, key LimitKey, current int) int {
	def, ok := c.plans[id]
	if !ok {
		return 0
	}
	limit, ok := def.Limits.Get(key)
	if !ok {
		return 0
	}
	if limit == Unlimited {
		return Unlimited
	}
	remaining := limit - current
	if remaining < 0 {
		return 0
	}
	return remaining
}
