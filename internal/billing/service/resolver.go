package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/ventrahq/ventra/internal/billing/domain"
	orgdomain "github.com/ventrahq/ventra/internal/organization/domain"
	"github.com/ventrahq/ventra/internal/payment/stripe"
	"github.com/ventrahq/ventra/internal/plan"
	"go.uber.org/zap"
)

// SubscriptionInfo returns the best current view of an organization's
// billing state. Live provider state wins over the local cache and is
// written through on drift (lazy healing); on any provider failure the
// last persisted values are returned. The function is total: billing
// display must never block the rest of the product.
func (s *Service) SubscriptionInfo(ctx context.Context, orgID snowflake.ID) billingdomain.SubscriptionInfo {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		s.log.Warn("subscription info for unknown organization",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
		return freeInfo()
	}

	subID := derefString(org.ProviderSubscriptionID)

	// Free organizations without provider state need no provider call.
	if subID == "" && (org.SubscriptionPlan == "" || org.SubscriptionPlan == string(plan.Free)) && derefString(org.ProviderCustomerID) == "" {
		return cachedInfo(org)
	}

	if subID != "" {
		sub, err := s.provider.RetrieveSubscription(ctx, subID)
		if err != nil {
			s.log.Warn("provider unavailable, serving cached billing state",
				zap.String("org_id", orgID.String()),
				zap.String("subscription_id", subID),
				zap.Error(err),
			)
			return cachedInfo(org)
		}
		return s.heal(ctx, org, sub)
	}

	// No subscription cached but a customer exists: a completed checkout
	// whose webhook never landed. Adopt the single active subscription.
	if customerID := derefString(org.ProviderCustomerID); customerID != "" {
		subs, err := s.provider.ListActiveSubscriptions(ctx, customerID)
		if err != nil {
			s.log.Warn("provider unavailable during subscription adoption",
				zap.String("org_id", orgID.String()),
				zap.Error(err),
			)
			return cachedInfo(org)
		}
		if len(subs) == 1 {
			s.log.Info("adopting provider subscription missed by webhook",
				zap.String("org_id", orgID.String()),
				zap.String("subscription_id", subs[0].ID),
			)
			return s.heal(ctx, org, subs[0])
		}
	}

	return cachedInfo(org)
}

// heal derives the view from the live subscription and writes it through
// to the organization row when the cache drifted. The write is best
// effort; a failure still returns the live view.
func (s *Service) heal(ctx context.Context, org *orgdomain.Organization, sub stripe.Subscription) billingdomain.SubscriptionInfo {
	info := billingdomain.SubscriptionInfo{
		Plan:              org.SubscriptionPlan,
		Status:            string(mapStatus(sub.Status)),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}

	if end := sub.PeriodEnd(); !end.IsZero() {
		info.CurrentPeriodEnd = &end
	}

	item, hasItem := sub.FirstItem()
	if hasItem {
		info.PriceID = item.Price.ID
		info.Interval = item.Price.Recurring.Interval
	}

	planID, planKnown := s.planForItem(org, item, hasItem)
	if planKnown {
		info.Plan = string(planID)
	}

	if s.drifted(org, sub, info) {
		state := orgdomain.BillingState{
			Plan:              info.Plan,
			Status:            mapStatus(sub.Status),
			CurrentPeriodEnd:  info.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			SubscriptionID:    &sub.ID,
			Currency:          strings.ToLower(sub.Currency),
		}
		if hasItem {
			state.PriceID = &item.Price.ID
			if item.Price.Recurring.Interval != "" {
				interval := item.Price.Recurring.Interval
				state.Interval = &interval
			}
		}
		if trialEnd := sub.TrialEndsAt(); !trialEnd.IsZero() && trialEnd.After(s.clock.Now()) {
			state.TrialEndsAt = &trialEnd
		}
		if planKnown {
			state.Features = featureSnapshot(s.catalog.Features(planID))
			state.UsageLimits = limitSnapshot(s.catalog.Limits(planID))
		}

		if err := s.orgs.UpdateBillingState(ctx, org.ID, state); err != nil {
			s.log.Warn("billing state write-through failed",
				zap.String("org_id", org.ID.String()),
				zap.Error(err),
			)
		}
	}

	// A trialing subscription means the one-time trial has been consumed.
	if mapStatus(sub.Status) == orgdomain.SubscriptionStatusTrialing && !org.IsTrialUsed {
		if err := s.orgs.MarkTrialUsed(ctx, org.ID); err != nil {
			s.log.Warn("failed to mark trial consumed",
				zap.String("org_id", org.ID.String()),
				zap.Error(err),
			)
		}
	}

	return info
}

func (s *Service) planForItem(org *orgdomain.Organization, item stripe.SubscriptionItem, hasItem bool) (plan.ID, bool) {
	if !hasItem {
		return "", false
	}
	planID, err := s.catalog.PlanForPrice(item.Price.ID)
	if err != nil {
		s.log.Warn("live subscription references unknown price",
			zap.String("org_id", org.ID.String()),
			zap.String("price_id", item.Price.ID),
		)
		return "", false
	}
	return planID, true
}

// drifted reports whether the cached row disagrees with the live view on
// any reconciled field. No version guard is applied before the
// write-through; a concurrent webhook write can race this (accepted).
func (s *Service) drifted(org *orgdomain.Organization, sub stripe.Subscription, live billingdomain.SubscriptionInfo) bool {
	if org.SubscriptionPlan != live.Plan {
		return true
	}
	if string(org.SubscriptionStatus) != live.Status {
		return true
	}
	if org.CancelAtPeriodEnd != live.CancelAtPeriodEnd {
		return true
	}
	if derefString(org.ProviderSubscriptionID) != sub.ID {
		return true
	}
	if derefString(org.ProviderPriceID) != live.PriceID {
		return true
	}
	if derefString(org.BillingInterval) != live.Interval {
		return true
	}
	if currency := strings.ToLower(sub.Currency); currency != "" && org.BillingCurrency != currency {
		return true
	}
	if !equalTime(org.CurrentPeriodEnd, live.CurrentPeriodEnd) {
		return true
	}
	return false
}

func mapStatus(providerStatus string) orgdomain.SubscriptionStatus {
	switch strings.ToLower(providerStatus) {
	case "trialing":
		return orgdomain.SubscriptionStatusTrialing
	case "active":
		return orgdomain.SubscriptionStatusActive
	case "past_due", "unpaid", "incomplete", "incomplete_expired":
		return orgdomain.SubscriptionStatusPastDue
	case "canceled":
		return orgdomain.SubscriptionStatusCanceled
	default:
		return orgdomain.SubscriptionStatusNone
	}
}

func cachedInfo(org *orgdomain.Organization) billingdomain.SubscriptionInfo {
	planName := org.SubscriptionPlan
	if planName == "" {
		planName = string(plan.Free)
	}
	status := string(org.SubscriptionStatus)
	if status == "" {
		status = string(orgdomain.SubscriptionStatusNone)
	}
	return billingdomain.SubscriptionInfo{
		Plan:              planName,
		Status:            status,
		CurrentPeriodEnd:  org.CurrentPeriodEnd,
		CancelAtPeriodEnd: org.CancelAtPeriodEnd,
		Interval:          derefString(org.BillingInterval),
		PriceID:           derefString(org.ProviderPriceID),
	}
}

func freeInfo() billingdomain.SubscriptionInfo {
	return billingdomain.SubscriptionInfo{
		Plan:   string(plan.Free),
		Status: string(orgdomain.SubscriptionStatusNone),
	}
}

func featureSnapshot(f plan.Features) map[string]any {
	return map[string]any{
		"smtp":              f.SMTP,
		"removeBranding":    f.RemoveBranding,
		"apiAccess":         f.APIAccess,
		"prioritySupport":   f.PrioritySupport,
		"customDomain":      f.CustomDomain,
		"whiteLabel":        f.WhiteLabel,
		"advancedAnalytics": f.AdvancedAnalytics,
	}
}

func limitSnapshot(l plan.Limits) map[string]any {
	return map[string]any{
		"maxOrganizations": l.MaxOrganizations,
		"maxUsers":         l.MaxUsers,
		"maxProjects":      l.MaxProjects,
		"maxCustomers":     l.MaxCustomers,
		"maxProposals":     l.MaxProposals,
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
