package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingdomain "github.com/ventrahq/ventra/internal/billing/domain"
	"github.com/ventrahq/ventra/internal/plan"
)

type checkoutRequest struct {
	OrganizationID string `json:"organizationId" binding:"required"`
	PriceID        string `json:"priceId" binding:"required"`
}

type subscriptionInfoRequest struct {
	OrganizationID string `json:"organizationId" binding:"required"`
}

type planPrice struct {
	ID         string `json:"id"`
	Currency   string `json:"currency"`
	UnitAmount int64  `json:"unitAmount"`
	Interval   string `json:"interval"`
}

type planResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Prices    []planPrice   `json:"prices"`
	Features  plan.Features `json:"features"`
	Limits    plan.Limits   `json:"limits"`
	TrialDays int           `json:"trialDays,omitempty"`
}

func (s *Server) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "organizationId and priceId are required"))
		return
	}
	orgID, err := parseID(req.OrganizationID)
	if err != nil {
		AbortWithError(c, newValidationError("organizationId", "invalid_id", "organizationId must be a numeric id"))
		return
	}

	ctx := c.Request.Context()

	if s.checkoutLimiter != nil {
		res, err := s.checkoutLimiter.Allow(ctx, orgID)
		if err == nil && !res.Allowed {
			s.log.Warn("checkout throttled",
				zap.String("organization_id", req.OrganizationID),
			)
			if s.metrics != nil {
				s.metrics.ObserveCheckout("rate_limited")
			}
			AbortWithError(c, ErrTooManyRequests)
			return
		}
	}

	result, err := s.billingSvc.Checkout(ctx, billingdomain.CheckoutRequest{
		OrganizationID: orgID,
		UserID:         currentUserID(c),
		PriceID:        req.PriceID,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveCheckout("error")
		}
		AbortWithError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveCheckout(string(result.Type))
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) subscriptionInfo(c *gin.Context) {
	var req subscriptionInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "organizationId is required"))
		return
	}
	orgID, err := parseID(req.OrganizationID)
	if err != nil {
		AbortWithError(c, newValidationError("organizationId", "invalid_id", "organizationId must be a numeric id"))
		return
	}

	// Billing state is tenant data; only members of the organization may
	// read it. The resolver below stays total, a 403 here is an
	// authorization outcome, not a billing-display degradation.
	if err := s.authz.RequireMember(c.Request.Context(), orgID, currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	info := s.billingSvc.SubscriptionInfo(c.Request.Context(), orgID)
	c.JSON(http.StatusOK, info)
}

func (s *Server) listPlans(c *gin.Context) {
	defs := s.catalog.Plans()
	out := make([]planResponse, 0, len(defs))
	for _, def := range defs {
		prices := make([]planPrice, 0, len(def.Prices))
		for _, p := range def.Prices {
			prices = append(prices, planPrice{
				ID:         p.ID,
				Currency:   p.Currency,
				UnitAmount: p.UnitAmount,
				Interval:   string(p.Interval),
			})
		}
		out = append(out, planResponse{
			ID:        string(def.ID),
			Name:      def.Name,
			Prices:    prices,
			Features:  def.Features,
			Limits:    def.Limits,
			TrialDays: def.TrialDays,
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		if err == nil {
			err = strconv.ErrSyntax
		}
		return 0, err
	}
	return snowflake.ID(id), nil
}
