package billing

import (
	"github.com/ventrahq/ventra/internal/authorization"
	billingdomain "github.com/ventrahq/ventra/internal/billing/domain"
	"github.com/ventrahq/ventra/internal/billing/service"
	"github.com/ventrahq/ventra/internal/payment/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(
		func(c *stripe.Client) billingdomain.Provider { return c },
		func(g *authorization.Gate) billingdomain.Authorizer { return g },
		service.NewService,
	),
)
