package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/ventrahq/ventra/internal/authorization"
	"github.com/ventrahq/ventra/internal/billing"
	"github.com/ventrahq/ventra/internal/clock"
	"github.com/ventrahq/ventra/internal/config"
	"github.com/ventrahq/ventra/internal/migration"
	"github.com/ventrahq/ventra/internal/observability"
	"github.com/ventrahq/ventra/internal/organization"
	"github.com/ventrahq/ventra/internal/payment/stripe"
	"github.com/ventrahq/ventra/internal/plan"
	"github.com/ventrahq/ventra/internal/ratelimit"
	"github.com/ventrahq/ventra/internal/server"
	"github.com/ventrahq/ventra/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		plan.Module,
		organization.Module,
		authorization.Module,
		stripe.Module,
		ratelimit.Module,
		billing.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
