package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	billingdomain "github.com/ventrahq/ventra/internal/billing/domain"
	"github.com/ventrahq/ventra/internal/config"
	obslogger "github.com/ventrahq/ventra/internal/observability/logger"
	obsmetrics "github.com/ventrahq/ventra/internal/observability/metrics"
	obstracing "github.com/ventrahq/ventra/internal/observability/tracing"
	"github.com/ventrahq/ventra/internal/plan"
	"github.com/ventrahq/ventra/internal/ratelimit"
)

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	billingSvc      billingdomain.Service
	authz           billingdomain.Authorizer
	catalog         *plan.Catalog
	checkoutLimiter *ratelimit.CheckoutLimiter
	metrics         *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	BillingSvc      billingdomain.Service
	Authz           billingdomain.Authorizer
	Catalog         *plan.Catalog
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
	Metrics         *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		billingSvc:      p.BillingSvc,
		authz:           p.Authz,
		catalog:         p.Catalog,
		checkoutLimiter: p.CheckoutLimiter,
		metrics:         p.Metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")
	api.GET("/billing/plans", s.listPlans)

	authed := api.Group("")
	authed.Use(s.AuthRequired())
	authed.POST("/billing/checkout", s.checkout)
	authed.POST("/billing/subscription-info", s.subscriptionInfo)
}

func registerGin(cfg config.Config, log *zap.Logger, m *obsmetrics.Metrics, tp trace.TracerProvider) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.RequestLogging(log))
	r.Use(obstracing.HTTPMiddleware(tp, cfg.AppName))
	r.Use(m.HTTPMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)
