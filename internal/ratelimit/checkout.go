package ratelimit

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ventrahq/ventra/internal/config"
)

// CheckoutLimiter throttles checkout attempts per organization. Without a
// redis client it allows everything, so single-instance deployments can run
// without redis.
type CheckoutLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

type CheckoutLimiterParam struct {
	fx.In

	Cfg    config.Config
	Client *redis.Client `optional:"true"`
	Log    *zap.Logger
}

func NewCheckoutLimiter(p CheckoutLimiterParam) *CheckoutLimiter {
	perMinute := p.Cfg.Billing.CheckoutRatePerMinute
	burst := p.Cfg.Billing.CheckoutBurst
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &CheckoutLimiter{
		bucket: NewTokenBucket(p.Client),
		rate:   float64(perMinute) / 60.0,
		burst:  burst,
		log:    p.Log.Named("ratelimit.checkout"),
	}
}

// Allow reports whether the organization may start another checkout right
// now. Redis failures fail open: throttling is protection, not correctness.
func (l *CheckoutLimiter) Allow(ctx context.Context, orgID snowflake.ID) (*Result, error) {
	if l == nil {
		return &Result{Allowed: true}, nil
	}
	if l.bucket == nil {
		return &Result{Allowed: true, Limit: l.burst, Remaining: l.burst}, nil
	}

	key := fmt.Sprintf("ratelimit:checkout:%d", orgID)
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request",
			zap.Int64("organization_id", int64(orgID)),
			zap.Error(err),
		)
		return &Result{Allowed: true, Limit: l.burst, Remaining: 0}, nil
	}
	return res, nil
}

func provideRedis(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, checkout rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return client.Close()
		},
	})
	return client
}

var Module = fx.Module("ratelimit",
	fx.Provide(
		provideRedis,
		NewCheckoutLimiter,
	),
)
