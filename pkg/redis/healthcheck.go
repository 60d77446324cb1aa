package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/rapid/pkg/health"
)

// Healthcheck returns a readiness check that pings client.
// A nil client always fails, so a broker that never connected reports unready.
func Healthcheck(client redis.UniversalClient) health.CheckFunc {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrHealthcheckFailed
		}
		if err := ping(ctx, client); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

func ping(ctx context.Context, client redis.UniversalClient) error {
	return client.Ping(ctx).Err()
}
