// Package redis opens Redis connections for rapid applications.
//
// It wraps [github.com/redis/go-redis/v9] with config driven pool settings,
// retries while the server boots, and a health check closure:
//
//	client, err := redis.Open(ctx, redis.Config{URL: "redis://localhost:6379/0"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	checks := health.Checks{"redis": redis.Healthcheck(client)}
//
// The socket server uses it to fan channel broadcasts out across instances.
//
// # Error Handling
//
//   - [ErrEmptyConnectionURL] - no URL configured
//   - [ErrFailedToParseURL] - invalid URL or scheme
//   - [ErrConnectionFailed] - connection failed after all retries
//   - [ErrHealthcheckFailed] - ping failed
package redis
