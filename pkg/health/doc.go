// Package health provides liveness and readiness HTTP probes.
//
// The rapid webserver mounts [Routes] under /health:
//
//	GET /health/live   always 200 while the process serves requests
//	GET /health/ready  200 when every check passes, 503 otherwise
//
// Checks are plain func(context.Context) error closures, run concurrently
// with a shared timeout:
//
//	r.Mount("/health", health.Routes(func() health.Checks {
//	    return health.Checks{
//	        "postgres": database.Healthcheck,
//	        "redis":    redis.Healthcheck(client),
//	    }
//	}, health.WithTimeout(3*time.Second)))
//
// Responses are plain text by default. Send Accept: application/json or
// ?format=json to get the detailed report:
//
//	{"status":"unhealthy","checks":{"redis":{"status":"unhealthy","error":"..."}}}
//
// Outside HTTP, [Run] returns the same report and [Response.Err] turns it
// into an error wrapping [ErrCheckFailed]. A check that outlives the timeout
// has its error prefixed with the [ErrCheckTimeout] message.
package health
