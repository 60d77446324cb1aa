// Package middlewares provides HTTP and socket middleware for Rapid applications.
//
// # Request pipeline
//
// rapid.New installs RequestID, Recover, RequestLogger, CORSFromConfig and
// TimeoutFromConfig on every webserver. The last two read the webserver.cors
// and webserver.timeout config keys and do nothing without them.
//
// Use RequestIDExtractor with the logger so every record carries the ID:
//
//	app := rapid.New(".", rapid.WithLogExtractors(middlewares.RequestIDExtractor()))
//
// # Authentication
//
// HeaderAuth and CookieAuth verify a token signed with the application
// secret and store its claims in state under "user". CookieAuth reads the
// cookie named by the authCookie config key, "authToken" by default.
//
//	api.GET("/me", me, middlewares.HeaderAuth())
//
// Login checks the username and password of the request body with a
// resolver and stores the signed token under "authToken":
//
//	login := middlewares.MustLogin(func(ctx context.Context, creds middlewares.Credentials) (any, error) {
//	    return users.Authenticate(ctx, creds.Username, creds.Password)
//	})
//	api.POST("/auth/login", func(c rapid.Context) error {
//	    return c.Success(map[string]any{
//	        "authToken": c.State()["authToken"],
//	        "user":      c.State()["user"],
//	    })
//	}, login)
//
// SocketAuth protects socket namespaces with the same tokens, taken from the
// authToken query parameter or cookie.
//
// # Validation
//
// ValidateQuery and ValidateBody check the request against a JSON schema and
// answer 400 with the failed fields. Query values are coerced to the
// declared types; ValidatedQuery returns the coerced map.
//
//	api.GET("/search", search, middlewares.ValidateQuery(map[string]any{
//	    "required":   []any{"q"},
//	    "properties": map[string]any{"q": map[string]any{"type": "string"}, "limit": map[string]any{"type": "integer"}},
//	}))
package middlewares
