// Package rapid is an opinionated application framework that wires a web
// server, a Postgres database, auto-discovered application modules and a
// lifecycle orchestrator together.
//
// An App is built with rapid.New, told where to find its modules, and
// started. Start walks a fixed sequence of phases: config, database,
// migrations, models, actions, controllers, seeds, webserver, sockets,
// channels, routes and listening. Every phase emits a Will and a Did
// lifecycle event that hooks can subscribe to. Stop tears everything down
// in reverse and is safe to call after a failed or partial start.
//
// # Quick Start
//
//	catalog := rapid.NewCatalog().
//	    MustRegister("models/user.model", models.NewUsers).
//	    MustRegister("routes/users.route", routes.Users)
//
//	app := rapid.New(".", rapid.WithCatalog(catalog)).
//	    Autoload().
//	    Migrate()
//
//	if err := app.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Or hand the App to the command line, which adds start, migrate, seed,
// rollback and clear commands:
//
//	rapid.Execute("myapp", func() *rapid.App {
//	    return rapid.New(".", rapid.WithCatalog(catalog)).Autoload()
//	})
//
// # Modules
//
// Autoload discovers configs from config/config.default.* and
// config/config.<env>.* files, and code modules from the catalog under
// the paths models/**.model, controllers/**.controller, routes/**.route,
// actions/**.action, seeds/**.seed, hooks/**.hook and channels/**.channel.
// The same kinds can be added in code with AddModels, AddControllers,
// AddRoutes, AddActions, AddSeeds, AddHooks and AddChannels. Items run in
// the order they were added, then discovered; items implementing a run
// order are grouped by it and groups sharing an order run concurrently.
//
// # Hooks
//
// Hooks subscribe to lifecycle events:
//
//	app.AddHooks(rapid.HooksOf(rapid.Hooks{
//	    rapid.RapidDidStart: func(ctx context.Context, app *rapid.App) error {
//	        app.Logger().Info("ready")
//	        return nil
//	    },
//	}))
//
// # Actions
//
// Actions are named units of business logic with JSON schema validation.
// They can be invoked directly with App.RunAction or exposed over HTTP:
//
//	app.MustAction("createUser", createUser,
//	    rapid.WithSchema(userSchema),
//	    rapid.WithEndpoint(http.MethodPost, "/users", middlewares.Auth()),
//	)
//
// # Middleware
//
// New installs request id, panic recovery, request logging, CORS
// (webserver.cors) and request timeout (webserver.timeout) middleware.
// Use Bare for an App without them. Authentication, login and validation
// middleware live in the middlewares package.
//
// # Environments
//
// RAPID_ENV selects development (the default), test or production. The
// test environment discards logs, binds any free port and uses a separate
// database. Production hides the message of server errors.
package rapid
