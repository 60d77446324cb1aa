// Package internal implements the Rapid lifecycle orchestrator.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/rapid" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: owns the root, environment, config, extension items, registries
//     and collaborators, and walks the startup and shutdown phases
//   - Context: request access for handlers, with a per-request state map
//   - Router: interface route modules use to declare routes under /api
//   - RouteGroup: routes recorded ahead of the webserver and mounted later
//   - Action: named, schema-validated business logic, callable directly or
//     over HTTP
//   - Hooks: lifecycle event handlers
//
// # Lifecycle
//
// Start runs these phases in order, emitting a Will and a Did event around
// each one:
//
//	discovery and config
//	hooks
//	database clear (Clear flag)
//	database start
//	rollback (Rollback flag)
//	migrations (Migrate flag)
//	models
//	actions
//	controllers
//	seeds (Seed flag)
//	middleware
//	webserver start
//	sockets and channels (socket.enabled)
//	routes
//	listen
//
// The database phases are skipped when the database is disabled, and every
// webserver phase is skipped with DisableWebserver. Stop runs the shutdown
// hooks and stops the socket server, webserver and database. It only stops
// the collaborators whose start was attempted, and it is safe to call more
// than once.
//
// # Extension Items
//
// Config, models, controllers, routes, actions, seeds, hooks and channels
// are added with the Add* methods or discovered with the Discover* methods.
// Files on disk can only hold config; Go values are registered in a
// discover.Catalog under the path they would have on disk:
//
//	catalog := discover.NewCatalog().
//	    MustRegister("models/user.model", internal.ModelFactory(newUsers)).
//	    MustRegister("routes/users.route", usersRoutes)
//
//	app := internal.New(".", internal.WithCatalog(catalog))
//	app.Autoload()
//
// Model, controller and route failures are logged and skipped unless
// WithStrictResolution is set. Any other failure aborts startup.
package internal
