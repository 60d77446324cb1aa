// Package discover finds application modules by glob pattern.
//
// A [Discoverer] keeps a queue of searches. Each search is a pattern plus a
// callback; [Discoverer.Run] executes them in the order they were queued,
// loading matches in sorted path order.
//
// Modules come from a [Source]. [Dir] reads configuration files from disk,
// [Catalog] holds Go values registered under virtual paths, and [Overlay]
// combines several sources:
//
//	catalog := discover.NewCatalog().
//	    MustRegister("models/user.model", newUserModel).
//	    MustRegister("seeds/users.seed", seedUsers)
//
//	d := discover.New(discover.Overlay(discover.Dir(root), catalog))
//	d.Enqueue([]string{"models/**.model"}, func(ctx context.Context, m discover.Module) error {
//	    return register(m.Value)
//	})
//	err := d.Run(ctx)
//
// Patterns use '/' as separator: '*' stays inside one path segment while
// '**' crosses segments. Brace alternatives such as "{a,b}" are supported.
package discover
