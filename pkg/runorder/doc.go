// Package runorder sequences dynamically discovered items.
//
// Items carry an optional integer run order. [Group] buckets them by that order
// (lower first, unset last) and [Run] executes each bucket concurrently while
// processing buckets strictly one after another.
//
// # Usage
//
//	seeds := []any{
//	    runorder.At(1, createUsers),
//	    runorder.At(2, createPosts),
//	    createTags, // no explicit order, runs last
//	}
//
//	results, err := runorder.Run(ctx, runorder.Group(seeds),
//	    func(ctx context.Context, item any) (struct{}, error) {
//	        return struct{}{}, runSeed(ctx, item)
//	    },
//	)
//
// Items sharing an order run concurrently. If any of them fails the remaining
// buckets are not started and the first error is returned.
package runorder
