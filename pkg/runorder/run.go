package runorder

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every item, group by group.
// Members of a group run concurrently; the next group starts only after every
// member of the current one has returned. The first error cancels the context
// passed to the remaining members of its group and aborts the run.
// Results mirror the shape of groups.
func Run[T, R any](ctx context.Context, groups [][]T, fn func(context.Context, T) (R, error)) ([][]R, error) {
	results := make([][]R, 0, len(groups))

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		out := make([]R, len(group))
		g, gctx := errgroup.WithContext(ctx)
		for i, item := range group {
			g.Go(func() error {
				r, err := fn(gctx, item)
				if err != nil {
					return err
				}
				out[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return results, err
		}

		results = append(results, out)
	}

	return results, nil
}

// Flatten concatenates staged results preserving group order.
func Flatten[R any](groups [][]R) []R {
	var n int
	for _, g := range groups {
		n += len(g)
	}
	out := make([]R, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
