package runorder_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/pkg/runorder"
)

type testItem struct {
	order *int
	id    int
}

func (i *testItem) RunOrder() (int, bool) {
	if i.order == nil {
		return 0, false
	}
	return *i.order, true
}

func item(id int, order ...int) *testItem {
	it := &testItem{id: id}
	if len(order) > 0 {
		it.order = &order[0]
	}
	return it
}

func ids(groups [][]*testItem) [][]int {
	out := make([][]int, 0, len(groups))
	for _, g := range groups {
		row := make([]int, 0, len(g))
		for _, it := range g {
			row = append(row, it.id)
		}
		out = append(out, row)
	}
	return out
}

func TestGroup(t *testing.T) {
	t.Parallel()

	t.Run("groups by run order with unset last", func(t *testing.T) {
		t.Parallel()
		items := []*testItem{
			item(1, 1), item(2), item(3), item(4, 2), item(5, 3),
			item(6), item(7, 1), item(8, 3), item(9, 2),
		}

		groups := runorder.Group(items)
		assert.Equal(t, [][]int{{1, 7}, {4, 9}, {5, 8}, {2, 3, 6}}, ids(groups))
	})

	t.Run("drops nil items", func(t *testing.T) {
		t.Parallel()
		items := []*testItem{nil, item(1), nil, item(2, 5)}

		groups := runorder.Group(items)
		assert.Equal(t, [][]int{{2}, {1}}, ids(groups))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, runorder.Group[*testItem](nil))
	})

	t.Run("mixed values and explicit wrappers", func(t *testing.T) {
		t.Parallel()
		items := []any{"last", runorder.At(-1, "first"), nil, runorder.At(10, "middle")}

		groups := runorder.Group(items)
		require.Len(t, groups, 3)
		assert.Equal(t, "first", groups[0][0].(runorder.Item[string]).Value)
		assert.Equal(t, "middle", groups[1][0].(runorder.Item[string]).Value)
		assert.Equal(t, "last", groups[2][0])
	})

	t.Run("explicit default order shares the unset group", func(t *testing.T) {
		t.Parallel()
		items := []*testItem{item(1), item(2, runorder.DefaultOrder)}

		groups := runorder.Group(items)
		assert.Equal(t, [][]int{{1, 2}}, ids(groups))
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("groups run sequentially and members concurrently", func(t *testing.T) {
		t.Parallel()
		groups := [][]int{{1, 2, 3}, {4, 5}, {6, 7, 8, 9}}

		var (
			mu        sync.Mutex
			completed = map[int]bool{}
			violation atomic.Bool
		)
		groupOf := func(v int) int {
			for gi, g := range groups {
				for _, m := range g {
					if m == v {
						return gi
					}
				}
			}
			return -1
		}

		results, err := runorder.Run(context.Background(), groups, func(_ context.Context, v int) (int, error) {
			gi := groupOf(v)
			mu.Lock()
			for prev := range gi {
				for _, m := range groups[prev] {
					if !completed[m] {
						violation.Store(true)
					}
				}
			}
			mu.Unlock()

			time.Sleep(time.Duration(rand.IntN(15)) * time.Millisecond)

			mu.Lock()
			completed[v] = true
			mu.Unlock()
			return v * 10, nil
		})

		require.NoError(t, err)
		assert.False(t, violation.Load(), "a task started before the previous group completed")
		assert.Equal(t, [][]int{{10, 20, 30}, {40, 50}, {60, 70, 80, 90}}, results)
	})

	t.Run("members of a group overlap", func(t *testing.T) {
		t.Parallel()
		var (
			running atomic.Int32
			peak    atomic.Int32
		)
		_, err := runorder.Run(context.Background(), [][]int{{1, 2, 3}}, func(_ context.Context, _ int) (struct{}, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		})
		require.NoError(t, err)
		assert.Greater(t, peak.Load(), int32(1))
	})

	t.Run("failure aborts later groups", func(t *testing.T) {
		t.Parallel()
		errBoom := errors.New("boom")
		var calls atomic.Int32

		_, err := runorder.Run(context.Background(), [][]int{{1, 2}, {3}}, func(_ context.Context, v int) (int, error) {
			calls.Add(1)
			if v == 2 {
				return 0, errBoom
			}
			return v, nil
		})

		require.ErrorIs(t, err, errBoom)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("canceled context stops before next group", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		var calls atomic.Int32

		_, err := runorder.Run(ctx, [][]int{{1}, {2}}, func(_ context.Context, _ int) (int, error) {
			calls.Add(1)
			cancel()
			return 0, nil
		})

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestFlatten(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{1, 2, 3, 4}, runorder.Flatten([][]int{{1, 2}, {}, {3, 4}}))
}
