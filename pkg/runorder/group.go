package runorder

import (
	"reflect"
	"slices"
)

// DefaultOrder is used for items without an explicit run order.
// It is large enough that unordered items always run after ordered ones.
const DefaultOrder = 99_999_999

// Ordered is implemented by items that carry an explicit run order.
// Returning false means the order is unset and DefaultOrder applies.
type Ordered interface {
	RunOrder() (int, bool)
}

// Item attaches an explicit run order to an arbitrary value.
type Item[T any] struct {
	Value T
	Order int
}

// RunOrder implements Ordered.
func (i Item[T]) RunOrder() (int, bool) {
	return i.Order, true
}

// At wraps v with an explicit run order.
func At[T any](order int, v T) Item[T] {
	return Item[T]{Value: v, Order: order}
}

// OrderOf returns the run order of v, or DefaultOrder if v has none.
func OrderOf(v any) int {
	if o, ok := v.(Ordered); ok {
		if order, set := o.RunOrder(); set {
			return order
		}
	}
	return DefaultOrder
}

// Group buckets items by run order and returns the buckets sorted ascending.
// Nil items are dropped. Relative order inside a bucket follows the input.
func Group[T any](items []T) [][]T {
	var (
		orders  []int
		buckets = make(map[int][]T)
	)

	for _, item := range items {
		if isNil(item) {
			continue
		}
		order := OrderOf(item)
		if _, ok := buckets[order]; !ok {
			orders = append(orders, order)
		}
		buckets[order] = append(buckets[order], item)
	}

	slices.Sort(orders)

	groups := make([][]T, 0, len(orders))
	for _, order := range orders {
		groups = append(groups, buckets[order])
	}
	return groups
}

// isNil reports whether v is nil or a typed nil of a nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
