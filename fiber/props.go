package fiber

import (
	"reflect"
	"sort"
)

// diffProps computes the flat add/remove/update list between the committed
// and pending props of a host fiber. Structural children never appear here;
// they are reconciled, not diffed as a prop. The output order is
// deterministic (removals sorted by name, then writes sorted by name) so
// that the committed mutation stream is independent of map iteration order.
func diffProps(prev, next Props) []PropChange {
	var removed, written []string
	for name := range prev {
		if _, ok := next[name]; !ok {
			removed = append(removed, name)
		}
	}
	for name, nextVal := range next {
		prevVal, had := prev[name]
		if had && equalProp(prevVal, nextVal) {
			continue
		}
		written = append(written, name)
	}
	if len(removed) == 0 && len(written) == 0 {
		return nil
	}
	sort.Strings(removed)
	sort.Strings(written)

	diff := make([]PropChange, 0, len(removed)+len(written))
	for _, name := range removed {
		diff = append(diff, PropChange{Name: name, Remove: true})
	}
	for _, name := range written {
		diff = append(diff, PropChange{Name: name, Value: next[name]})
	}
	return diff
}

// equalProp compares two prop values without panicking on non-comparable
// dynamic types. Funcs, maps and slices are never considered equal.
func equalProp(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}
