// Package equal implements the shallow prop comparison used to skip
// re-renders.
package equal

import "reflect"

// ChildrenKey is the prop key ignored by Props.
const ChildrenKey = "children"

// Props reports whether a and b hold the same keys with identical values,
// ignoring ChildrenKey.
func Props(a, b map[string]any) bool {
	return Shallow(a, b, ChildrenKey)
}

// Shallow reports whether a and b hold the same keys with identical
// values, skipping the keys in ignore. Values are compared by identity:
// comparable values with ==, and references (slices, maps, pointers) by
// the address they point to. Two distinct slices with equal elements are
// different. Go cannot tell closures apart, so a non-nil func always
// counts as changed.
func Shallow(a, b map[string]any, ignore ...string) bool {
	skip := func(k string) bool {
		for _, i := range ignore {
			if i == k {
				return true
			}
		}
		return false
	}
	n := 0
	for k, av := range a {
		if skip(k) {
			continue
		}
		bv, ok := b[k]
		if !ok || !Identical(av, bv) {
			return false
		}
		n++
	}
	for k := range b {
		if !skip(k) {
			n--
		}
	}
	return n == 0
}

// Identical reports whether x and y are the same value. It never panics,
// including on uncomparable dynamic types.
func Identical(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	vx, vy := reflect.ValueOf(x), reflect.ValueOf(y)
	if vx.Type() != vy.Type() {
		return false
	}
	switch vx.Kind() {
	case reflect.Slice:
		return vx.Len() == vy.Len() && vx.UnsafePointer() == vy.UnsafePointer()
	case reflect.Func:
		// Closures share code pointers, so only nil funcs are known equal.
		return vx.IsNil() && vy.IsNil()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return vx.UnsafePointer() == vy.UnsafePointer()
	}
	if vx.Comparable() {
		return x == y
	}
	return false
}
