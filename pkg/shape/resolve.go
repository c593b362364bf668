package shape

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/stream"
)

var (
	anySliceType = reflect.TypeFor[[]any]()
	anyMapType   = reflect.TypeFor[map[string]any]()
)

// Resolve turns a shape into a stream of fully materialized values.
//
// Scalars emit once and complete. A stream re-resolves every value it
// emits and drops the previous one's resolution. Sequences and mappings
// wait until every child has produced a value, then emit the rebuilt
// container on every child update. Empty containers emit themselves
// once.
//
// A value that cannot be classified terminates the stream with an
// *errors.ShapeError naming its path.
func Resolve(v any) *stream.Stream[any] {
	return resolve(v, "$")
}

func resolve(v any, path string) *stream.Stream[any] {
	kind, reason := classify(v)
	switch kind {
	case KindScalar:
		return stream.Of(v)
	case KindStream:
		return stream.SwitchMap(stream.FromSource(v.(stream.Source)), func(x any) *stream.Stream[any] {
			return resolve(x, path)
		})
	case KindSequence:
		return resolveSequence(v, path)
	case KindMapping:
		return resolveMapping(v, path)
	default:
		return stream.Throw[any](&errors.ShapeError{
			Path:   path,
			Type:   fmt.Sprintf("%T", v),
			Reason: reason,
		})
	}
}

func resolveSequence(v any, path string) *stream.Stream[any] {
	rv := reflect.ValueOf(v)
	n := rv.Len()
	if n == 0 {
		return stream.Of(v)
	}
	children := make([]*stream.Stream[any], n)
	for i := range n {
		children[i] = resolve(rv.Index(i).Interface(), path+"["+strconv.Itoa(i)+"]")
	}
	rt := rv.Type()
	return stream.Map(stream.CombineLatest(children), func(values []any) any {
		return rebuildSequence(rt, values)
	})
}

func resolveMapping(v any, path string) *stream.Stream[any] {
	switch m := v.(type) {
	case *Map:
		return resolveMapping(*m, path)
	case Map:
		if len(m) == 0 {
			return stream.Of(v)
		}
		keys := m.Keys()
		children := make([]*stream.Stream[any], len(m))
		for i, e := range m {
			children[i] = resolve(e.Value, path+"."+e.Key)
		}
		return stream.Map(stream.CombineLatest(children), func(values []any) any {
			out := make(Map, len(keys))
			for i, k := range keys {
				out[i] = Entry{Key: k, Value: values[i]}
			}
			return out
		})
	}

	rv := reflect.ValueOf(v)
	if rv.Len() == 0 {
		return stream.Of(v)
	}
	keys := make([]string, 0, rv.Len())
	byName := make(map[string]reflect.Value, rv.Len())
	for _, k := range rv.MapKeys() {
		name := k.String()
		keys = append(keys, name)
		byName[name] = rv.MapIndex(k)
	}
	slices.Sort(keys)

	children := make([]*stream.Stream[any], len(keys))
	for i, k := range keys {
		children[i] = resolve(byName[k].Interface(), path+"."+k)
	}
	rt := rv.Type()
	return stream.Map(stream.CombineLatest(children), func(values []any) any {
		return rebuildMapping(rt, keys, values)
	})
}

// rebuildSequence returns values in a container of type rt when every
// value fits its element type, and as []any otherwise.
func rebuildSequence(rt reflect.Type, values []any) any {
	if rt == anySliceType {
		return values
	}
	elem := rt.Elem()
	if !allAssignable(values, elem) {
		return values
	}
	var out reflect.Value
	if rt.Kind() == reflect.Array {
		out = reflect.New(rt).Elem()
	} else {
		out = reflect.MakeSlice(rt, len(values), len(values))
	}
	for i, v := range values {
		out.Index(i).Set(valueOf(v, elem))
	}
	return out.Interface()
}

// rebuildMapping is rebuildSequence for string-keyed maps; the fallback
// is map[string]any.
func rebuildMapping(rt reflect.Type, keys []string, values []any) any {
	if rt != anyMapType && allAssignable(values, rt.Elem()) {
		out := reflect.MakeMapWithSize(rt, len(keys))
		kt := rt.Key()
		for i, k := range keys {
			out.SetMapIndex(reflect.ValueOf(k).Convert(kt), valueOf(values[i], rt.Elem()))
		}
		return out.Interface()
	}
	out := make(map[string]any, len(keys))
	for i, k := range keys {
		out[k] = values[i]
	}
	return out
}

func allAssignable(values []any, t reflect.Type) bool {
	for _, v := range values {
		if v == nil {
			switch t.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
				continue
			}
			return false
		}
		if !reflect.TypeOf(v).AssignableTo(t) {
			return false
		}
	}
	return true
}

func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

// Materialize resolves v synchronously and returns its first value.
// It returns errors.ErrNotSettled when v contains a stream that has not
// emitted by the time subscription returns.
func Materialize(v any) (any, error) {
	var (
		out any
		got bool
		err error
	)
	sub := stream.Take(Resolve(v), 1).Subscribe(stream.Observer[any]{
		Next:  func(x any) { out, got = x, true },
		Error: func(e error) { err = e },
	})
	sub.Unsubscribe()
	switch {
	case got:
		return out, nil
	case err != nil:
		return nil, err
	default:
		return nil, errors.ErrNotSettled
	}
}
