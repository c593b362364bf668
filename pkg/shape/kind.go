package shape

import (
	"reflect"

	"github.com/go-drift/reactive/pkg/stream"
)

// Kind is the closed set of shapes a value can take.
type Kind int

const (
	// KindInvalid marks a value the resolver cannot descend into.
	KindInvalid Kind = iota
	// KindScalar is any non-container, non-stream value: nil, numbers,
	// strings, structs, pointers, funcs.
	KindScalar
	// KindSequence is any slice or array.
	KindSequence
	// KindMapping is a Map, *Map, or a Go map with string keys.
	KindMapping
	// KindStream is any stream.Source.
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindStream:
		return "stream"
	default:
		return "invalid"
	}
}

// Classify reports which shape v is. It is the only place the resolver
// inspects runtime types.
func Classify(v any) Kind {
	k, _ := classify(v)
	return k
}

// classify returns the kind and, for KindInvalid, the reason.
func classify(v any) (Kind, string) {
	switch x := v.(type) {
	case nil:
		return KindScalar, ""
	case Map:
		return KindMapping, ""
	case *Map:
		if x == nil {
			return KindScalar, ""
		}
		return KindMapping, ""
	case []any:
		return KindSequence, ""
	case map[string]any:
		return KindMapping, ""
	case stream.Source:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return KindInvalid, "nil stream"
		}
		return KindStream, ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindSequence, ""
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return KindInvalid, "mapping keys must be strings"
		}
		return KindMapping, ""
	case reflect.Chan:
		return KindInvalid, "channels are not streams; wrap with stream.FromChan"
	case reflect.UnsafePointer:
		return KindInvalid, "unsafe pointers cannot be materialized"
	default:
		return KindScalar, ""
	}
}
