package shape

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   string
	Value any
}

// Map is a mapping that keeps insertion order. Go maps are resolved in
// sorted key order; use Map when the view must preserve authoring order.
//
// A Map is treated as immutable once it is part of a shape: With returns
// a copy.
type Map []Entry

// MapOf builds a Map from alternating keys and values.
// It panics if a key is not a string or a value is missing.
func MapOf(kv ...any) Map {
	if len(kv)%2 != 0 {
		panic("shape.MapOf: odd number of arguments")
	}
	m := make(Map, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("shape.MapOf: key %d is %T, not string", i/2, kv[i]))
		}
		m = m.set(key, kv[i+1])
	}
	return m
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m) }

// Keys returns the keys in order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value stored under key.
func (m Map) Get(key string) (any, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// With returns a copy of m with key set to v. An existing key keeps its
// position.
func (m Map) With(key string, v any) Map {
	out := make(Map, len(m), len(m)+1)
	copy(out, m)
	return out.set(key, v)
}

func (m Map) set(key string, v any) Map {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = v
			return m
		}
	}
	return append(m, Entry{Key: key, Value: v})
}

// MarshalJSON encodes m as a JSON object in entry order.
func (m Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
