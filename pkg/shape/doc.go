// Package shape classifies and resolves view shapes.
//
// A shape is any value that may contain streams at arbitrary depth:
// a scalar, a sequence (slice or array), a mapping ([Map] or a Go map with
// string keys), or a [stream.Source]. [Resolve] replaces every embedded
// stream with its latest value and emits a new materialized view whenever
// any of them changes.
//
//	view := shape.MapOf(
//		"count", counter,          // *stream.Stream[int]
//		"title", "Inbox",
//		"items", []any{a, b},
//	)
//	sub := shape.Resolve(view).Subscribe(stream.NextFunc(paint))
//
// Resolution is synchronous where it can be: a shape without streams, or
// whose streams replay a value on subscribe, emits before Subscribe
// returns. [Materialize] relies on that.
package shape
