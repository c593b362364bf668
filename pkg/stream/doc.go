// Package stream provides the push-based streams that shapes embed and the
// operators the resolver and agents are built from.
//
// # Model
//
// A [Stream] is cold: every Subscribe runs its producer anew. A producer may
// emit synchronously during Subscribe, which is how constant shapes resolve
// without a round trip through the loop. Hot sources are [Subject] and
// [BehaviorSubject]; [Share] and [ShareReplay] turn one cold execution into
// a reference-counted multicast.
//
//	ticks := stream.Interval(lp, time.Second)
//	labels := stream.Map(ticks, func(n int) string { return fmt.Sprint(n) })
//	sub := labels.Subscribe(stream.NextFunc(func(s string) { fmt.Println(s) }))
//	defer sub.Unsubscribe()
//
// # Joining
//
// [CombineLatest] is the combination strategy used for the children of a
// sequence or mapping: no emission until every child has produced a value,
// then one emission per child update.
//
// # Threading
//
// Streams are NOT thread-safe. Subscribe, push and unsubscribe on the loop
// goroutine (see package loop). [FromChan] is the bridge for values
// produced on other goroutines.
package stream
