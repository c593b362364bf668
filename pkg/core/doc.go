// Package core provides the agent that connects a host component's render
// cycle to stream-backed views.
//
// A host component describes its output as a shape: plain values, slices
// and maps that may hold streams at any depth (see package shape). The host
// hands that shape to an [Agent] on every render and paints whatever view
// comes back. When an embedded stream emits later, the agent stores the new
// view and asks the host to refresh, coalescing bursts of updates into one
// refresh.
//
// # Lifecycle
//
// An agent lives exactly as long as its host component:
//
//	agent := core.New(host.Refresh,
//	    core.WithDisplayName("Inbox"),
//	    core.WithScheduler(lp),
//	)
//
//	view, err := agent.GetView(shape) // every render
//	agent.SetMounted(true)            // after the first paint
//	agent.SetMounted(false)           // before teardown; terminal
//
// Before mounting, updates are recorded but do not trigger refreshes. After
// disposal nothing is resolved and every subscription has been released.
//
// # Hot swaps
//
// Each GetView starts a new resolution generation. The previous generation
// stays subscribed, through the agent's [Ledger], until the new one produces
// its first view. Shared sources such as a store's state stream therefore
// keep their replayed value across renders.
//
// # Errors
//
// A generation that fails is reported as an *errors.ResolutionError through
// the error handler and the last good view is kept. Only a synchronous
// failure with no earlier view is returned from GetView.
//
// # Threading
//
// Agents are NOT thread-safe. GetView, SetMounted and every stream feeding
// a shape must run on the loop goroutine.
package core
