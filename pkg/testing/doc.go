// Package testing provides deterministic time for tests of streams, agents
// and renderers.
//
// # Quick Start
//
// Drive an agent with a manual scheduler and flush deferred work explicitly:
//
//	func TestCounter(t *testing.T) {
//	    sched := rxtest.NewScheduler()
//	    agent := core.New(host.Refresh, core.WithScheduler(sched))
//	    view, _ := agent.GetView(shape)
//	    agent.SetMounted(true)
//
//	    ticks.Next(1)
//	    if sched.Pending() != 1 {
//	        t.Error("expected one pending refresh")
//	    }
//	    sched.Flush()
//	}
//
// # Timers
//
// Scheduler.Advance moves the fake clock forward and runs every timer that
// falls due, in due-time order:
//
//	sched.Advance(100 * time.Millisecond)
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import rxtest "github.com/go-drift/reactive/pkg/testing"
package testing
