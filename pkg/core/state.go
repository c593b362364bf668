package core

// Phase is the lifecycle phase of an Agent.
type Phase int

const (
	// PhaseUnmounted is the initial phase: views resolve but updates never
	// ask the host to refresh.
	PhaseUnmounted Phase = iota
	// PhaseMounted is entered once the host has painted the first view.
	PhaseMounted
	// PhaseDisposed is terminal.
	PhaseDisposed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnmounted:
		return "unmounted"
	case PhaseMounted:
		return "mounted"
	case PhaseDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// AgentState is a snapshot of an agent's state.
type AgentState struct {
	View    any
	HasView bool
	Phase   Phase
	// Generation counts the shapes submitted so far.
	Generation uint64
	// Ledger is the number of keep-alive subscriptions held.
	Ledger int
	// RefreshPending is set while a debounced refresh is armed.
	RefreshPending bool
}
