package workflow

// State is a step of the analysis state machine.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	// StateClassifying covers the concurrent classification and community calls.
	StateClassifying
	StateAggregating
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateFetching:    "fetching",
	StateExtracting:  "extracting",
	StateClassifying: "classifying",
	StateAggregating: "aggregating",
	StateCompleted:   "completed",
	StateFailed:      "failed",
	StateCancelled:   "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
