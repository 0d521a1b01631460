package batch

// State is a step of the batch state machine.
type State int

const (
	Idle State = iota
	Enumerating
	Processing
	Finalizing
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Enumerating:
		return "Enumerating"
	case Processing:
		return "Processing"
	case Finalizing:
		return "Finalizing"
	case Completed:
		return "Completed"
	case Cancelled:
		return "Cancelled"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition can happen within a run.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

var transitions = map[State][]State{
	Idle:        {Enumerating, Failed},
	Enumerating: {Processing, Cancelled, Failed},
	Processing:  {Finalizing, Cancelled},
	Finalizing:  {Completed, Failed},
	// A terminal run can be reset so the processor accepts a new one.
	Completed: {Idle},
	Cancelled: {Idle},
	Failed:    {Idle},
}

// CanTransition reports whether the machine may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
