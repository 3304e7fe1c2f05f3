package cycle

// Phase is the controller lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseInProgress
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseInProgress:
		return "in progress"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
