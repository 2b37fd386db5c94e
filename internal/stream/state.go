package stream

// State is the lifecycle of one decoded input.
type State int32

const (
	// Open: chunks may still arrive.
	Open State = iota
	// Draining: the channel is closed but buffered bytes may still yield frames.
	Draining
	// Closed: no further frames are derivable.
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
