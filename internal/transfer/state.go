package transfer

// State is the lifecycle stage of a Session.
type State int

const (
	Disconnected State = iota
	Connected
	Busy
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Busy:
		return "busy"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
