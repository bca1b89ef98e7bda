package transport

// State is the observable connection state. A drop while connected goes back
// to Connecting, not Disconnected, so callers can tell "retrying" from "gave
// up"; Disconnected is reached only after exhausting retries or an explicit
// Disconnect. Errored is terminal and carries a human-readable message.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Errored
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}
