package mqtt

import "time"

// State describes the connection lifecycle of the client.
//
// Transitions:
//
//	Disconnected -> Connecting          (Start, or a backoff delay elapsing)
//	Connecting   -> Connected           (broker accepted the connection)
//	Connecting   -> Backoff             (transient connect failure)
//	Connected    -> Backoff             (connection lost)
//	any          -> Disconnected        (Close, or fatal auth failure)
//
// There is exactly one goroutine driving reconnection, so two states are
// never active at once and no concurrent connect attempts are possible.
type State int

const (
	// StateDisconnected means no connection exists and none is being attempted.
	StateDisconnected State = iota

	// StateConnecting means a connect attempt is in flight.
	StateConnecting

	// StateConnected means the client holds a live broker connection.
	StateConnected

	// StateBackoff means the client is waiting out a delay before the
	// next connect attempt.
	StateBackoff
)

// String returns the lowercase name of the state for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// StateSnapshot is a point-in-time view of the connection state.
// Attempt and NextRetry are only meaningful in StateBackoff.
type StateSnapshot struct {
	State     State
	Attempt   int
	NextRetry time.Time
}
