package transport

// State is the lifecycle state of a Transport.
type State int32

const (
	// StateOpen accepts sends and receives.
	StateOpen State = iota

	// StateClosed was closed by the owner with Close.
	StateClosed

	// StateFailed hit a connection-fatal error. Err returns it.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
