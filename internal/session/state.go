package session

// ConnState is the broker session state as the manager sees it. Connected
// implies the transport is usable for publish and subscribe right now.
type ConnState uint32

const (
	// Disconnected means no usable session exists and no attempt is in
	// flight. The boot state.
	Disconnected ConnState = iota

	// ConnectRequested means one attempt is running on the helper
	// goroutine; its outcome has not been consumed yet.
	ConnectRequested

	// Connected means the session is up and the command topic is
	// subscribed.
	Connected
)

// String returns the state name used in logs and the web API.
func (s ConnState) String() string {
	switch s {
	case ConnectRequested:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}
