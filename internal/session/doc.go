// Package session owns the MQTT connection lifecycle: when to dial, what
// to do on success, and how hard to try when the broker is away.
//
// The manager is tick-driven. Every control-loop iteration calls Tick,
// which advances a three-state machine:
//
//	Disconnected      no usable session; dial when allowed
//	ConnectRequested  one attempt in flight on a helper goroutine
//	Connected         transport usable; watch for drops
//
// Dialing happens off the loop because a connect against a dead broker
// legitimately takes the full connect timeout, and the loop must keep
// servicing the button and the web UI meanwhile. The helper goroutine
// performs connect, subscribe and the availability announcement, then
// posts its outcome to a buffered channel that the next Tick consumes. At
// most one attempt is ever in flight.
//
// Attempts are rate limited by a flat minimum interval (no backoff
// growth): a broker outage costs one cheap refused dial every couple of
// seconds, which a LAN broker can ignore indefinitely. Attempts are also
// gated on a network probe, so a host with no usable interface does not
// burn timeouts dialing nowhere.
//
// On every successful (re)connect the manager re-subscribes the command
// topic, publishes "online" to the availability topic, and fires the
// OnConnect hook. The daemon uses the hook for an immediate status report,
// which is how consumers learn the relay state right after an outage
// without waiting for the next committed change.
package session
