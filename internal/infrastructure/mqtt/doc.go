// Package mqtt wraps the Eclipse Paho client with the narrow surface the
// relay daemon needs: a single broker connection, one command subscription,
// and fire-and-forget publishes for status and availability.
//
// Reconnect policy lives OUTSIDE this package. Paho's automatic reconnect
// and connect retry are disabled; the session manager decides when to dial,
// observes drops via ConnectionLost, and re-subscribes after each successful
// Connect. This keeps connection state transitions in one place instead of
// racing a background paho goroutine.
//
// # Connection Contract
//
// Connect blocks until the broker accepts the session or the configured
// connect timeout expires. It is safe to call repeatedly; each call is one
// attempt. Callers run it off the hot path (the session manager dials from a
// helper goroutine) so a slow broker never stalls the control loop.
//
// A last-will message is registered on the availability topic so the broker
// announces "offline" on our behalf if the link dies uncleanly. Close
// publishes "offline" explicitly for clean shutdowns, then disconnects.
//
// # Delivery Semantics
//
// Publish does not wait for broker acknowledgement. A watcher goroutine logs
// delivery failures; the caller only sees validation and not-connected
// errors. Subscribe waits for the broker's acknowledgement so the session
// manager knows the command topic is live before declaring the session up.
//
// # TLS
//
// When TLS is enabled the dialer skips certificate verification unless
// tls_strict is set. The target deployment is a private LAN broker with a
// self-signed certificate; strict verification is the opt-in, not the
// default.
package mqtt
