// Package relay holds the authoritative relay state machine: the committed
// relay state, the single pending-action slot, and the debounce window that
// rate-limits physical transitions.
//
// # Ownership
//
// One goroutine (the control loop) owns all mutation. Submit and Tick must
// only be called from that goroutine. The committed state itself is stored
// atomically so the HTTP handlers and websocket pushers can read it at any
// time without locks via Current.
//
// # Command Semantics
//
// Inbound payloads decode to exactly one of ON, OFF, TOGGLE, FLASH or
// REPORT; matching is exact and case-sensitive, and anything else is
// ignored where it arrives. TOGGLE resolves against the committed state at
// submission time, so two TOGGLEs submitted within one debounce window
// cancel out to the later one's target rather than queueing.
//
// REPORT is not a state change. It never enters the pending slot and never
// consumes the debounce window; it publishes the current state immediately.
//
// # Debounce
//
// The pending slot holds at most one action and a newer submission
// overwrites an unconsumed older one. Tick commits the slot only once the
// debounce window since the previous commit has elapsed; the action is
// held, not dropped, while the window is open. A commit whose target equals
// the current state is discarded without touching the window, so redundant
// ON/ON sequences cannot push back a genuinely pending change.
//
// FLASH is the one operation allowed to block the loop: it drives the
// relay on, sleeps for the configured pulse, then restores the pre-pulse
// state. The debounce window starts at pulse start.
package relay
