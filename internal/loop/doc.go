// Package loop drives the relay control loop.
//
// Everything that mutates relay state runs on one cooperative loop, and
// the ordering of that loop is load-bearing: it is what guarantees a held
// button coalesces into one toggle per debounce window and that a restart
// request wins over further relay activity. The Driver runs that loop on
// a single goroutine. Each tick, in order:
//
//  1. drain inbound MQTT commands into the coordinator's pending slot
//     (the transport's network goroutines stop at a channel boundary,
//     nothing foreign runs inside the tick)
//  2. advance the connection manager
//  3. honour a pending restart request (brief fixed delay, then the loop
//     returns ErrRebootRequested and main re-execs the process)
//  4. sample the hardware button level
//  5. advance the action coordinator (debounce window, commits)
//
// The web server needs no servicing here; it runs on its own goroutines
// and observes loop state through atomic snapshots only.
//
// Everything the Driver mutates is owned by this one goroutine. The only
// suspensions are the coordinator's bounded flash pulse and the fixed
// pre-restart delay.
package loop
