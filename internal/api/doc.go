// Package api implements the HTTP status and provisioning server for relayd.
//
// This package provides:
//   - the embedded web page (status display and configuration form)
//   - REST endpoints for the status snapshot and the configuration round-trip
//   - a WebSocket hub pushing relay and connection state changes
//   - middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The server never touches the control loop. Relay and connection state are
// read through narrow interfaces backed by atomic snapshots, so handler
// goroutines observe the loop without synchronising with it. Configuration
// updates go through the provisioning store, which validates and persists
// them and raises the restart flag the loop honours; the running process
// keeps its boot-time configuration until then.
//
// # Trust model
//
// The server binds to the LAN and is unauthenticated, matching the relay
// firmware it replaces. Do not expose it beyond the local network.
package api
