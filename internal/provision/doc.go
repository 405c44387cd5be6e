// Package provision manages configuration changes made while the daemon is
// running: the web UI submits a new document, the store validates and
// persists it, and a reboot-pending flag tells the control loop to restart
// the process so the new configuration takes effect.
//
// Applying configuration by restart is deliberate. Every subsystem reads
// its settings once at startup, which keeps them free of reload plumbing;
// a relay controller restarting takes well under a second and the relay
// line itself is re-driven to a known state on the way up.
//
// The store holds the running configuration as an immutable snapshot.
// Current returns copies, so handlers can render or mutate a document
// freely before handing it back to Update. Writes go through Config.Save,
// which replaces the file atomically.
package provision
