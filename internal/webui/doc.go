// Package webui serves the relay status and provisioning page as an
// embedded asset.
//
// The page is a single hand-written HTML document embedded into the Go
// binary with go:embed, so the daemon has no runtime dependency on
// external files. It reads /api/v1/status and /api/v1/config, submits
// configuration changes back over PUT, and follows live relay state on
// the /api/v1/ws WebSocket with a polling fallback.
//
// Handler serves unknown paths as the index page rather than 404, so a
// stale bookmark or deep link still lands on the UI. When a directory is
// passed, assets are served from the filesystem instead of the embedded
// copy, which keeps page edits visible without recompiling.
package webui
