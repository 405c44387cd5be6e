package loop

import "errors"

// ErrRebootRequested is returned by Run when the provisioning subsystem
// asked for a restart. The caller is expected to re-exec the process.
var ErrRebootRequested = errors.New("loop: restart requested")
