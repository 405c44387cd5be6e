// Package gpio drives the relay output line and samples the push-button
// input. The real implementation uses the Linux GPIO character device; the
// fake implementation allows testing without hardware.
//
// Active-low wiring is handled at request time via the kernel's active-low
// flag, so every value crossing this package boundary is logical: true
// means the relay is energised, true means the button is held.
package gpio

import "github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"

// FakeChipName selects the in-memory board instead of real hardware.
// Useful on development hosts without a GPIO character device; the rest
// of the daemon (MQTT, web, loop) behaves normally.
const FakeChipName = "fake"

// Board abstracts the two GPIO lines the daemon uses.
type Board interface {
	// SetRelay drives the relay line. true energises the load.
	SetRelay(on bool) error

	// ButtonPressed samples the push-button level. It reports level, not
	// edges; the control loop detects transitions between samples.
	ButtonPressed() (bool, error)

	// Close drives the relay off and releases both lines.
	Close() error
}

// NewBoard returns the Board for the configured chip.
//
// Parameters:
//   - cfg: GPIO configuration; a Chip of FakeChipName selects the fake
//
// Returns:
//   - Board: real hardware lines or the in-memory fake
//   - error: If the chip or lines cannot be requested
func NewBoard(cfg config.GPIOConfig) (Board, error) {
	if cfg.Chip == FakeChipName {
		return NewFakeBoard(), nil
	}
	board, err := NewRealBoard(cfg)
	if err != nil {
		return nil, err
	}
	return board, nil
}
