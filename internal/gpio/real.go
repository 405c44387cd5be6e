//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

// RealBoard owns the relay and button lines on actual hardware.
type RealBoard struct {
	chip   *gpiocdev.Chip
	relay  *gpiocdev.Line
	button *gpiocdev.Line
}

// NewRealBoard opens the configured chip and requests both lines. The relay
// line is requested as an output driven logically off, so a restart never
// inherits a stuck-on load.
func NewRealBoard(cfg config.GPIOConfig) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	relayOpts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if cfg.Relay.ActiveLow {
		relayOpts = append(relayOpts, gpiocdev.AsActiveLow)
	}
	relay, err := chip.RequestLine(cfg.Relay.Pin, relayOpts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", cfg.Relay.Pin, err)
	}

	buttonOpts := []gpiocdev.LineReqOption{gpiocdev.AsInput, pullOption(cfg.Button.Pull)}
	if cfg.Button.ActiveLow {
		buttonOpts = append(buttonOpts, gpiocdev.AsActiveLow)
	}
	button, err := chip.RequestLine(cfg.Button.Pin, buttonOpts...)
	if err != nil {
		relay.Close()
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", cfg.Button.Pin, err)
	}

	return &RealBoard{
		chip:   chip,
		relay:  relay,
		button: button,
	}, nil
}

// SetRelay drives the relay line.
func (b *RealBoard) SetRelay(on bool) error {
	value := 0
	if on {
		value = 1
	}
	if err := b.relay.SetValue(value); err != nil {
		return fmt.Errorf("drive relay pin: %w", err)
	}
	return nil
}

// ButtonPressed samples the button level. With the active-low flag applied
// at request time the kernel already returns logical values, so 1 means
// held for both wiring polarities.
func (b *RealBoard) ButtonPressed() (bool, error) {
	value, err := b.button.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return value != 0, nil
}

// Close drives the relay off, then releases the lines and chip. The load
// must never stay energised past the daemon's lifetime.
func (b *RealBoard) Close() error {
	var errs []error

	if b.relay != nil {
		if err := b.relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive relay off: %w", err))
		}
		if err := b.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay line: %w", err))
		}
	}
	if b.button != nil {
		if err := b.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button line: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// pullOption maps the configured bias to a request option. Validation has
// already restricted the value; unknown strings fall back to pull-up, the
// safest default for a button to ground.
func pullOption(pull string) gpiocdev.LineReqOption {
	switch pull {
	case "down":
		return gpiocdev.WithPullDown
	case "none":
		return gpiocdev.WithBiasDisabled
	default:
		return gpiocdev.WithPullUp
	}
}
