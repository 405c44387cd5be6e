//go:build !linux

package gpio

import (
	"errors"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(_ config.GPIOConfig) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetRelay is not implemented on non-Linux platforms.
func (b *RealBoard) SetRelay(bool) error {
	return errors.New("gpio: not supported")
}

// ButtonPressed is not implemented on non-Linux platforms.
func (b *RealBoard) ButtonPressed() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}
