package relay

import (
	"errors"
	"fmt"
)

// ===== Relay State =====

// State is the committed relay state. It mirrors the physical output pin
// 1:1: the pin is only ever driven by the commit step, and the commit step
// only ever records what it successfully drove.
//
// The underlying type is uint32 so the coordinator can store it atomically
// for lock-free reads from the HTTP side.
type State uint32

const (
	// Off is the de-energised state and the boot state.
	Off State = iota

	// On is the energised state.
	On
)

// String returns the wire payload for the state, "ON" or "OFF". The same
// text appears on the status topic and in the web API.
func (s State) String() string {
	if s == On {
		return "ON"
	}
	return "OFF"
}

// Inverse returns the opposite state.
func (s State) Inverse() State {
	if s == On {
		return Off
	}
	return On
}

// ===== Actions =====

// Action is one entry for the pending slot: a concrete relay mutation with
// TOGGLE already resolved away.
type Action uint8

const (
	// ActionNone marks an empty pending slot.
	ActionNone Action = iota

	// ActionSetOn commits the relay to On.
	ActionSetOn

	// ActionSetOff commits the relay to Off.
	ActionSetOff

	// ActionFlash pulses the relay on and restores the pre-pulse state.
	ActionFlash
)

// String names the action for logs.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSetOn:
		return "set-on"
	case ActionSetOff:
		return "set-off"
	case ActionFlash:
		return "flash"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// ===== Commands =====

// Command is a decoded inbound instruction, before TOGGLE resolution.
type Command uint8

const (
	// CommandOn requests the On state.
	CommandOn Command = iota

	// CommandOff requests the Off state.
	CommandOff

	// CommandToggle requests the inverse of the current state.
	CommandToggle

	// CommandFlash requests a momentary pulse.
	CommandFlash

	// CommandReport requests an immediate status publish.
	CommandReport
)

// String names the command for logs.
func (c Command) String() string {
	switch c {
	case CommandOn:
		return "ON"
	case CommandOff:
		return "OFF"
	case CommandToggle:
		return "TOGGLE"
	case CommandFlash:
		return "FLASH"
	case CommandReport:
		return "REPORT"
	default:
		return fmt.Sprintf("command(%d)", uint8(c))
	}
}

// ErrUnknownCommand is returned by ParseCommand for unrecognised payloads.
// Callers log and drop; a stray payload on the action topic is noise, not a
// fault.
var ErrUnknownCommand = errors.New("relay: unknown command")

// ParseCommand decodes an action-topic payload. Matching is exact and
// case-sensitive: "on" and "ON " are both rejected.
//
// Parameters:
//   - payload: raw message body from the action topic
//
// Returns:
//   - Command: the decoded command on success
//   - error: ErrUnknownCommand (wrapped with the payload) otherwise
func ParseCommand(payload []byte) (Command, error) {
	switch string(payload) {
	case "ON":
		return CommandOn, nil
	case "OFF":
		return CommandOff, nil
	case "TOGGLE":
		return CommandToggle, nil
	case "FLASH":
		return CommandFlash, nil
	case "REPORT":
		return CommandReport, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, payload)
	}
}
