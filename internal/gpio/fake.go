package gpio

import "sync"

// FakeBoard is a test double with a settable button level and a recorded
// relay drive history. Safe for concurrent use: tests press the button from
// one goroutine while the control loop samples from another.
type FakeBoard struct {
	mu          sync.Mutex
	relayOn     bool
	transitions []bool
	buttonDown  bool
	closed      bool

	// SetError, if set, is returned by SetRelay.
	SetError error

	// ReadError, if set, is returned by ButtonPressed.
	ReadError error
}

// NewFakeBoard creates a FakeBoard with the relay off and the button up.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{}
}

// SetRelay records the drive and the transition history.
func (f *FakeBoard) SetRelay(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	f.relayOn = on
	f.transitions = append(f.transitions, on)
	return nil
}

// ButtonPressed returns the current scripted button level.
func (f *FakeBoard) ButtonPressed() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.buttonDown, nil
}

// Close drives the relay off and marks the board as closed, mirroring the
// real board's shutdown behaviour.
func (f *FakeBoard) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relayOn = false
	f.closed = true
	return nil
}

// PressButton sets the button level to held.
func (f *FakeBoard) PressButton() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buttonDown = true
}

// ReleaseButton sets the button level to released.
func (f *FakeBoard) ReleaseButton() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buttonDown = false
}

// RelayOn reports the current drive level.
func (f *FakeBoard) RelayOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.relayOn
}

// Transitions returns a copy of every SetRelay value in order.
func (f *FakeBoard) Transitions() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.transitions))
	copy(out, f.transitions)
	return out
}

// Closed reports whether Close was called.
func (f *FakeBoard) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
