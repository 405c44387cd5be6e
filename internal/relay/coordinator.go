package relay

import (
	"sync/atomic"
	"time"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

// ===== Collaborator Seams =====

// Driver drives the physical relay line. *gpio.RealBoard and
// *gpio.FakeBoard both satisfy it.
type Driver interface {
	SetRelay(on bool) error
}

// Reporter publishes the committed state. The coordinator ignores delivery
// problems beyond a debug log; the reporter has already logged the detail.
type Reporter interface {
	Report(s State) error
}

// Logger is the leveled logging surface the coordinator needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ===== Coordinator =====

// Coordinator owns the committed relay state, the pending-action slot and
// the debounce window. Submit and Tick are loop-goroutine only; Current is
// safe from any goroutine.
type Coordinator struct {
	driver   Driver
	reporter Reporter
	logger   Logger

	debounce    time.Duration
	flashPulse  time.Duration
	reportPulse bool

	state      atomic.Uint32
	pending    Action
	lastCommit time.Time

	// sleep is swapped out in tests so flash pulses take no wall time.
	sleep func(time.Duration)
}

// NewCoordinator builds a coordinator with the relay off and the pending
// slot empty. The first commit after construction is not debounce-gated;
// there is no previous commit to space against.
//
// Parameters:
//   - driver: physical output line
//   - reporter: status publisher invoked after every commit
//   - cfg: debounce window, flash pulse length and pulse reporting policy
//
// Returns:
//   - *Coordinator: ready for Submit/Tick from the control loop
func NewCoordinator(driver Driver, reporter Reporter, cfg config.ControlConfig) *Coordinator {
	return &Coordinator{
		driver:      driver,
		reporter:    reporter,
		logger:      noopLogger{},
		debounce:    cfg.DebounceInterval(),
		flashPulse:  cfg.FlashPulse(),
		reportPulse: cfg.ReportPulse,
		sleep:       time.Sleep,
	}
}

// SetLogger installs a logger. A nil logger is ignored.
func (c *Coordinator) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// Current returns the committed relay state. Safe from any goroutine.
func (c *Coordinator) Current() State {
	return State(c.state.Load())
}

// Submit dispatches one decoded command. REPORT publishes immediately and
// touches nothing else; every other command lands in the pending slot,
// overwriting an unconsumed predecessor. TOGGLE resolves against the
// committed state now, not at commit time.
//
// Loop goroutine only.
func (c *Coordinator) Submit(cmd Command) {
	switch cmd {
	case CommandReport:
		c.report()
	case CommandOn:
		c.setPending(ActionSetOn)
	case CommandOff:
		c.setPending(ActionSetOff)
	case CommandToggle:
		if c.Current() == On {
			c.setPending(ActionSetOff)
		} else {
			c.setPending(ActionSetOn)
		}
	case CommandFlash:
		c.setPending(ActionFlash)
	}
}

// Tick commits the pending action if the slot is occupied and the debounce
// window since the last commit has elapsed. A held action stays in the
// slot; nothing is dropped by an early tick.
//
// Loop goroutine only.
func (c *Coordinator) Tick(now time.Time) {
	if c.pending == ActionNone {
		return
	}
	if !c.lastCommit.IsZero() && now.Sub(c.lastCommit) < c.debounce {
		return
	}

	action := c.pending
	c.pending = ActionNone

	switch action {
	case ActionSetOn:
		c.commitSet(On, now)
	case ActionSetOff:
		c.commitSet(Off, now)
	case ActionFlash:
		c.commitFlash(now)
	}
}

func (c *Coordinator) setPending(a Action) {
	if c.pending != ActionNone && c.pending != a {
		c.logger.Debug("pending action superseded", "old", c.pending, "new", a)
	}
	c.pending = a
}

// commitSet drives the relay to target. A target equal to the current
// state is discarded without updating the window, so redundant commands
// cannot delay a later real change.
func (c *Coordinator) commitSet(target State, now time.Time) {
	if target == c.Current() {
		c.logger.Debug("no-op command discarded", "state", target)
		return
	}

	if err := c.drive(target); err != nil {
		c.logger.Error("relay drive failed", "target", target, "error", err)
		return
	}

	c.lastCommit = now
	c.logger.Info("relay state committed", "state", target)
	c.report()
}

// commitFlash pulses the relay on, then restores the pre-pulse state. The
// sleep in the middle is the one deliberate suspension of the control
// loop; the pulse is short and the loop has nothing better to do during
// it. The debounce window starts at pulse start.
func (c *Coordinator) commitFlash(now time.Time) {
	prior := c.Current()

	if err := c.drive(On); err != nil {
		c.logger.Error("relay drive failed", "target", On, "error", err)
		return
	}

	c.lastCommit = now
	c.logger.Info("flash pulse started", "restore", prior, "pulse", c.flashPulse)

	if c.reportPulse && prior != On {
		c.report()
	}

	c.sleep(c.flashPulse)

	if err := c.drive(prior); err != nil {
		// The mirrored state keeps the last successfully driven value.
		c.logger.Error("relay drive failed", "target", prior, "error", err)
	}

	c.report()
}

// drive sets the pin and, only on success, the mirrored state.
func (c *Coordinator) drive(target State) error {
	if err := c.driver.SetRelay(target == On); err != nil {
		return err
	}
	c.state.Store(uint32(target))
	return nil
}

func (c *Coordinator) report() {
	if err := c.reporter.Report(c.Current()); err != nil {
		c.logger.Debug("status report not delivered", "error", err)
	}
}
