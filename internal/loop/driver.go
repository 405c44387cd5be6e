package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/relay"
)

// rebootDelay is the pause between noticing a restart request and
// stopping the loop. It gives the HTTP response that triggered the
// request time to reach the browser.
const rebootDelay = time.Second

// Coordinator is the slice of the action coordinator the loop drives.
// Satisfied by *relay.Coordinator.
type Coordinator interface {
	Submit(cmd relay.Command)
	Tick(now time.Time)
}

// Session is the slice of the connection manager the loop drives.
// Satisfied by *session.Manager.
type Session interface {
	Tick(now time.Time)
}

// Button reads the hardware button level. Satisfied by gpio.Board.
type Button interface {
	ButtonPressed() (bool, error)
}

// RebootFlag reports whether a restart was requested.
// Satisfied by *provision.Store.
type RebootFlag interface {
	RebootPending() bool
}

// Logger is the leveled logging surface the loop needs.
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

// Deps holds the collaborators the Driver ticks.
type Deps struct {
	Coordinator Coordinator
	Session     Session
	Button      Button
	Reboot      RebootFlag

	// Inbound carries commands decoded from the MQTT action topic.
	Inbound <-chan relay.Command

	Config config.ControlConfig
}

// Driver runs the control loop. Create with New, drive with Run.
type Driver struct {
	coord   Coordinator
	sess    Session
	button  Button
	reboot  RebootFlag
	inbound <-chan relay.Command
	logger  Logger

	poll time.Duration

	// sleep is swapped out by tests to avoid real pre-restart delays.
	sleep func(time.Duration)

	// buttonErrLogged suppresses repeat warnings while a read failure
	// persists; a successful read re-arms it.
	buttonErrLogged bool
}

// New creates a Driver.
//
// Parameters:
//   - deps: Collaborators; all are required (off-target deployments pass
//     the fake board, never a nil Button)
//
// Returns:
//   - *Driver: ready to Run
//   - error: If a required dependency is missing
func New(deps Deps) (*Driver, error) {
	if deps.Coordinator == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if deps.Button == nil {
		return nil, fmt.Errorf("button is required")
	}
	if deps.Reboot == nil {
		return nil, fmt.Errorf("reboot flag is required")
	}
	if deps.Inbound == nil {
		return nil, fmt.Errorf("inbound command channel is required")
	}

	return &Driver{
		coord:   deps.Coordinator,
		sess:    deps.Session,
		button:  deps.Button,
		reboot:  deps.Reboot,
		inbound: deps.Inbound,
		logger:  noopLogger{},
		poll:    deps.Config.PollInterval(),
		sleep:   time.Sleep,
	}, nil
}

// SetLogger installs a logger. A nil logger is ignored.
func (d *Driver) SetLogger(l Logger) {
	if l != nil {
		d.logger = l
	}
}

// Run ticks the loop until the context is cancelled or a restart is
// requested.
//
// Parameters:
//   - ctx: Cancelling it stops the loop cleanly
//
// Returns:
//   - error: nil on cancellation, ErrRebootRequested when the
//     provisioning subsystem asked for a restart
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	d.logger.Info("control loop running", "poll", d.poll.String())

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("control loop stopping")
			return nil
		case <-ticker.C:
			if err := d.tick(time.Now()); err != nil {
				return err
			}
		}
	}
}

// tick performs one pass of the loop. The order of phases is fixed; see
// the package documentation.
func (d *Driver) tick(now time.Time) error {
	d.drainInbound()
	d.sess.Tick(now)

	if d.reboot.RebootPending() {
		d.logger.Info("restart requested, stopping loop", "delay", rebootDelay.String())
		d.sleep(rebootDelay)
		return ErrRebootRequested
	}

	d.sampleButton()
	d.coord.Tick(now)
	return nil
}

// drainInbound moves every queued MQTT command into the coordinator.
// Multiple commands in one tick overwrite each other's pending slot,
// which is the documented last-writer-wins behaviour.
func (d *Driver) drainInbound() {
	for {
		select {
		case cmd := <-d.inbound:
			d.coord.Submit(cmd)
		default:
			return
		}
	}
}

// sampleButton reads the button level and submits a toggle while it is
// held. The coordinator's debounce window coalesces the stream into one
// commit per window.
func (d *Driver) sampleButton() {
	pressed, err := d.button.ButtonPressed()
	if err != nil {
		if !d.buttonErrLogged {
			d.logger.Warn("button read failed", "error", err)
			d.buttonErrLogged = true
		}
		return
	}
	d.buttonErrLogged = false

	if pressed {
		d.coord.Submit(relay.CommandToggle)
	}
}
