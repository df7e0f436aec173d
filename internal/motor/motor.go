// Package motor defines the command handed to the ESC driver each tick and
// a bench output that logs instead of spinning motors.
package motor

// Motor positions on a quad-X frame, as indices into Command.Throttle.
const (
	RR = iota // rear right
	FR        // front right
	RL        // rear left
	FL        // front left

	Count
)

// Throttle range of a regular command.
const MaxThrottle = 2000

// DShot special commands, sent in place of a throttle value while disarmed.
const (
	CmdMotorStop uint16 = iota
	CmdBeacon1
	CmdBeacon2
	CmdBeacon3
	CmdBeacon4
	CmdBeacon5
)

// Command is one frame for the four ESCs. When Special is non-zero every
// motor receives that special command and Throttle is ignored.
type Command struct {
	Throttle [Count]uint16
	Special  uint16
}

// Telemetry is what an ESC reports back about one motor.
type Telemetry struct {
	RPM   uint32 `json:"rpm"`
	Valid bool   `json:"valid"`
}

// Output drives the ESCs. Send must not block the control tick.
type Output interface {
	Send(cmd Command) error
	Telemetry() [Count]Telemetry
}
