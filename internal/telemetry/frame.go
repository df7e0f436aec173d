package telemetry

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/orientation"
)

// Flags selects which field groups a Frame carries.
type Flags uint32

const (
	FlagChannels Flags = 1 << iota
	FlagSetpoints
	FlagGyro
	FlagPIDTerms
	FlagMotors
	FlagAttitude
	FlagAltitude

	FlagAll = FlagChannels | FlagSetpoints | FlagGyro | FlagPIDTerms | FlagMotors | FlagAttitude | FlagAltitude
)

var flagNames = map[string]Flags{
	"rc":        FlagChannels,
	"setpoints": FlagSetpoints,
	"gyro":      FlagGyro,
	"pid":       FlagPIDTerms,
	"motors":    FlagMotors,
	"attitude":  FlagAttitude,
	"altitude":  FlagAltitude,
	"all":       FlagAll,
}

// ParseFlags reads a comma separated list such as "rc,setpoints,motors".
// An empty string selects every group.
func ParseFlags(s string) (Flags, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FlagAll, nil
	}
	var f Flags
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		v, ok := flagNames[name]
		if !ok {
			return 0, errors.Errorf("unknown telemetry field group %q", name)
		}
		f |= v
	}
	return f, nil
}

// PIDTerms are the five terms of one axis.
type PIDTerms struct {
	P  float64 `json:"p"`
	I  float64 `json:"i"`
	D  float64 `json:"d"`
	FF float64 `json:"ff"`
	S  float64 `json:"s"`
}

// Frame is one telemetry record. Groups not selected by the flags are left
// empty and omitted from JSON.
type Frame struct {
	Tick  uint32 `json:"tick"`
	Armed bool   `json:"armed"`
	Mode  int32  `json:"mode"`

	Channels  []int32    `json:"rc,omitempty"`        // roll, pitch, throttle, yaw
	Setpoints []float64  `json:"setpoints,omitempty"` // deg/s, roll pitch yaw
	Gyro      []float64  `json:"gyro,omitempty"`      // deg/s
	PID       []PIDTerms `json:"pid,omitempty"`

	Throttle float64  `json:"throttle"`
	Motors   []uint16 `json:"motors,omitempty"`

	Attitude *orientation.Pose `json:"attitude,omitempty"`
	VVelSet  *float64          `json:"vvel_setpoint,omitempty"`
}

// Load copies the current values into a Frame.
func (r *Recorder) Load(flags Flags) Frame {
	f := Frame{
		Tick:     r.tick.Load(),
		Armed:    r.armed.Load(),
		Mode:     r.mode.Load(),
		Throttle: fix32(&r.throttle),
	}
	if flags&FlagChannels != 0 {
		f.Channels = make([]int32, len(r.channels))
		for i := range r.channels {
			f.Channels[i] = r.channels[i].Load()
		}
	}
	if flags&FlagSetpoints != 0 {
		f.Setpoints = make([]float64, numAxes)
		for i := range r.setpoints {
			f.Setpoints[i] = fix32(&r.setpoints[i])
		}
	}
	if flags&FlagGyro != 0 {
		f.Gyro = make([]float64, numAxes)
		for i := range r.gyro {
			f.Gyro[i] = fix32(&r.gyro[i])
		}
	}
	if flags&FlagPIDTerms != 0 {
		f.PID = make([]PIDTerms, numAxes)
		for i := range r.terms {
			t := &r.terms[i]
			f.PID[i] = PIDTerms{
				P:  fix32(&t[TermP]),
				I:  fix32(&t[TermI]),
				D:  fix32(&t[TermD]),
				FF: fix32(&t[TermFF]),
				S:  fix32(&t[TermS]),
			}
		}
	}
	if flags&FlagMotors != 0 {
		f.Motors = make([]uint16, len(r.motors))
		for i := range r.motors {
			f.Motors[i] = uint16(r.motors[i].Load())
		}
	}
	if flags&(FlagAttitude|FlagAltitude) != 0 {
		pose := orientation.PoseFromAttitude(r.Attitude())
		if flags&FlagAttitude == 0 {
			pose.Roll, pose.Pitch, pose.Yaw, pose.Heading = 0, 0, 0, 0
		}
		if flags&FlagAltitude == 0 {
			pose.VerticalVelocity, pose.Altitude = 0, 0
		} else {
			v := fix32(&r.vVelSetpoint)
			f.VVelSet = &v
		}
		f.Attitude = &pose
	}
	return f
}

type int32Loader interface{ Load() int32 }

func fix32(v int32Loader) float64 {
	return fixed.Fix32FromRaw(v.Load()).Float()
}
