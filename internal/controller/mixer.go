package controller

import (
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/motor"
)

// maxCollective is the top of the collective throttle range.
const maxCollective = 2000

// Mixer turns collective throttle and the three axis outputs into quad-X
// motor commands.
type Mixer struct {
	PropsOut bool
	Idle     int32 // lowest command while armed
	Max      int32 // highest command
}

// Mix returns the raw per-motor commands, mapped from 0..2000 onto
// Idle..Max but not yet bounded.
func (m Mixer) Mix(throttle, roll, pitch, yaw fixed.Fix32) [motor.Count]int32 {
	if !m.PropsOut {
		yaw = yaw.Neg()
	}
	var t [motor.Count]int32
	t[motor.RR] = m.scale(throttle.Sub(roll).Add(pitch).Add(yaw))
	t[motor.FR] = m.scale(throttle.Sub(roll).Sub(pitch).Sub(yaw))
	t[motor.RL] = m.scale(throttle.Add(roll).Add(pitch).Sub(yaw))
	t[motor.FL] = m.scale(throttle.Add(roll).Sub(pitch).Add(yaw))
	return t
}

func (m Mixer) scale(v fixed.Fix32) int32 {
	return v.Int()*(m.Max-m.Idle)/maxCollective + m.Idle
}

// Output mixes, rebalances and converts to a motor command.
func (m Mixer) Output(throttle, roll, pitch, yaw fixed.Fix32) [motor.Count]uint16 {
	t := m.Mix(throttle, roll, pitch, yaw)
	Rebalance(&t, m.Idle, m.Max)
	var out [motor.Count]uint16
	for i, v := range t {
		out[i] = uint16(v)
	}
	return out
}

// Rebalance brings every command into [idle, max]. A motor above max is set
// to max and the excess is taken from the other three; then a motor below
// idle is set to idle and the deficit is given to the other three. A final
// clamp catches what the two passes pushed out again. Commands already in
// range are left alone.
func Rebalance(t *[motor.Count]int32, idle, max int32) {
	for i := range t {
		if t[i] > max {
			shift(t, i, max-t[i])
			t[i] = max
		}
	}
	for i := range t {
		if t[i] < idle {
			shift(t, i, idle-t[i])
			t[i] = idle
		}
	}
	for i := range t {
		if t[i] > max {
			t[i] = max
		}
		if t[i] < idle {
			t[i] = idle
		}
	}
}

// shift adds d to every motor except skip.
func shift(t *[motor.Count]int32, skip int, d int32) {
	for j := range t {
		if j != skip {
			t[j] += d
		}
	}
}
