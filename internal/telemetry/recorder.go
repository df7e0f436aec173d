// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry exposes the control tick's latest values to slower
// consumers. The tick writes word-sized atomics into a Recorder; a publisher
// loads them into a Frame and ships it as JSON over MQTT.
package telemetry

import (
	"math"
	"sync/atomic"

	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/orientation"
)

// Axis indices shared with the controller.
const (
	Roll = iota
	Pitch
	Yaw

	numAxes
)

// Term indices within an axis.
const (
	TermP = iota
	TermI
	TermD
	TermFF
	TermS

	numTerms
)

// Recorder holds the most recent tick values. Each field has one writer (the
// control tick); a Frame loaded concurrently may mix two consecutive ticks.
type Recorder struct {
	tick  atomic.Uint32
	armed atomic.Bool
	mode  atomic.Int32

	channels  [4]atomic.Int32
	setpoints [numAxes]atomic.Int32 // Fix32 raw
	gyro      [numAxes]atomic.Int32 // Fix32 raw
	terms     [numAxes][numTerms]atomic.Int32

	throttle     atomic.Int32 // Fix32 raw
	vVelSetpoint atomic.Int32 // Fix32 raw
	motors       [4]atomic.Uint32

	roll, pitch, yaw atomic.Int32 // Fix32 raw
	heading          atomic.Int32
	vVel, altitude   atomic.Int64 // Fix64 raw
}

// SetState records the tick counter, arm state and flight mode. The tick
// counter saturates.
func (r *Recorder) SetState(armed bool, mode int32) {
	if n := r.tick.Load(); n < math.MaxUint32 {
		r.tick.Store(n + 1)
	}
	r.armed.Store(armed)
	r.mode.Store(mode)
}

// SetChannels records the smoothed roll, pitch, throttle and yaw sticks.
func (r *Recorder) SetChannels(roll, pitch, throttle, yaw int32) {
	r.channels[0].Store(roll)
	r.channels[1].Store(pitch)
	r.channels[2].Store(throttle)
	r.channels[3].Store(yaw)
}

// SetAxis records the setpoint, measured rate and the five PID terms of one
// axis.
func (r *Recorder) SetAxis(axis int, setpoint, rate fixed.Fix32, terms *[5]fixed.Fix32) {
	r.setpoints[axis].Store(setpoint.Raw())
	r.gyro[axis].Store(rate.Raw())
	for i := range terms {
		r.terms[axis][i].Store(terms[i].Raw())
	}
}

// SetOutput records the collective throttle, vertical velocity setpoint and
// the four motor values.
func (r *Recorder) SetOutput(throttle, vVelSetpoint fixed.Fix32, motors [4]uint16) {
	r.throttle.Store(throttle.Raw())
	r.vVelSetpoint.Store(vVelSetpoint.Raw())
	for i, m := range motors {
		r.motors[i].Store(uint32(m))
	}
}

// SetAttitude records the estimator output.
func (r *Recorder) SetAttitude(a orientation.Attitude) {
	r.roll.Store(a.Roll.Raw())
	r.pitch.Store(a.Pitch.Raw())
	r.yaw.Store(a.Yaw.Raw())
	r.heading.Store(a.Heading)
	r.vVel.Store(a.VerticalVelocity.Raw())
	r.altitude.Store(a.Altitude.Raw())
}

// Attitude returns the last recorded estimator output.
func (r *Recorder) Attitude() orientation.Attitude {
	return orientation.Attitude{
		Roll:             fixed.Fix32FromRaw(r.roll.Load()),
		Pitch:            fixed.Fix32FromRaw(r.pitch.Load()),
		Yaw:              fixed.Fix32FromRaw(r.yaw.Load()),
		Heading:          r.heading.Load(),
		VerticalVelocity: fixed.Fix64FromRaw(r.vVel.Load()),
		Altitude:         fixed.Fix64FromRaw(r.altitude.Load()),
	}
}

// Ticks returns how many ticks have been recorded.
func (r *Recorder) Ticks() uint32 { return r.tick.Load() }
