// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/flight_computer/internal/filter"
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/quaternion"
	"github.com/relabs-tech/flight_computer/internal/trig"
)

// Body frame is NED: X forward, Y right, Z down. The orientation quaternion
// maps body vectors into the earth frame.

// Attitude is recomputed every tick from the orientation estimate.
type Attitude struct {
	Roll  fixed.Fix32 // rad, right wing down positive
	Pitch fixed.Fix32 // rad, nose up positive
	Yaw   fixed.Fix32 // rad, clockwise from the start heading

	// Heading is yaw plus the external bias, centidegrees in [-18000, 18000).
	Heading int32

	VerticalVelocity fixed.Fix64 // m/s, up positive
	Altitude         fixed.Fix64 // m
}

// Config describes the sensor scaling and filter constants.
type Config struct {
	SampleHz         float64
	GyroFullScaleDPS float64
	AccelFullScaleG  float64
	AccelCutoffHz    float64
	MaxCorrection    float64 // rad per tick
}

func DefaultConfig() Config {
	return Config{
		SampleHz:         3200,
		GyroFullScaleDPS: 2000,
		AccelFullScaleG:  16,
		AccelCutoffHz:    100,
		MaxCorrection:    0.0002,
	}
}

const gravity = 9.81

var (
	one            = fixed.Fix64FromInt(1)
	keep           = fixed.Fix64FromFloat(0.9999)
	blend          = fixed.Fix64FromFloat(0.0001)
	gravity64      = fixed.Fix64FromFloat(gravity)
	radToCentideg  = fixed.Fix32FromFloat(18000 / math.Pi)
	nearlyInverted = fixed.Fix64FromFloat(-(1 - 1e-7))
)

// Estimator fuses gyro and accelerometer samples into an orientation, and
// accelerometer, barometer and GPS data into vertical velocity and altitude.
type Estimator struct {
	q    quaternion.Quaternion
	down quaternion.Vec3

	accelFilter [3]filter.PT1
	accel       quaternion.Vec3 // filtered, raw counts

	att        Attitude
	vVelHelper fixed.Fix64

	inputs *Inputs

	gyroHalfAngle fixed.Fix64 // half angle per raw count per tick
	accelScale    fixed.Fix64 // m/s² per raw count
	maxCorrection fixed.Fix64
	dt            fixed.Fix64
}

func NewEstimator(cfg Config, inputs *Inputs) *Estimator {
	if inputs == nil {
		inputs = &Inputs{}
	}
	e := &Estimator{
		q:             quaternion.Identity(),
		down:          quaternion.UnitZ(),
		inputs:        inputs,
		gyroHalfAngle: fixed.Fix64FromFloat(cfg.GyroFullScaleDPS * 2 / 65536 * math.Pi / 180 / cfg.SampleHz / 2),
		accelScale:    fixed.Fix64FromFloat(gravity * cfg.AccelFullScaleG * 2 / 65536),
		maxCorrection: fixed.Fix64FromFloat(cfg.MaxCorrection),
		dt:            fixed.Fix64FromFloat(1 / cfg.SampleHz),
	}
	for i := range e.accelFilter {
		e.accelFilter[i] = filter.NewPT1(cfg.AccelCutoffHz, cfg.SampleHz)
	}
	return e
}

func (e *Estimator) Quaternion() quaternion.Quaternion { return e.q }

func (e *Estimator) Attitude() Attitude { return e.att }

// Align snaps roll and pitch to the gravity direction of one accelerometer
// sample and preloads the accelerometer filters with it. Yaw stays near zero.
func (e *Estimator) Align(accel [3]int16) {
	for i := range e.accelFilter {
		e.accelFilter[i].Set(fixed.Fix64FromInt(int64(accel[i])))
		e.accel[i] = e.accelFilter[i].Value()
	}
	m, ok := e.accel.Neg().Shr(15).Normalized()
	if !ok {
		return
	}
	e.q = quaternion.FromUnitVectors(quaternion.UnitZ(), m).Conjugate()
	e.DeriveAttitude()
}

// Update runs all estimator stages for one tick.
func (e *Estimator) Update(gyro, accel [3]int16) {
	e.IntegrateGyro(gyro)
	e.CorrectAccel(accel)
	e.DeriveAttitude()
	e.UpdateVertical()
}

// IntegrateGyro composes the small rotation measured over one tick onto the
// orientation. gyro holds raw roll, pitch and yaw rate counts.
func (e *Estimator) IntegrateGyro(gyro [3]int16) {
	dq := quaternion.Quaternion{
		W: one,
		X: e.gyroHalfAngle.MulInt(int64(gyro[0])),
		Y: e.gyroHalfAngle.MulInt(int64(gyro[1])),
		Z: e.gyroHalfAngle.MulInt(int64(gyro[2])),
	}
	e.q = quaternion.Compose(e.q, dq)
}

// CorrectAccel pulls the orientation toward the measured gravity direction by
// at most MaxCorrection radians. A near-zero specific force skips the step.
func (e *Estimator) CorrectAccel(accel [3]int16) {
	for i := range e.accelFilter {
		e.accel[i] = e.accelFilter[i].Update(fixed.Fix64FromInt(int64(accel[i])))
	}

	// Scale to full-scale units before squaring so the norm cannot overflow.
	measured, ok := e.accel.Neg().Shr(15).Normalized()
	if !ok {
		return
	}

	e.down = e.q.Conjugate().Rotate(quaternion.UnitZ())
	axis, angle := quaternion.FromUnitVectors(e.down, measured).ToAxisAngle()
	if angle.IsZero() {
		return
	}
	if angle.Greater(e.maxCorrection) {
		angle = e.maxCorrection
	}

	// The body-frame correction r moves predicted down onto measured down,
	// so the orientation becomes q⊗r*.
	half := axis.Scale(angle.Shr(1)).Neg()
	e.q = quaternion.Compose(e.q, quaternion.Quaternion{W: one, X: half[0], Y: half[1], Z: half[2]})
}

// DeriveAttitude computes roll and pitch from the shortest arc between body
// Z and the predicted down vector, and yaw from the quaternion.
func (e *Estimator) DeriveAttitude() {
	q := e.q
	e.down = q.Conjugate().Rotate(quaternion.UnitZ())

	axis, angle := tilt(e.down).ToAxisAngle()
	e.att.Roll = axis[0].Mul(angle).Neg().Fix32()
	e.att.Pitch = axis[1].Mul(angle).Neg().Fix32()

	num := q.W.Mul(q.Z).Add(q.X.Mul(q.Y)).Shl(1)
	den := one.Sub(q.Y.Mul(q.Y).Add(q.Z.Mul(q.Z)).Shl(1))
	e.att.Yaw = trig.Atan2(num.Fix32(), den.Fix32())

	e.att.Heading = WrapCentidegrees(e.att.Yaw.Mul(radToCentideg).Int() + e.inputs.HeadingBias())
}

// tilt is the rotation from body Z onto d. It is built directly rather than
// through FromUnitVectors so that tilts below the parallel threshold still
// resolve; only the inverted case needs the fallback axis.
func tilt(d quaternion.Vec3) quaternion.Quaternion {
	if d[2].Less(nearlyInverted) {
		return quaternion.FromUnitVectors(quaternion.UnitZ(), d)
	}
	return quaternion.Quaternion{W: one.Add(d[2]), X: d[1].Neg(), Y: d[0]}.Normalize()
}

// UpdateVertical advances the vertical velocity and altitude complementary
// filters by one tick.
func (e *Estimator) UpdateVertical() {
	sr, cr := trig.Sin(e.att.Roll).Fix64(), trig.Cos(e.att.Roll).Fix64()
	sp, cp := trig.Sin(e.att.Pitch).Fix64(), trig.Cos(e.att.Pitch).Fix64()

	// Earth Z (down) component of the specific force.
	fz := e.accel[0].Mul(sp).Neg().
		Add(e.accel[1].Mul(sr).Mul(cp)).
		Add(e.accel[2].Mul(cr).Mul(cp)).
		Mul(e.accelScale)
	upAccel := fz.Neg().Sub(gravity64)

	baroVel := e.inputs.baroVelocity()

	prev := e.vVelHelper
	e.vVelHelper = e.vVelHelper.Add(upAccel.Mul(e.dt))
	e.vVelHelper = e.vVelHelper.Mul(keep).Add(baroVel.Mul(blend))
	e.att.VerticalVelocity = e.att.VerticalVelocity.Add(e.vVelHelper.Sub(prev))

	measured := baroVel
	if gpsVel, ok := e.inputs.gpsVelocity(); ok {
		measured = gpsVel
	}
	e.att.VerticalVelocity = e.att.VerticalVelocity.Mul(keep).Add(measured.Mul(blend))

	e.att.Altitude = e.att.Altitude.Add(e.att.VerticalVelocity.Mul(e.dt))
	e.att.Altitude = e.att.Altitude.Mul(keep).Add(e.inputs.altitudeReference().Mul(blend))
}

// WrapCentidegrees folds an angle into [-18000, 18000).
func WrapCentidegrees(v int32) int32 {
	for v >= 18000 {
		v -= 36000
	}
	for v < -18000 {
		v += 36000
	}
	return v
}

// EulerAngles extracts ZYX roll, pitch and yaw directly from q. The estimator
// takes roll and pitch from the tilt arc instead; this form is kept for
// comparison and diagnostics.
func EulerAngles(q quaternion.Quaternion) (roll, pitch, yaw fixed.Fix32) {
	rollNum := q.W.Mul(q.X).Add(q.Y.Mul(q.Z)).Shl(1)
	rollDen := one.Sub(q.X.Mul(q.X).Add(q.Y.Mul(q.Y)).Shl(1))
	roll = trig.Atan2(rollNum.Fix32(), rollDen.Fix32())

	pitch = trig.Asin(q.W.Mul(q.Y).Sub(q.Z.Mul(q.X)).Shl(1).Fix32())

	yawNum := q.W.Mul(q.Z).Add(q.X.Mul(q.Y)).Shl(1)
	yawDen := one.Sub(q.Y.Mul(q.Y).Add(q.Z.Mul(q.Z)).Shl(1))
	yaw = trig.Atan2(yawNum.Fix32(), yawDen.Fix32())
	return roll, pitch, yaw
}
