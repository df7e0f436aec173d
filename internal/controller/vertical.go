package controller

import (
	"math"

	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/orientation"
)

const (
	throttleDeadband = 100  // around centre, in collective units
	climbDivisor     = 180  // collective units per m/s
	altCaptureTicks  = 3200 // centred ticks before the altitude is held
)

var (
	maxAltCorrection = fixed.Fix64FromInt(2) // m/s
	maxHoverI        = fixed.Fix64FromInt(maxCollective)
)

// verticalLoop produces collective throttle from a climb-rate command in the
// altitude-holding modes.
type verticalLoop struct {
	vel      loopPID
	setpoint fixed.Fix32 // m/s

	centred     uint32
	altHeld     bool
	altSetpoint fixed.Fix64
	altSum      fixed.Fix64
}

// climbCommand returns the collective stick deflection outside the deadband,
// ±900 at full deflection.
func climbCommand(throttleCh int32) int32 {
	t := (throttleCh-1000)*2 - maxCollective/2
	switch {
	case t > throttleDeadband:
		return t - throttleDeadband
	case t < -throttleDeadband:
		return t + throttleDeadband
	default:
		return 0
	}
}

// update returns the collective throttle in 0..2000.
func (v *verticalLoop) update(g *Gains, throttleCh int32, att *orientation.Attitude) fixed.Fix32 {
	t := climbCommand(throttleCh)
	sp := fixed.Fix64FromInt(int64(t)).DivInt(climbDivisor)

	if t == 0 {
		if v.centred < math.MaxUint32 {
			v.centred++
		}
	} else {
		v.centred = 0
		v.altHeld = false
		v.altSum = fixed.Fix64{}
	}
	if v.centred >= altCaptureTicks {
		if !v.altHeld {
			v.altSetpoint = att.Altitude
			v.altSum = fixed.Fix64{}
			v.altHeld = true
		}
		altErr := v.altSetpoint.Sub(att.Altitude)
		v.altSum = v.altSum.Add(altErr)
		corr := g.Alt.P.Mul(altErr).Add(g.Alt.I.Mul(v.altSum))
		sp = sp.Add(corr.Clamp(maxAltCorrection.Neg(), maxAltCorrection))
	}
	v.setpoint = sp.Fix32()

	lim := sumLimit{hi: hoverSumLimit(g)}
	out := v.vel.update(&g.VVel, sp, att.VerticalVelocity, &lim)
	return out.Clamp(fixed.Fix64{}, maxHoverI).Fix32()
}

// hoverSumLimit is the error sum at which the integral alone gives full
// throttle.
func hoverSumLimit(g *Gains) fixed.Fix64 {
	if g.VVel.I.Sign() <= 0 {
		return fixed.Fix64{}
	}
	return maxHoverI.Div(g.VVel.I)
}

// preload sets the integral so that it alone produces throttle, giving a
// bumpless switch from manual throttle.
func (v *verticalLoop) preload(g *Gains, throttle fixed.Fix32) {
	v.reset()
	if g.VVel.I.Sign() <= 0 {
		return
	}
	v.vel.sum = throttle.Fix64().Div(g.VVel.I).Clamp(fixed.Fix64{}, hoverSumLimit(g))
}

func (v *verticalLoop) reset() { *v = verticalLoop{} }
