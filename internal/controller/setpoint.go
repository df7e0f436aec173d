package controller

import (
	"math"

	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/rc"
	"github.com/relabs-tech/flight_computer/internal/trig"
)

// maxHorizontalSpeed is the earth-frame velocity at full stick, m/s.
const maxHorizontalSpeed = 12

var (
	radToDeg       = fixed.Fix32FromFloat(180 / math.Pi)
	centidegToRad  = fixed.Fix64FromFloat(math.Pi / 18000)
	maxHSpeed      = fixed.Fix32FromInt(maxHorizontalSpeed)
	maxHSpeed64    = fixed.Fix64FromInt(maxHorizontalSpeed)
	halfStickRange = int32(512)
)

// acroSetpoints runs every axis through its rate curve.
func (c *Controller) acroSetpoints(in *TickInput) {
	f := &c.active.RateFactors
	c.setpoints[AxisRoll] = RateSetpoint(f, AxisRoll, Stick(in.Channels[rc.ChannelRoll]))
	c.setpoints[AxisPitch] = RateSetpoint(f, AxisPitch, Stick(in.Channels[rc.ChannelPitch]))
	c.setpoints[AxisYaw] = RateSetpoint(f, AxisYaw, Stick(in.Channels[rc.ChannelYaw]))
}

// angleSetpoints levels toward the stick angle on roll and pitch; yaw stays
// on the rate curve.
func (c *Controller) angleSetpoints(in *TickInput) {
	g := c.active
	toAngle := g.MaxAngle.DivInt(halfStickRange)
	targetRoll := fixed.Fix32FromInt(int(in.Channels[rc.ChannelRoll] - rc.Center)).Mul(toAngle)
	targetPitch := fixed.Fix32FromInt(int(in.Channels[rc.ChannelPitch] - rc.Center)).Mul(toAngle)
	c.levelTo(in, targetRoll, targetPitch, g.AngleModeP)
	c.setpoints[AxisYaw] = RateSetpoint(&g.RateFactors, AxisYaw, Stick(in.Channels[rc.ChannelYaw]))
}

// levelTo sets roll and pitch rates proportional to the tilt error. Targets
// are degrees; positive pitch target is nose down, opposite to the
// estimator's pitch.
func (c *Controller) levelTo(in *TickInput, targetRoll, targetPitch, gain fixed.Fix32) {
	rollDeg := in.Attitude.Roll.Mul(radToDeg)
	pitchDeg := in.Attitude.Pitch.Mul(radToDeg)
	c.setpoints[AxisRoll] = targetRoll.Sub(rollDeg).Mul(gain)
	c.setpoints[AxisPitch] = targetPitch.Add(pitchDeg).Mul(gain)
}

// gpsSetpoints flies an earth-frame velocity. Stick deflection commands
// velocity relative to the heading; in GPS_POS a pull toward the captured
// position is added. Without a valid GPS velocity it falls back to ANGLE
// attitude control.
func (c *Controller) gpsSetpoints(in *TickInput, mode Mode) {
	g := c.active
	if !in.Nav.Valid {
		c.resetNav()
		c.angleSetpoints(in)
		return
	}

	heading := fixed.Fix64FromInt(int64(in.Attitude.Heading)).Mul(centidegToRad).Fix32()
	cosH, sinH := trig.Cos(heading), trig.Sin(heading)

	dx := fixed.Fix32FromInt(int(in.Channels[rc.ChannelRoll] - rc.Center))
	dy := fixed.Fix32FromInt(int(in.Channels[rc.ChannelPitch] - rc.Center))
	eSp := cosH.Mul(dx).Add(sinH.Mul(dy)).DivInt(halfStickRange).MulInt(maxHorizontalSpeed)
	nSp := sinH.Neg().Mul(dx).Add(cosH.Mul(dy)).DivInt(halfStickRange).MulInt(maxHorizontalSpeed)

	if mode == ModeGPSPos {
		if !c.posHeld {
			c.posN, c.posE = in.Nav.PosN, in.Nav.PosE
			c.posHeld = true
		}
		pullN := g.PosP.Mul(c.posN.Sub(in.Nav.PosN)).Clamp(maxHSpeed64.Neg(), maxHSpeed64)
		pullE := g.PosP.Mul(c.posE.Sub(in.Nav.PosE)).Clamp(maxHSpeed64.Neg(), maxHSpeed64)
		nSp = nSp.Add(pullN.Fix32()).Clamp(maxHSpeed.Neg(), maxHSpeed)
		eSp = eSp.Add(pullE.Fix32()).Clamp(maxHSpeed.Neg(), maxHSpeed)
	} else {
		c.posHeld = false
	}

	eOut := c.hvel[0].update(&g.HVel, eSp.Fix64(), in.Nav.VelE.Fix64(), nil).Fix32()
	nOut := c.hvel[1].update(&g.HVel, nSp.Fix64(), in.Nav.VelN.Fix64(), nil).Fix32()

	targetRoll := eOut.Mul(cosH).Sub(nOut.Mul(sinH)).Clamp(g.MaxAngle.Neg(), g.MaxAngle)
	targetPitch := eOut.Mul(sinH).Add(nOut.Mul(cosH)).Clamp(g.MaxAngle.Neg(), g.MaxAngle)
	c.levelTo(in, targetRoll, targetPitch, g.VelocityModeP)
	c.setpoints[AxisYaw] = RateSetpoint(&g.RateFactors, AxisYaw, Stick(in.Channels[rc.ChannelYaw]))
}

func (c *Controller) resetNav() {
	c.hvel[0].reset()
	c.hvel[1].reset()
	c.posHeld = false
}
