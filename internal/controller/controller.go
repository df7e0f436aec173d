// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package controller is the flight controller: it turns pilot input and the
// estimator output into four motor commands once per tick.
//
// Tick never blocks, allocates or fails. Everything it reads from other
// goroutines comes in through TickInput or through the gains mailbox.
package controller

import (
	"math"
	"sync/atomic"

	"github.com/relabs-tech/flight_computer/internal/filter"
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/motor"
	"github.com/relabs-tech/flight_computer/internal/orientation"
	"github.com/relabs-tech/flight_computer/internal/rc"
	"github.com/relabs-tech/flight_computer/internal/telemetry"
)

const (
	armThreshold     = 1500 // arm switch position
	armMaxThrottle   = 1020 // raw throttle must be below this to arm
	takeoffThrottle  = 1020 // raw throttle above this counts toward takeoff
	takeoffTicks     = 1000 // consecutive ticks before integral falloff stops
	beaconPeriod     = 1600 // ticks, 500 ms at 3200 Hz
	beaconOnTicks    = 640  // ticks, 200 ms
	beaconThreshold  = 1500
	defaultSampleHz  = 3200
	defaultIdleValue = 50
)

// Config is the static frame setup.
type Config struct {
	SampleHz float64
	PropsOut bool
	Idle     int32 // lowest motor command while armed
}

// TickInput is everything one tick consumes.
type TickInput struct {
	Channels    [rc.NumChannels]int32 // smoothed sticks, raw aux channels
	RawThrottle int32                 // unsmoothed throttle channel
	LinkValid   bool

	Rates    [3]fixed.Fix32 // deg/s, controller axis convention
	Attitude orientation.Attitude
	Nav      NavSample
	Mode     Mode

	// Beacon requests the motor beacon while disarmed, in addition to the
	// beacon channel.
	Beacon bool

	// Override drives the motors directly while disarmed.
	Override       bool
	OverrideValues [motor.Count]uint16
}

// Controller owns all controller state. Only the tick goroutine may call
// Tick; SetGains may be called from anywhere.
type Controller struct {
	cfg   Config
	mixer Mixer

	gains  atomic.Pointer[Gains]
	active *Gains

	armed     bool
	armSwitch bool // last arm switch position seen with a valid link
	mode      Mode

	axes      [numAxes]axisPID
	setpoints [numAxes]fixed.Fix32
	vert      verticalLoop
	hvel      [2]loopPID // east, north

	posHeld    bool
	posN, posE fixed.Fix64

	takeoff    uint32
	beaconTick uint32
	throttle   fixed.Fix32

	rec *telemetry.Recorder
}

// New returns a disarmed controller. gains may be nil for the defaults and
// rec may be nil when nothing consumes telemetry.
func New(cfg Config, gains *Gains, rec *telemetry.Recorder) *Controller {
	if cfg.SampleHz <= 0 {
		cfg.SampleHz = defaultSampleHz
	}
	if cfg.Idle <= 0 {
		cfg.Idle = defaultIdleValue
	}
	if gains == nil {
		gains = DefaultGains()
	}
	c := &Controller{
		cfg:   cfg,
		mixer: Mixer{PropsOut: cfg.PropsOut, Idle: cfg.Idle, Max: motor.MaxThrottle},
		rec:   rec,
	}
	c.SetGains(gains)
	c.loadGains()
	return c
}

// SetGains publishes a new tuning set. The tick picks it up at its next
// start. g must not be modified afterwards.
func (c *Controller) SetGains(g *Gains) {
	if g != nil {
		c.gains.Store(g)
	}
}

// Gains returns the most recently published tuning set.
func (c *Controller) Gains() *Gains { return c.gains.Load() }

func (c *Controller) loadGains() {
	g := c.gains.Load()
	if g == c.active {
		return
	}
	c.active = g
	k := filter.Gain(g.DCutoffHz, c.cfg.SampleHz)
	for i := range c.axes {
		c.axes[i].dLPF.SetGain(k)
	}
}

func (c *Controller) Armed() bool { return c.armed }

// ErrorSums returns the three rate-loop error sums.
func (c *Controller) ErrorSums() [numAxes]fixed.Fix64 {
	return [numAxes]fixed.Fix64{c.axes[0].sum, c.axes[1].sum, c.axes[2].sum}
}

// Setpoints returns the rate setpoints of the last armed tick.
func (c *Controller) Setpoints() [numAxes]fixed.Fix32 { return c.setpoints }

// Tick runs one control step.
func (c *Controller) Tick(in *TickInput) motor.Command {
	c.loadGains()
	c.updateArming(in)

	var cmd motor.Command
	if c.armed {
		cmd = c.flyTick(in)
	} else {
		cmd = c.disarmedTick(in)
	}

	if c.rec != nil {
		c.rec.SetState(c.armed, int32(c.mode))
		c.rec.SetChannels(in.Channels[rc.ChannelRoll], in.Channels[rc.ChannelPitch],
			in.Channels[rc.ChannelThrottle], in.Channels[rc.ChannelYaw])
		for i := range c.axes {
			c.rec.SetAxis(i, c.setpoints[i], in.Rates[i], &c.axes[i].terms)
		}
		c.rec.SetOutput(c.throttle, c.vert.setpoint, cmd.Throttle)
		c.rec.SetAttitude(in.Attitude)
	}
	return cmd
}

// updateArming arms on a rising arm switch with low throttle and a live link,
// and disarms on switch low or link loss. After a link loss the switch has to
// be cycled before arming again.
func (c *Controller) updateArming(in *TickInput) {
	if !in.LinkValid {
		c.armed = false
		return
	}
	on := in.Channels[rc.ChannelArm] > armThreshold
	switch {
	case !on:
		c.armed = false
	case !c.armSwitch && in.RawThrottle < armMaxThrottle:
		c.armed = true
	}
	c.armSwitch = on
}

func (c *Controller) flyTick(in *TickInput) motor.Command {
	g := c.active
	mode := in.Mode
	if mode < 0 || mode >= numModes {
		mode = ModeAcro
	}
	if mode != c.mode {
		c.enterMode(mode)
	}

	switch mode {
	case ModeAcro:
		c.acroSetpoints(in)
	case ModeAngle, ModeAltHold:
		c.angleSetpoints(in)
	case ModeGPSVel, ModeGPSPos:
		c.gpsSetpoints(in, mode)
	}

	if mode.holdsAltitude() {
		c.throttle = c.vert.update(g, in.Channels[rc.ChannelThrottle], &in.Attitude)
	} else {
		c.throttle = manualThrottle(in.Channels[rc.ChannelThrottle])
	}

	if in.RawThrottle > takeoffThrottle {
		if c.takeoff < math.MaxUint32 {
			c.takeoff++
		}
	} else if c.takeoff < takeoffTicks {
		c.takeoff = 0
	}
	falloff := c.takeoff < takeoffTicks

	var out [numAxes]fixed.Fix32
	for i := range c.axes {
		out[i] = c.axes[i].update(&g.Axes[i], c.setpoints[i], in.Rates[i], falloff)
	}

	return motor.Command{Throttle: c.mixer.Output(c.throttle, out[AxisRoll], out[AxisPitch], out[AxisYaw])}
}

// enterMode handles the state hand-over when the flight mode changes.
func (c *Controller) enterMode(next Mode) {
	if next.holdsAltitude() && !c.mode.holdsAltitude() {
		c.vert.preload(c.active, c.throttle)
	}
	if !next.holdsAltitude() {
		c.vert.reset()
	}
	if !next.usesGPS() {
		c.resetNav()
	}
	c.mode = next
}

func manualThrottle(ch int32) fixed.Fix32 {
	return fixed.Fix32FromInt(int((ch - rc.MinThrottle) * 2))
}

// disarmedTick resets all flight state and outputs zero, the override values
// or the beacon pattern.
func (c *Controller) disarmedTick(in *TickInput) motor.Command {
	c.reset()

	beacon := in.Beacon || (in.LinkValid && in.Channels[rc.ChannelBeacon] > beaconThreshold)
	if beacon {
		phase := c.beaconTick
		c.beaconTick = (c.beaconTick + 1) % beaconPeriod
		if phase < beaconOnTicks {
			return motor.Command{Special: motor.CmdBeacon2}
		}
		return motor.Command{}
	}
	c.beaconTick = 0

	if in.Override {
		var cmd motor.Command
		for i, v := range in.OverrideValues {
			if v > motor.MaxThrottle {
				v = motor.MaxThrottle
			}
			cmd.Throttle[i] = v
		}
		return cmd
	}
	return motor.Command{}
}

func (c *Controller) reset() {
	for i := range c.axes {
		c.axes[i].reset()
	}
	c.setpoints = [numAxes]fixed.Fix32{}
	c.vert.reset()
	c.resetNav()
	c.takeoff = 0
	c.throttle = fixed.Fix32{}
	c.mode = ModeAcro
}
