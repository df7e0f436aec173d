package controller

import "github.com/relabs-tech/flight_computer/internal/fixed"

// Axis indices, controller convention: roll right, pitch nose down, yaw
// right are positive.
const (
	AxisRoll = iota
	AxisPitch
	AxisYaw

	numAxes
)

// RateOrders is the number of rate-curve polynomial terms.
const RateOrders = 5

// AxisGains tunes one rate loop.
type AxisGains struct {
	P, I, D, FF, S fixed.Fix32
	IFalloff       fixed.Fix32 // integral decay per tick before takeoff
}

// LoopGains tunes an outer loop. Wide values keep small integral gains exact.
type LoopGains struct {
	P, I, D, FF fixed.Fix64
}

// RateFactors holds the rate-curve coefficients: RateFactors[order][axis],
// in deg/s at full stick.
type RateFactors [RateOrders][numAxes]fixed.Fix32

// Gains is one complete tuning set. A published Gains must not be modified.
type Gains struct {
	Axes        [numAxes]AxisGains
	RateFactors RateFactors

	VVel LoopGains // throttle per m/s of vertical velocity error
	Alt  LoopGains // m/s of vertical velocity per m of altitude error
	HVel LoopGains // degrees of tilt per m/s of horizontal velocity error
	PosP fixed.Fix64

	AngleModeP    fixed.Fix32
	VelocityModeP fixed.Fix32
	MaxAngle      fixed.Fix32 // degrees

	DCutoffHz float64
}

// Raw gain scales: a gain of raw 1<<shift equals 1.0.
const (
	PShift = 11
	IShift = 3
	DShift = 10
)

// DefaultGains returns the stock tune.
func DefaultGains() *Gains {
	g := &Gains{
		VVel: LoopGains{
			P: fixed.Fix64FromInt(800),
			I: fixed.Fix64FromFloat(0.02),
		},
		Alt: LoopGains{
			P: fixed.Fix64FromFloat(0.5),
			I: fixed.Fix64FromFloat(0.0001),
		},
		HVel: LoopGains{
			P: fixed.Fix64FromInt(12),
			I: fixed.Fix64FromFloat(10.0 / 3200),
			D: fixed.Fix64FromInt(7),
		},
		PosP:          fixed.Fix64FromFloat(0.3),
		AngleModeP:    fixed.Fix32FromInt(10),
		VelocityModeP: fixed.Fix32FromInt(3),
		MaxAngle:      fixed.Fix32FromInt(35),
		DCutoffHz:     150,
	}
	for i := range g.Axes {
		g.Axes[i] = AxisGains{
			P:        fixed.Fix32FromRaw(40 << PShift),
			I:        fixed.Fix32FromRaw(20 << IShift),
			D:        fixed.Fix32FromRaw(100 << DShift),
			IFalloff: fixed.Fix32FromFloat(0.998),
		}
	}
	factors := [RateOrders]int{100, 0, 200, 0, 800}
	for order, f := range factors {
		for axis := range g.RateFactors[order] {
			g.RateFactors[order][axis] = fixed.Fix32FromInt(f)
		}
	}
	return g
}
