package env

import (
	"math"
	"time"
)

// International standard atmosphere constants for the barometric formula.
const (
	seaLevelPa     = 101325.0
	lapseExponent  = 0.190284
	isaScaleMetres = 44330.8
)

// PressureAltitude returns the ISA altitude in metres for a pressure in Pa.
func PressureAltitude(pa float64) float64 {
	if pa <= 0 {
		return 0
	}
	return isaScaleMetres * (1 - math.Pow(pa/seaLevelPa, lapseExponent))
}

// Altimeter turns barometer samples into altitude above the first sample and
// a smoothed climb rate.
type Altimeter struct {
	// Smoothing is the weight of the newest climb-rate estimate, 0..1.
	Smoothing float64

	ground   float64
	altitude float64
	upVel    float64
	last     time.Time
	primed   bool
}

func NewAltimeter() *Altimeter { return &Altimeter{Smoothing: 0.2} }

// Update adds a sample taken at time at and returns altitude (m) and
// up-velocity (m/s).
func (a *Altimeter) Update(s Sample, at time.Time) (altitude, upVel float64) {
	alt := PressureAltitude(s.Pressure)
	if !a.primed {
		a.ground = alt
		a.altitude = 0
		a.last = at
		a.primed = true
		return 0, 0
	}

	rel := alt - a.ground
	if dt := at.Sub(a.last).Seconds(); dt > 0 {
		raw := (rel - a.altitude) / dt
		a.upVel += a.Smoothing * (raw - a.upVel)
	}
	a.altitude = rel
	a.last = at
	return a.altitude, a.upVel
}

// Rezero makes the next sample the new ground reference.
func (a *Altimeter) Rezero() {
	a.primed = false
	a.upVel = 0
}
