// Package filter holds allocation-free signal filters for the control loop.
package filter

import (
	"math"

	"github.com/relabs-tech/flight_computer/internal/fixed"
)

// PT1 is a single-pole low-pass filter: y += k·(x − y).
type PT1 struct {
	state fixed.Fix64
	k     fixed.Fix64
}

// NewPT1 sets the gain for a cutoff frequency at the given sample rate. A
// non-positive cutoff gives a pass-through filter.
func NewPT1(cutoffHz, sampleHz float64) PT1 {
	return PT1{k: Gain(cutoffHz, sampleHz)}
}

// Gain returns dt/(RC+dt) for the cutoff.
func Gain(cutoffHz, sampleHz float64) fixed.Fix64 {
	if cutoffHz <= 0 || sampleHz <= 0 {
		return fixed.Fix64FromInt(1)
	}
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / sampleHz
	return fixed.Fix64FromFloat(dt / (rc + dt))
}

func (f *PT1) Update(x fixed.Fix64) fixed.Fix64 {
	f.state = f.state.Add(x.Sub(f.state).Mul(f.k))
	return f.state
}

// SetGain replaces the gain and keeps the state.
func (f *PT1) SetGain(k fixed.Fix64) { f.k = k }

// Set preloads the state, as if x had been applied forever.
func (f *PT1) Set(x fixed.Fix64) { f.state = x }

func (f *PT1) Value() fixed.Fix64 { return f.state }

// Reset clears the state and keeps the gain.
func (f *PT1) Reset() { f.state = fixed.Fix64{} }
