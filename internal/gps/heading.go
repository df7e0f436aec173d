package gps

import (
	"math"

	"github.com/relabs-tech/flight_computer/internal/orientation"
)

// Heading correction gate and gain.
const (
	minCorrectionSpeed = 5.0 // m/s
	maxCorrectionHDOP  = 2.0
	biasDivisor        = 20
)

// HeadingCorrector nudges the estimator's heading bias toward the GPS course
// over ground while the craft moves fast enough for the course to mean
// something. It assumes forward flight, so the nose points along the course.
type HeadingCorrector struct {
	Inputs *orientation.Inputs

	lastCourse float64
	haveCourse bool
}

// Update compares the course of f with heading, the current bias-corrected
// heading in centidegrees, and adjusts the bias by a twentieth of the
// difference. It returns false when the fix did not pass the gate.
func (h *HeadingCorrector) Update(f *Fix, heading int32) bool {
	if !f.Has3D() || f.Speed <= minCorrectionSpeed || f.HDOP > maxCorrectionHDOP || f.HDOP <= 0 {
		return false
	}
	if h.haveCourse && f.CourseDeg == h.lastCourse {
		return false
	}
	h.lastCourse = f.CourseDeg
	h.haveCourse = true

	course := orientation.WrapCentidegrees(int32(math.Round(f.CourseDeg * 100)))
	diff := orientation.WrapCentidegrees(course - heading)
	bias := orientation.WrapCentidegrees(h.Inputs.HeadingBias() + diff/biasDivisor)
	h.Inputs.SetHeadingBias(bias)
	return true
}
