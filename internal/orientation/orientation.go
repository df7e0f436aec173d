// Package orientation estimates attitude, heading, vertical velocity and
// altitude from raw IMU samples in fixed point, and converts the result into
// the float Pose used by telemetry consumers.
package orientation

import (
	"math"
)

// Pose is the float view of an Attitude for JSON and displays.
type Pose struct {
	Roll    float64 `json:"roll"`    // degrees
	Pitch   float64 `json:"pitch"`   // degrees
	Yaw     float64 `json:"yaw"`     // degrees
	Heading float64 `json:"heading"` // degrees, bias-corrected

	VerticalVelocity float64 `json:"vvel"`     // m/s
	Altitude         float64 `json:"altitude"` // m
}

// PoseFromAttitude converts fixed-point estimator output into degrees and SI
// floats. Not for use inside the control tick.
func PoseFromAttitude(a Attitude) Pose {
	return Pose{
		Roll:             a.Roll.Float() * 180.0 / math.Pi,
		Pitch:            a.Pitch.Float() * 180.0 / math.Pi,
		Yaw:              a.Yaw.Float() * 180.0 / math.Pi,
		Heading:          float64(a.Heading) / 100,
		VerticalVelocity: a.VerticalVelocity.Float(),
		Altitude:         a.Altitude.Float(),
	}
}
