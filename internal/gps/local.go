package gps

import (
	"math"

	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/fixed"
)

const (
	earthRadius  = 6371000.0 // m
	metresPerDeg = earthRadius * math.Pi / 180
)

// LocalFrame maps fixes into a flat north/east frame around the first 3D fix.
// Good for the few kilometres a multirotor covers.
type LocalFrame struct {
	set             bool
	lat0, lon0      float64
	metresPerDegLon float64
}

// Reset drops the origin; the next 3D fix becomes the new one.
func (l *LocalFrame) Reset() { l.set = false }

// Nav converts f into the controller's navigation sample. Fixes without a
// valid 3D solution give an invalid sample.
func (l *LocalFrame) Nav(f *Fix) controller.NavSample {
	if !f.Has3D() {
		return controller.NavSample{}
	}
	if !l.set {
		l.lat0, l.lon0 = f.Latitude, f.Longitude
		l.metresPerDegLon = metresPerDeg * math.Cos(f.Latitude*math.Pi/180)
		l.set = true
	}

	course := f.CourseDeg * math.Pi / 180
	return controller.NavSample{
		VelN:  fixed.Fix32FromFloat(f.Speed * math.Cos(course)),
		VelE:  fixed.Fix32FromFloat(f.Speed * math.Sin(course)),
		PosN:  fixed.Fix64FromFloat((f.Latitude - l.lat0) * metresPerDeg),
		PosE:  fixed.Fix64FromFloat((f.Longitude - l.lon0) * l.metresPerDegLon),
		Valid: true,
	}
}
