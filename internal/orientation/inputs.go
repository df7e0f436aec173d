package orientation

import (
	"sync/atomic"

	"github.com/relabs-tech/flight_computer/internal/fixed"
)

// Inputs carries the slow-task measurements the estimator blends in. Each
// field has exactly one writer; the estimator reads whatever value is current.
type Inputs struct {
	baroUpVel   atomic.Int64 // Fix64 raw, m/s
	baroValid   atomic.Bool
	altitudeRef atomic.Int64 // Fix64 raw, m
	gpsUpVel    atomic.Int64 // Fix64 raw, m/s
	gps3D       atomic.Bool
	headingBias atomic.Int32 // centidegrees
}

// SetBaro is called by the barometer task.
func (in *Inputs) SetBaro(upVel, altitude fixed.Fix64, valid bool) {
	in.baroUpVel.Store(upVel.Raw())
	in.altitudeRef.Store(altitude.Raw())
	in.baroValid.Store(valid)
}

// SetGPSVertical is called by the GPS task.
func (in *Inputs) SetGPSVertical(upVel fixed.Fix64, fix3D bool) {
	in.gpsUpVel.Store(upVel.Raw())
	in.gps3D.Store(fix3D)
}

// SetHeadingBias is called by the GPS heading corrector.
func (in *Inputs) SetHeadingBias(centideg int32) {
	in.headingBias.Store(centideg)
}

func (in *Inputs) HeadingBias() int32 { return in.headingBias.Load() }

func (in *Inputs) baroVelocity() fixed.Fix64 {
	if !in.baroValid.Load() {
		return fixed.Fix64{}
	}
	return fixed.Fix64FromRaw(in.baroUpVel.Load())
}

func (in *Inputs) altitudeReference() fixed.Fix64 {
	return fixed.Fix64FromRaw(in.altitudeRef.Load())
}

func (in *Inputs) gpsVelocity() (fixed.Fix64, bool) {
	if !in.gps3D.Load() {
		return fixed.Fix64{}, false
	}
	return fixed.Fix64FromRaw(in.gpsUpVel.Load()), true
}
