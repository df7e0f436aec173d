package quaternion

import "github.com/relabs-tech/flight_computer/internal/fixed"

// Vec3 is a 3-vector in wide fixed point.
type Vec3 [3]fixed.Fix64

var (
	unitX = Vec3{fixed.Fix64FromInt(1), fixed.Fix64{}, fixed.Fix64{}}
	unitY = Vec3{fixed.Fix64{}, fixed.Fix64FromInt(1), fixed.Fix64{}}
	unitZ = Vec3{fixed.Fix64{}, fixed.Fix64{}, fixed.Fix64FromInt(1)}
)

// UnitZ is the body "down" axis in NED.
func UnitZ() Vec3 { return unitZ }

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0].Add(o[0]), v[1].Add(o[1]), v[2].Add(o[2])}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0].Sub(o[0]), v[1].Sub(o[1]), v[2].Sub(o[2])}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{v[0].Neg(), v[1].Neg(), v[2].Neg()}
}

// Shr divides every component by 2^n.
func (v Vec3) Shr(n uint) Vec3 {
	return Vec3{v[0].Shr(n), v[1].Shr(n), v[2].Shr(n)}
}

func (v Vec3) Scale(s fixed.Fix64) Vec3 {
	return Vec3{v[0].Mul(s), v[1].Mul(s), v[2].Mul(s)}
}

func (v Vec3) Div(s fixed.Fix64) Vec3 {
	return Vec3{v[0].Div(s), v[1].Div(s), v[2].Div(s)}
}

func (v Vec3) Dot(o Vec3) fixed.Fix64 {
	return v[0].Mul(o[0]).Add(v[1].Mul(o[1])).Add(v[2].Mul(o[2]))
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1].Mul(o[2]).Sub(v[2].Mul(o[1])),
		v[2].Mul(o[0]).Sub(v[0].Mul(o[2])),
		v[0].Mul(o[1]).Sub(v[1].Mul(o[0])),
	}
}

func (v Vec3) Norm() fixed.Fix64 {
	return v.Dot(v).Sqrt()
}

// Normalized returns the unit vector along v. ok is false when v is too short
// to carry a direction; v is then returned unchanged.
func (v Vec3) Normalized() (unit Vec3, ok bool) {
	n := v.Norm()
	if n.Less(minVectorNorm) {
		return v, false
	}
	return v.Div(n), true
}
