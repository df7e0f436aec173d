// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package quaternion implements unit-quaternion rotations in wide fixed point.
//
// Every operation that composes rotations renormalizes its result, so the
// orientation estimate stays unit-length over millions of updates. Degenerate
// input never yields NaN-like state: it falls back to the identity rotation or
// a fixed unit axis.
package quaternion

import (
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/trig"
)

// Quaternion is W + Xi + Yj + Zk.
type Quaternion struct {
	W, X, Y, Z fixed.Fix64
}

var (
	one = fixed.Fix64FromInt(1)

	parallelLimit  = fixed.Fix64FromFloat(1 - 1e-7)
	minQuatNorm    = fixed.Fix64FromFloat(1e-6)
	minVectorNorm  = fixed.Fix64FromFloat(1.0 / 256)
	smallAngle     = fixed.Fix64FromFloat(1.0 / 64)
	oneThird       = fixed.Fix64FromFloat(1.0 / 3)
	oneSixth       = fixed.Fix64FromFloat(1.0 / 6)
	degenerateAxis = unitX
)

func Identity() Quaternion {
	return Quaternion{W: one}
}

func (q Quaternion) Vector() Vec3 {
	return Vec3{q.X, q.Y, q.Z}
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: q.X.Neg(), Y: q.Y.Neg(), Z: q.Z.Neg()}
}

func (q Quaternion) Dot(o Quaternion) fixed.Fix64 {
	return q.W.Mul(o.W).Add(q.X.Mul(o.X)).Add(q.Y.Mul(o.Y)).Add(q.Z.Mul(o.Z))
}

func (q Quaternion) Norm() fixed.Fix64 {
	return q.Dot(q).Sqrt()
}

// Normalize divides by the Euclidean norm, or returns the identity when the
// norm is too small to divide by.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n.Less(minQuatNorm) {
		return Identity()
	}
	return Quaternion{W: q.W.Div(n), X: q.X.Div(n), Y: q.Y.Div(n), Z: q.Z.Div(n)}
}

// Multiply returns the Hamilton product a⊗b: b is applied first, a on top.
func Multiply(a, b Quaternion) Quaternion {
	return Quaternion{
		W: a.W.Mul(b.W).Sub(a.X.Mul(b.X)).Sub(a.Y.Mul(b.Y)).Sub(a.Z.Mul(b.Z)),
		X: a.W.Mul(b.X).Add(a.X.Mul(b.W)).Add(a.Y.Mul(b.Z)).Sub(a.Z.Mul(b.Y)),
		Y: a.W.Mul(b.Y).Sub(a.X.Mul(b.Z)).Add(a.Y.Mul(b.W)).Add(a.Z.Mul(b.X)),
		Z: a.W.Mul(b.Z).Add(a.X.Mul(b.Y)).Sub(a.Y.Mul(b.X)).Add(a.Z.Mul(b.W)),
	}
}

// Compose is Multiply followed by Normalize.
func Compose(a, b Quaternion) Quaternion {
	return Multiply(a, b).Normalize()
}

// Rotate returns q⊗v⊗q*.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	p := Quaternion{X: v[0], Y: v[1], Z: v[2]}
	r := Multiply(Multiply(q, p), q.Conjugate())
	return r.Vector()
}

// FromAxisAngle builds the rotation of angle radians about a unit axis.
func FromAxisAngle(axis Vec3, angle fixed.Fix64) Quaternion {
	half := angle.Shr(1)
	var s, c fixed.Fix64
	if half.Abs().Less(smallAngle) {
		h2 := half.Mul(half)
		s = half.Sub(half.Mul(h2).Mul(oneSixth))
		c = one.Sub(h2.Shr(1))
	} else {
		h := half.Fix32()
		s = trig.Sin(h).Fix64()
		c = trig.Cos(h).Fix64()
	}
	v := axis.Scale(s)
	return Quaternion{W: c, X: v[0], Y: v[1], Z: v[2]}.Normalize()
}

// ToAxisAngle returns the unit rotation axis and the angle in [0, π]. A
// rotation with no vector part reports angle zero about the X axis.
func (q Quaternion) ToAxisAngle() (axis Vec3, angle fixed.Fix64) {
	v := q.Vector()
	s := v.Norm()
	if s.IsZero() {
		return degenerateAxis, fixed.Fix64{}
	}
	w := q.W
	axis = v.Div(s)
	if w.Sign() < 0 {
		w = w.Neg()
		axis = axis.Neg()
	}

	var half fixed.Fix64
	if w.Greater(s) && s.Div(w).Less(smallAngle) {
		t := s.Div(w)
		half = t.Sub(t.Mul(t).Mul(t).Mul(oneThird))
	} else {
		half = trig.Atan2(s.Fix32(), w.Fix32()).Fix64()
	}
	return axis, half.Shl(1)
}

// FromUnitVectors returns the shortest-arc rotation taking unit vector a onto
// unit vector b. Opposite vectors have no unique axis; the rotation is then π
// about X×a, or about Y×a when a lies along X.
func FromUnitVectors(a, b Vec3) Quaternion {
	d := a.Dot(b)
	if d.Greater(parallelLimit) {
		return Identity()
	}
	if d.Less(parallelLimit.Neg()) {
		axis, ok := unitX.Cross(a).Normalized()
		if !ok {
			axis, _ = unitY.Cross(a).Normalized()
		}
		return Quaternion{X: axis[0], Y: axis[1], Z: axis[2]}
	}
	c := a.Cross(b)
	return Quaternion{W: one.Add(d), X: c[0], Y: c[1], Z: c[2]}.Normalize()
}
