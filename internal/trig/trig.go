// Package trig provides table-driven sine, cosine and arctangent over
// fixed.Fix32 radians.
//
// Two 257-entry tables are filled once at startup: sin over [0, π] and atan
// over [0, 1]. Lookups interpolate linearly using the low 8 bits of the scaled
// input as weight.
package trig

import (
	"math"

	"github.com/relabs-tech/flight_computer/internal/fixed"
)

const tableSize = 257

var (
	Pi        = fixed.Fix32FromFloat(math.Pi)
	HalfPi    = fixed.Fix32FromFloat(math.Pi / 2)
	QuarterPi = fixed.Fix32FromFloat(math.Pi / 4)
)

var (
	sinTable  [tableSize]int32
	atanTable [tableSize]int32
)

func init() {
	for i := 0; i < tableSize; i++ {
		sinTable[i] = fixed.Fix32FromFloat(math.Sin(float64(i) * math.Pi / 256)).Raw()
		atanTable[i] = fixed.Fix32FromFloat(math.Atan(float64(i) / 256)).Raw()
	}
}

func lookup(table *[tableSize]int32, idx int32) int32 {
	hi := idx >> 8
	w := int64(idx & 0xFF)
	a, b := table[hi], table[hi+1]
	return a + int32((int64(b-a)*w)>>8)
}

// Sin works on any input that x/π does not overflow.
func Sin(x fixed.Fix32) fixed.Fix32 {
	// x/π in 16.16: bit 16 is the parity of the half turn, the low 16 bits
	// are the position inside it.
	turns := x.Div(Pi).Raw()
	v := lookup(&sinTable, turns&0xFFFF)
	if turns&0x10000 != 0 {
		v = -v
	}
	return fixed.Fix32FromRaw(v)
}

func Cos(x fixed.Fix32) fixed.Fix32 {
	return Sin(x.Add(HalfPi))
}

func Atan(x fixed.Fix32) fixed.Fix32 {
	sign := int32(1)
	if x.Raw() < 0 {
		sign = -1
		x = x.Neg()
	}

	const one = 1 << 16
	switch r := x.Raw(); {
	case r == one:
		return QuarterPi.MulInt(sign)
	case r > one:
		inv := fixed.Fix32FromInt(1).Div(x)
		v := HalfPi.Raw() - lookup(&atanTable, inv.Raw())
		return fixed.Fix32FromRaw(v * sign)
	default:
		return fixed.Fix32FromRaw(lookup(&atanTable, r) * sign)
	}
}

// Atan2 returns the angle of (x, y) in (-π, π]. The ratio fed to Atan never
// exceeds one in magnitude, so tiny x does not overflow.
func Atan2(y, x fixed.Fix32) fixed.Fix32 {
	if x.IsZero() {
		switch {
		case y.Raw() > 0:
			return HalfPi
		case y.Raw() < 0:
			return HalfPi.Neg()
		}
		return fixed.Fix32{}
	}

	var t fixed.Fix32
	if y.Abs().Raw() <= x.Abs().Raw() {
		t = Atan(y.Div(x))
	} else {
		t = HalfPi.MulInt(y.Sign() * x.Sign()).Sub(Atan(x.Div(y)))
	}

	if x.Raw() < 0 {
		if y.Raw() >= 0 {
			return t.Add(Pi)
		}
		return t.Sub(Pi)
	}
	return t
}

// Asin is defined for |x| <= 1; larger inputs are clamped.
func Asin(x fixed.Fix32) fixed.Fix32 {
	one := fixed.Fix32FromInt(1)
	x = x.Clamp(one.Neg(), one)
	x64 := x.Fix64()
	c := fixed.Fix64FromInt(1).Sub(x64.Mul(x64)).Sqrt()
	return Atan2(x, c.Fix32())
}
