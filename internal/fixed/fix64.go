package fixed

import (
	"math"
	"math/bits"
)

const (
	frac64 = 32
	one64  = 1 << frac64
	mask32 = 1<<32 - 1
)

// Fix64 is a signed 32.32 fixed-point value. Accumulators and the rotation
// state use it so thousands of small increments keep their precision.
type Fix64 struct {
	raw int64
}

func Fix64FromInt(n int64) Fix64 {
	return Fix64{raw: n << frac64}
}

// Fix64FromFloat rounds f to the nearest step. Meant for constants built at
// startup and for values crossing the I/O boundary.
func Fix64FromFloat(f float64) Fix64 {
	return Fix64{raw: int64(math.Round(f * one64))}
}

func Fix64FromRaw(raw int64) Fix64 {
	return Fix64{raw: raw}
}

func (a Fix64) Raw() int64 { return a.raw }

func (a Fix64) Float() float64 { return float64(a.raw) / one64 }

// Int returns the integer part, rounded toward negative infinity.
func (a Fix64) Int() int64 { return a.raw >> frac64 }

func (a Fix64) Add(b Fix64) Fix64 { return Fix64{raw: a.raw + b.raw} }

func (a Fix64) Sub(b Fix64) Fix64 { return Fix64{raw: a.raw - b.raw} }

// AddFix32 adds a narrow value without first materialising its wide form.
func (a Fix64) AddFix32(b Fix32) Fix64 {
	return Fix64{raw: a.raw + int64(b.raw)<<(frac64-frac32)}
}

// Mul multiplies two wide values by splitting both magnitudes into 32-bit
// halves. The four partial products are recombined at their binary weights;
// bits below the 32-bit fractional field are dropped.
func (a Fix64) Mul(b Fix64) Fix64 {
	neg := (a.raw < 0) != (b.raw < 0)
	p1, p2 := abs64(a.raw), abs64(b.raw)

	hi1, lo1 := p1>>32, p1&mask32
	hi2, lo2 := p2>>32, p2&mask32

	big := hi1 * hi2
	small := lo1 * lo2
	med := hi1*lo2 + lo1*hi2

	r := med + (small >> 32) + (big << 32)
	if neg {
		return Fix64{raw: -int64(r)}
	}
	return Fix64{raw: int64(r)}
}

// MulFix32 multiplies by a narrow value, keeping the wide result.
func (a Fix64) MulFix32(b Fix32) Fix64 {
	return a.Mul(b.Fix64())
}

// Div saturates on overflow and on division by zero.
func (a Fix64) Div(b Fix64) Fix64 {
	if b.raw == 0 {
		return a.saturate()
	}
	neg := (a.raw < 0) != (b.raw < 0)
	ua, ub := abs64(a.raw), abs64(b.raw)

	hi, lo := ua>>32, ua<<32
	if hi >= ub {
		return saturateSign(neg)
	}
	q, _ := bits.Div64(hi, lo, ub)
	if q > math.MaxInt64 {
		return saturateSign(neg)
	}
	if neg {
		return Fix64{raw: -int64(q)}
	}
	return Fix64{raw: int64(q)}
}

func (a Fix64) MulInt(n int64) Fix64 { return Fix64{raw: a.raw * n} }

func (a Fix64) DivInt(n int64) Fix64 {
	if n == 0 {
		return a.saturate()
	}
	return Fix64{raw: a.raw / n}
}

func (a Fix64) Shr(n uint) Fix64 { return Fix64{raw: a.raw >> n} }

func (a Fix64) Shl(n uint) Fix64 { return Fix64{raw: a.raw << n} }

func (a Fix64) Neg() Fix64 { return Fix64{raw: -a.raw} }

func (a Fix64) Abs() Fix64 {
	if a.raw < 0 {
		return Fix64{raw: -a.raw}
	}
	return a
}

func (a Fix64) Sign() int64 {
	switch {
	case a.raw > 0:
		return 1
	case a.raw < 0:
		return -1
	}
	return 0
}

func (a Fix64) Less(b Fix64) bool    { return a.raw < b.raw }
func (a Fix64) Greater(b Fix64) bool { return a.raw > b.raw }
func (a Fix64) IsZero() bool         { return a.raw == 0 }

func (a Fix64) Clamp(lo, hi Fix64) Fix64 {
	if a.raw < lo.raw {
		return lo
	}
	if a.raw > hi.raw {
		return hi
	}
	return a
}

// Fix32 narrows a, dropping the low 16 fractional bits and saturating the
// integer part.
func (a Fix64) Fix32() Fix32 {
	return Fix32{raw: clamp32(a.raw >> (frac64 - frac32))}
}

// Sqrt returns the square root, or zero for non-positive input. The root of
// raw·2^32 is found bit by bit over a 128-bit radicand.
func (a Fix64) Sqrt() Fix64 {
	if a.raw <= 0 {
		return Fix64{}
	}
	u := uint64(a.raw)
	hi, lo := u>>32, u<<32

	var r uint64
	for bit := 47; bit >= 0; bit-- {
		c := r | 1<<uint(bit)
		ph, pl := bits.Mul64(c, c)
		if ph < hi || (ph == hi && pl <= lo) {
			r = c
		}
	}
	return Fix64{raw: int64(r)}
}

func (a Fix64) saturate() Fix64 {
	if a.raw == 0 {
		return Fix64{}
	}
	return saturateSign(a.raw < 0)
}

func saturateSign(neg bool) Fix64 {
	if neg {
		return Fix64{raw: math.MinInt64}
	}
	return Fix64{raw: math.MaxInt64}
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}
