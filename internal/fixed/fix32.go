// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fixed implements the deterministic fixed-point scalars used by the
// control loop: Fix32 (16.16) and Fix64 (32.32).
package fixed

import "math"

const (
	frac32 = 16
	one32  = 1 << frac32
)

// Fix32 is a signed 16.16 fixed-point value.
type Fix32 struct {
	raw int32
}

// Fix32FromInt returns n as a Fix32. Values outside ±32767 wrap.
func Fix32FromInt(n int) Fix32 {
	return Fix32{raw: int32(n) << frac32}
}

// Fix32FromFloat rounds f to the nearest step. Meant for constants built at startup.
func Fix32FromFloat(f float64) Fix32 {
	return Fix32{raw: int32(math.Round(f * one32))}
}

// Fix32FromRaw wraps a raw 16.16 value.
func Fix32FromRaw(raw int32) Fix32 {
	return Fix32{raw: raw}
}

func (a Fix32) Raw() int32 { return a.raw }

func (a Fix32) Float() float64 { return float64(a.raw) / one32 }

// Int returns the integer part, rounded toward negative infinity.
func (a Fix32) Int() int32 { return a.raw >> frac32 }

func (a Fix32) Add(b Fix32) Fix32 { return Fix32{raw: a.raw + b.raw} }

func (a Fix32) Sub(b Fix32) Fix32 { return Fix32{raw: a.raw - b.raw} }

// Mul widens both operands to 64 bits before scaling back.
func (a Fix32) Mul(b Fix32) Fix32 {
	return Fix32{raw: int32((int64(a.raw) * int64(b.raw)) >> frac32)}
}

// Div saturates on overflow and on division by zero.
func (a Fix32) Div(b Fix32) Fix32 {
	if b.raw == 0 {
		return a.saturate()
	}
	return Fix32{raw: clamp32((int64(a.raw) << frac32) / int64(b.raw))}
}

func (a Fix32) MulInt(n int32) Fix32 { return Fix32{raw: a.raw * n} }

func (a Fix32) DivInt(n int32) Fix32 {
	if n == 0 {
		return a.saturate()
	}
	return Fix32{raw: a.raw / n}
}

// Shr divides by 2^n, truncating toward negative infinity.
func (a Fix32) Shr(n uint) Fix32 { return Fix32{raw: a.raw >> n} }

func (a Fix32) Shl(n uint) Fix32 { return Fix32{raw: a.raw << n} }

func (a Fix32) Neg() Fix32 { return Fix32{raw: -a.raw} }

func (a Fix32) Abs() Fix32 {
	if a.raw < 0 {
		return Fix32{raw: -a.raw}
	}
	return a
}

// Sign returns -1, 0 or 1.
func (a Fix32) Sign() int32 {
	switch {
	case a.raw > 0:
		return 1
	case a.raw < 0:
		return -1
	}
	return 0
}

func (a Fix32) Less(b Fix32) bool    { return a.raw < b.raw }
func (a Fix32) Greater(b Fix32) bool { return a.raw > b.raw }
func (a Fix32) IsZero() bool         { return a.raw == 0 }

// Clamp limits a to [lo, hi].
func (a Fix32) Clamp(lo, hi Fix32) Fix32 {
	if a.raw < lo.raw {
		return lo
	}
	if a.raw > hi.raw {
		return hi
	}
	return a
}

// Fix64 widens a without loss.
func (a Fix32) Fix64() Fix64 {
	return Fix64{raw: int64(a.raw) << (frac64 - frac32)}
}

func (a Fix32) saturate() Fix32 {
	switch {
	case a.raw > 0:
		return Fix32{raw: math.MaxInt32}
	case a.raw < 0:
		return Fix32{raw: math.MinInt32}
	}
	return Fix32{}
}

func clamp32(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}
