package controller

import (
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/rc"
)

// Stick returns a stick channel normalized to ±1 (±512 around centre).
func Stick(ch int32) fixed.Fix32 {
	return fixed.Fix32FromRaw((ch - rc.Center) << 7)
}

// RateSetpoint runs a normalized stick through the rate curve of one axis.
// Every polynomial term keeps the sign of the stick, so even orders do not
// fold negative deflection back to positive.
func RateSetpoint(f *RateFactors, axis int, x fixed.Fix32) fixed.Fix32 {
	p := x
	sp := f[0][axis].Mul(p)
	for order := 1; order < RateOrders; order++ {
		p = p.Mul(x)
		if x.Sign() < 0 {
			p = p.Neg()
		}
		sp = sp.Add(f[order][axis].Mul(p))
	}
	return sp
}
