package controller

import (
	"github.com/relabs-tech/flight_computer/internal/filter"
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/telemetry"
)

// historyDepth is how many ticks back the feedforward term looks.
const historyDepth = 8

// axisPID is the rate loop of one axis.
type axisPID struct {
	sum    fixed.Fix64 // deg/s·ticks
	last   fixed.Fix32 // measured rate on the previous tick
	primed bool
	dLPF   filter.PT1

	history [historyDepth]fixed.Fix32
	head    int

	terms [5]fixed.Fix32
}

// update runs one tick and returns the axis output. With falloff set, the
// error sum decays by IFalloff before the new error is added.
func (a *axisPID) update(g *AxisGains, sp, rate fixed.Fix32, falloff bool) fixed.Fix32 {
	if !a.primed {
		a.last = rate
		a.primed = true
	}
	err := sp.Sub(rate)

	if falloff {
		a.sum = a.sum.MulFix32(g.IFalloff)
	}
	a.sum = a.sum.AddFix32(err)

	delta := a.dLPF.Update(a.last.Sub(rate).Fix64()).Fix32()
	a.last = rate

	old := a.history[a.head]
	a.history[a.head] = sp
	a.head = (a.head + 1) % historyDepth

	a.terms[telemetry.TermP] = g.P.Mul(err)
	a.terms[telemetry.TermI] = a.sum.MulFix32(g.I).Fix32()
	a.terms[telemetry.TermD] = g.D.Mul(delta)
	a.terms[telemetry.TermFF] = g.FF.Mul(sp.Sub(old))
	a.terms[telemetry.TermS] = g.S.Mul(sp)

	var out fixed.Fix32
	for _, t := range a.terms {
		out = out.Add(t)
	}
	return out
}

// reset clears all state but keeps the D filter gain.
func (a *axisPID) reset() {
	a.sum = fixed.Fix64{}
	a.last = fixed.Fix32{}
	a.primed = false
	a.dLPF.Reset()
	a.history = [historyDepth]fixed.Fix32{}
	a.head = 0
	a.terms = [5]fixed.Fix32{}
}

// loopPID is an outer loop on wide values: vertical or horizontal velocity.
type loopPID struct {
	sum    fixed.Fix64
	last   fixed.Fix64
	lastSp fixed.Fix64
	primed bool
}

// sumLimit bounds the error sum of a loopPID.
type sumLimit struct {
	lo, hi fixed.Fix64
}

// update returns P·err + I·sum + D·(last − measured) + FF·Δsetpoint. A
// non-nil lim bounds the sum before the integral term is taken.
func (l *loopPID) update(g *LoopGains, sp, measured fixed.Fix64, lim *sumLimit) fixed.Fix64 {
	if !l.primed {
		l.last = measured
		l.lastSp = sp
		l.primed = true
	}
	err := sp.Sub(measured)
	l.sum = l.sum.Add(err)
	if lim != nil {
		l.sum = l.sum.Clamp(lim.lo, lim.hi)
	}

	out := g.P.Mul(err).
		Add(g.I.Mul(l.sum)).
		Add(g.D.Mul(l.last.Sub(measured))).
		Add(g.FF.Mul(sp.Sub(l.lastSp)))
	l.last = measured
	l.lastSp = sp
	return out
}

func (l *loopPID) reset() { *l = loopPID{} }
