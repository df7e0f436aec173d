package controller

import (
	"sync/atomic"

	"github.com/relabs-tech/flight_computer/internal/fixed"
)

// NavSample is the horizontal navigation state from GPS in a local
// north/east frame.
type NavSample struct {
	VelN, VelE fixed.Fix32 // m/s
	PosN, PosE fixed.Fix64 // m from the local origin
	Valid      bool
}

// NavInputs carries NavSample from the GPS task to the tick. Fields are
// stored one by one, so a load racing a store may combine two fixes.
type NavInputs struct {
	velN, velE atomic.Int32
	posN, posE atomic.Int64
	valid      atomic.Bool
}

func (n *NavInputs) Store(s NavSample) {
	n.velN.Store(s.VelN.Raw())
	n.velE.Store(s.VelE.Raw())
	n.posN.Store(s.PosN.Raw())
	n.posE.Store(s.PosE.Raw())
	n.valid.Store(s.Valid)
}

func (n *NavInputs) Load() NavSample {
	return NavSample{
		VelN:  fixed.Fix32FromRaw(n.velN.Load()),
		VelE:  fixed.Fix32FromRaw(n.velE.Load()),
		PosN:  fixed.Fix64FromRaw(n.posN.Load()),
		PosE:  fixed.Fix64FromRaw(n.posE.Load()),
		Valid: n.valid.Load(),
	}
}
