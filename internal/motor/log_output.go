package motor

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogOutput is the bench output: it keeps the latest command for diagnostics
// and logs one command out of every Every.
type LogOutput struct {
	Every uint32

	log   *logrus.Entry
	count uint32

	// latest packs the four throttles in one word so readers never see a
	// half-written frame.
	latest  atomic.Uint64
	special atomic.Uint32
}

func NewLogOutput(every uint32, log *logrus.Entry) *LogOutput {
	if every == 0 {
		every = 3200
	}
	return &LogOutput{Every: every, log: log.WithField("component", "motor")}
}

// Send never fails.
func (o *LogOutput) Send(cmd Command) error {
	o.latest.Store(pack(cmd.Throttle))
	o.special.Store(uint32(cmd.Special))

	o.count++
	if o.count%o.Every == 0 {
		if cmd.Special != 0 {
			o.log.Debugf("special command %d", cmd.Special)
		} else {
			o.log.Debugf("throttle RR=%d FR=%d RL=%d FL=%d",
				cmd.Throttle[RR], cmd.Throttle[FR], cmd.Throttle[RL], cmd.Throttle[FL])
		}
	}
	return nil
}

// Latest returns the last command sent.
func (o *LogOutput) Latest() Command {
	return Command{Throttle: unpack(o.latest.Load()), Special: uint16(o.special.Load())}
}

// Telemetry reports no RPM data; a bench setup has no ESC feedback.
func (o *LogOutput) Telemetry() [Count]Telemetry {
	return [Count]Telemetry{}
}

func pack(t [Count]uint16) uint64 {
	var v uint64
	for i := Count - 1; i >= 0; i-- {
		v = v<<16 | uint64(t[i])
	}
	return v
}

func unpack(v uint64) [Count]uint16 {
	var t [Count]uint16
	for i := range t {
		t[i] = uint16(v)
		v >>= 16
	}
	return t
}
