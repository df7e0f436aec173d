package tuning

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/motor"
)

// GainsSink receives converted gain sets. *controller.Controller is one.
type GainsSink interface {
	SetGains(g *controller.Gains)
}

// Message is one runtime tuning request. Every part is optional. Gains is a
// partial profile: fields it leaves out keep their current values.
type Message struct {
	Gains    json.RawMessage `json:"gains,omitempty"`
	Override *OverrideMsg    `json:"override,omitempty"`
	Beacon   *bool           `json:"beacon,omitempty"`
}

// OverrideMsg drives the motors directly while disarmed.
type OverrideMsg struct {
	Enabled bool                `json:"enabled"`
	Motors  [motor.Count]uint16 `json:"motors"`
}

// Tuner holds the current profile and the disarmed-only requests. Handle is
// called from the MQTT goroutine; the Override and Beacon readers are safe
// from the tick.
type Tuner struct {
	mu      sync.Mutex
	profile Profile
	sink    GainsSink
	log     *logrus.Entry

	// OnHandle, if set, runs after every message Subscribe delivers.
	OnHandle func(start time.Time, err error)

	override  atomic.Bool
	overrides atomic.Uint64 // four packed uint16 values
	beacon    atomic.Bool
}

// NewTuner publishes p to sink and returns a Tuner that starts from it.
func NewTuner(p Profile, sink GainsSink, log *logrus.Entry) *Tuner {
	t := &Tuner{profile: p, sink: sink, log: log.WithField("component", "tuning")}
	sink.SetGains(p.Gains())
	return t
}

// Profile returns a copy of the current profile.
func (t *Tuner) Profile() Profile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profile
}

// Handle applies one JSON tuning message. An invalid message changes
// nothing.
func (t *Tuner) Handle(payload []byte) error {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return errors.Wrap(err, "failed to decode tuning message")
	}

	if len(msg.Gains) > 0 {
		t.mu.Lock()
		next := t.profile
		if err := json.Unmarshal(msg.Gains, &next); err != nil {
			t.mu.Unlock()
			return errors.Wrap(err, "failed to decode gains")
		}
		if err := next.Validate(); err != nil {
			t.mu.Unlock()
			return errors.Wrap(err, "rejected gains")
		}
		t.profile = next
		t.mu.Unlock()
		t.sink.SetGains(next.Gains())
		t.log.Infof("gains updated")
	}

	if o := msg.Override; o != nil {
		var packed uint64
		for i, v := range o.Motors {
			if v > motor.MaxThrottle {
				v = motor.MaxThrottle
			}
			packed |= uint64(v) << (16 * i)
		}
		t.overrides.Store(packed)
		t.override.Store(o.Enabled)
		t.log.Infof("motor override enabled=%v motors=%v", o.Enabled, o.Motors)
	}

	if msg.Beacon != nil {
		t.beacon.Store(*msg.Beacon)
	}
	return nil
}

// Override returns the motor override request.
func (t *Tuner) Override() (bool, [motor.Count]uint16) {
	var v [motor.Count]uint16
	if !t.override.Load() {
		return false, v
	}
	packed := t.overrides.Load()
	for i := range v {
		v[i] = uint16(packed >> (16 * i))
	}
	return true, v
}

// Beacon reports whether the configurator asked for the motor beacon.
func (t *Tuner) Beacon() bool { return t.beacon.Load() }

// Subscribe feeds tuning messages from topic into Handle.
func (t *Tuner) Subscribe(client mqtt.Client, topic string) error {
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		start := time.Now()
		err := t.Handle(msg.Payload())
		if err != nil {
			t.log.Warnf("%v", err)
		}
		if t.OnHandle != nil {
			t.OnHandle(start, err)
		}
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "failed to subscribe to %s", topic)
	}
	t.log.Infof("subscribed to %s", topic)
	return nil
}
