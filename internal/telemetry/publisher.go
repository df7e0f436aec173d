package telemetry

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Publisher ships recorder frames to an MQTT topic at a fixed interval.
type Publisher struct {
	Client   mqtt.Client
	Topic    string
	Recorder *Recorder
	Flags    Flags
	Interval time.Duration
	Log      *logrus.Entry

	// OnPublish, if set, runs after every attempt with its result.
	OnPublish func(start time.Time, err error)
}

// Run publishes until ctx is cancelled. Publish failures are logged and do
// not stop the loop.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			err := PublishJSON(p.Client, p.Topic, p.Recorder.Load(p.Flags))
			if err != nil {
				p.Log.WithError(err).Warn("telemetry publish failed")
			}
			if p.OnPublish != nil {
				p.OnPublish(start, err)
			}
		}
	}
}

// PublishJSON marshals v and publishes it with QoS 0.
func PublishJSON(client mqtt.Client, topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s payload", topic)
	}
	tok := client.Publish(topic, 0, false, payload)
	tok.Wait()
	if err := tok.Error(); err != nil {
		return errors.Wrapf(err, "publish %s", topic)
	}
	return nil
}
