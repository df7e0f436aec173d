package app

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_computer/internal/config"
	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/gps"
	"github.com/relabs-tech/flight_computer/internal/taskstats"
	"github.com/relabs-tech/flight_computer/internal/telemetry"
)

func formatFrame(f *telemetry.Frame) string {
	s := fmt.Sprintf("[FC  ] tick=%d armed=%v mode=%v thr=%.3f",
		f.Tick, f.Armed, controller.Mode(f.Mode), f.Throttle)
	if a := f.Attitude; a != nil {
		s += fmt.Sprintf("  ROLL=%6.2f PITCH=%6.2f HDG=%7.2f  alt=%.2fm vz=%.2fm/s",
			a.Roll, a.Pitch, a.Heading, a.Altitude, a.VerticalVelocity)
	}
	if len(f.Motors) > 0 {
		s += fmt.Sprintf("  motors=%v", f.Motors)
	}
	return s
}

func formatFix(f *gps.Fix) string {
	return fmt.Sprintf("[GPS ] time=%s lat=%.6f lon=%.6f alt=%.1fm speed=%.1fm/s course=%.1f° sats=%d hdop=%.1f valid=%v",
		f.Time, f.Latitude, f.Longitude, f.Altitude, f.Speed, f.CourseDeg, f.Satellites, f.HDOP, f.Valid)
}

func formatTask(s *taskstats.Snapshot) string {
	return fmt.Sprintf("[TASK] %-12s runs=%8d avg=%7.1fus max=%7.1fus gap=%8.1fus err=%d/%d",
		s.Name, s.Runs, s.AvgUs, s.MaxUs, s.MaxGapUs, s.Errors, s.LastError)
}

// RunConsoleMQTT prints telemetry, GPS fixes and task stats until ctx is
// cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	log := logger.WithField("component", "console")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "MQTT connect %s", cfg.MQTTBroker)
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	handlers := []struct {
		topic  string
		handle func(payload []byte) error
	}{
		{cfg.TopicTelemetry, func(payload []byte) error {
			var f telemetry.Frame
			if err := json.Unmarshal(payload, &f); err != nil {
				return err
			}
			fmt.Println(formatFrame(&f))
			return nil
		}},
		{cfg.TopicGPS, func(payload []byte) error {
			var f gps.Fix
			if err := json.Unmarshal(payload, &f); err != nil {
				return err
			}
			fmt.Println(formatFix(&f))
			return nil
		}},
		{cfg.TopicTasks, func(payload []byte) error {
			var tasks []taskstats.Snapshot
			if err := json.Unmarshal(payload, &tasks); err != nil {
				return err
			}
			for i := range tasks {
				fmt.Println(formatTask(&tasks[i]))
			}
			return nil
		}},
	}
	for _, h := range handlers {
		h := h
		token := client.Subscribe(h.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := h.handle(msg.Payload()); err != nil {
				log.Warnf("%s unmarshal error: %v", h.topic, err)
			}
		})
		token.Wait()
		if err := token.Error(); err != nil {
			return errors.Wrapf(err, "failed to subscribe to %s", h.topic)
		}
		log.Infof("subscribed to %s", h.topic)
	}

	<-ctx.Done()
	log.Infof("shutting down")
	return nil
}
