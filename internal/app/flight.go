// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/flight_computer/internal/config"
	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/motor"
	"github.com/relabs-tech/flight_computer/internal/orientation"
	"github.com/relabs-tech/flight_computer/internal/rc"
	"github.com/relabs-tech/flight_computer/internal/sensors"
	"github.com/relabs-tech/flight_computer/internal/taskstats"
	"github.com/relabs-tech/flight_computer/internal/telemetry"
	"github.com/relabs-tech/flight_computer/internal/tuning"
)

// Error codes recorded in the task stats.
const (
	errCodeRead uint32 = iota + 1
	errCodeDecode
	errCodePublish
	errCodeSend
)

// gyroBiasSamples are averaged at startup with the craft at rest.
const gyroBiasSamples = 2000

// flight is everything the fast loop and the slow tasks share.
type flight struct {
	cfg *config.Config
	log *logrus.Entry

	imu  sensors.IMUReader
	baro sensors.BaroReader

	inputs orientation.Inputs
	nav    controller.NavInputs
	mode   controller.SharedMode
	link   *rc.Link
	rec    telemetry.Recorder
	stats  *taskstats.Registry

	est   *orientation.Estimator
	ctrl  *controller.Controller
	tuner *tuning.Tuner
	out   motor.Output

	client mqtt.Client
}

// RunFlightController runs the flight controller until ctx is cancelled or a
// task fails.
func RunFlightController(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	log := logger.WithField("component", "fc")
	log.Infof("starting flight controller at %d Hz", cfg.LoopFrequencyHz)

	f, err := newFlight(cfg, log)
	if err != nil {
		return err
	}
	defer f.client.Disconnect(250)

	if err := f.subscribe(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return f.runFastLoop(ctx) })
	g.Go(func() error { return f.runBaro(ctx) })
	g.Go(func() error { return f.runGPS(ctx) })
	g.Go(func() error { return f.runModes(ctx) })
	g.Go(func() error { return f.runTaskStats(ctx) })
	g.Go(func() error { return f.runTelemetry(ctx) })
	if cfg.UseMockSensors {
		g.Go(func() error { return f.runMockRC(ctx) })
	}

	err = g.Wait()
	log.Infof("flight controller stopped")
	return err
}

func newFlight(cfg *config.Config, log *logrus.Entry) (*flight, error) {
	f := &flight{
		cfg:   cfg,
		log:   log,
		stats: taskstats.NewRegistry(),
		link: rc.NewLink(
			time.Duration(cfg.RCFrameIntervalUS)*time.Microsecond,
			time.Duration(cfg.FailsafeTimeoutMS)*time.Millisecond,
		),
	}

	profile := tuning.DefaultProfile()
	if cfg.TuningProfile != "" {
		var err error
		if profile, err = tuning.LoadProfile(cfg.TuningProfile); err != nil {
			return nil, err
		}
		log.Infof("loaded tuning profile %s", cfg.TuningProfile)
	}

	if err := f.openSensors(); err != nil {
		return nil, err
	}

	estCfg := orientation.DefaultConfig()
	estCfg.SampleHz = float64(cfg.LoopFrequencyHz)
	estCfg.GyroFullScaleDPS = float64(sensors.GyroFullScaleDPS(cfg.IMUGyroRange))
	estCfg.AccelFullScaleG = float64(sensors.AccelFullScaleG(cfg.IMUAccelRange))
	f.est = orientation.NewEstimator(estCfg, &f.inputs)

	f.ctrl = controller.New(controller.Config{
		SampleHz: float64(cfg.LoopFrequencyHz),
		PropsOut: cfg.PropsOut,
		Idle:     cfg.IdleValue(),
	}, nil, &f.rec)
	f.tuner = tuning.NewTuner(profile, f.ctrl, log)
	f.out = motor.NewLogOutput(uint32(cfg.LoopFrequencyHz), log)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDFC).
		SetAutoReconnect(true)
	f.client = mqtt.NewClient(opts)
	if token := f.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "MQTT connect %s", cfg.MQTTBroker)
	}
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)
	return f, nil
}

// openSensors picks real or mock sensors and removes the gyro bias.
func (f *flight) openSensors() error {
	cfg := f.cfg
	var raw sensors.IMUReader
	if cfg.UseMockSensors {
		f.log.Infof("using mock sensors")
		mock := sensors.NewMockIMU(cfg.IMUAccelRange, cfg.IMUGyroRange)
		mock.GyroBias = [3]int16{12, -7, 3}
		raw = mock
		f.baro = sensors.NewMockBaro()
	} else {
		var err error
		if raw, err = sensors.NewMPU9250(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, cfg.IMUGyroRange, f.log); err != nil {
			return err
		}
		if f.baro, err = sensors.NewBMX280(cfg.BaroSPIDevice, f.log); err != nil {
			f.log.Warnf("barometer unavailable, altitude modes will drift: %v", err)
			f.baro = nil
		}
	}

	bias, err := sensors.GyroBias(raw, gyroBiasSamples)
	if err != nil {
		return errors.Wrap(err, "gyro calibration")
	}
	f.log.Infof("gyro bias %v", bias)
	f.imu = &sensors.Calibrated{IMUReader: raw, Bias: bias}
	return nil
}

// subscribe wires the RC and tuning topics.
func (f *flight) subscribe() error {
	rcLog := f.log.WithField("component", "rc")
	token := f.client.Subscribe(f.cfg.TopicRC, 0, func(_ mqtt.Client, msg mqtt.Message) {
		start := time.Now()
		channels, err := rc.DecodeMessage(msg.Payload())
		if err != nil {
			f.stats.Fail(taskstats.TaskRC, errCodeDecode)
			rcLog.Debugf("%v", err)
			return
		}
		f.link.Push(channels, start)
		f.stats.Record(taskstats.TaskRC, start, time.Now())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "failed to subscribe to %s", f.cfg.TopicRC)
	}
	rcLog.Infof("subscribed to %s", f.cfg.TopicRC)

	f.tuner.OnHandle = func(start time.Time, err error) {
		if err != nil {
			f.stats.Fail(taskstats.TaskTuning, errCodeDecode)
			return
		}
		f.stats.Record(taskstats.TaskTuning, start, time.Now())
	}
	return f.tuner.Subscribe(f.client, f.cfg.TopicTuning)
}
