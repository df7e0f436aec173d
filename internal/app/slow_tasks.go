package app

import (
	"context"
	"time"

	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/env"
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/gps"
	"github.com/relabs-tech/flight_computer/internal/rc"
	"github.com/relabs-tech/flight_computer/internal/taskstats"
	"github.com/relabs-tech/flight_computer/internal/telemetry"
)

const (
	taskStatsInterval = time.Second
	gpsRetryDelay     = 5 * time.Second
)

// every runs fn on a ticker until ctx is cancelled.
func every(ctx context.Context, d time.Duration, fn func(now time.Time)) error {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			fn(now)
		}
	}
}

// runBaro polls the barometer and feeds altitude and climb rate to the
// estimator. Without a barometer the estimator sees an invalid reading.
func (f *flight) runBaro(ctx context.Context) error {
	if f.baro == nil {
		f.inputs.SetBaro(fixed.Fix64{}, fixed.Fix64{}, false)
		return nil
	}
	alt := env.NewAltimeter()
	return every(ctx, time.Duration(f.cfg.BaroIntervalMS)*time.Millisecond, func(now time.Time) {
		s, err := f.baro.Read()
		if err != nil {
			f.stats.Fail(taskstats.TaskBaro, errCodeRead)
			f.inputs.SetBaro(fixed.Fix64{}, fixed.Fix64{}, false)
			return
		}
		altitude, upVel := alt.Update(s, now)
		f.inputs.SetBaro(fixed.Fix64FromFloat(upVel), fixed.Fix64FromFloat(altitude), true)
		f.stats.Record(taskstats.TaskBaro, now, time.Now())
	})
}

// runGPS reads the receiver, publishes every fix and keeps the navigation
// inputs and heading bias current. A failing port is reopened after a delay.
func (f *flight) runGPS(ctx context.Context) error {
	log := f.log.WithField("component", "gps")
	if f.cfg.UseMockSensors {
		log.Infof("no GPS with mock sensors, GPS modes fall back to attitude hold")
		return nil
	}

	var (
		frame   gps.LocalFrame
		heading = gps.HeadingCorrector{Inputs: &f.inputs}
	)
	onFix := func(fix gps.Fix) {
		start := time.Now()
		f.nav.Store(frame.Nav(&fix))
		f.inputs.SetGPSVertical(fixed.Fix64FromFloat(fix.UpVelocity), fix.Has3D())
		if heading.Update(&fix, f.rec.Attitude().Heading) {
			log.Debugf("heading bias now %d cdeg", f.inputs.HeadingBias())
		}
		if err := telemetry.PublishJSON(f.client, f.cfg.TopicGPS, fix); err != nil {
			f.stats.Fail(taskstats.TaskGPS, errCodePublish)
		}
		f.stats.Record(taskstats.TaskGPS, start, time.Now())
	}

	reader := gps.Reader{PortName: f.cfg.GPSSerialPort, BaudRate: uint(f.cfg.GPSBaudRate), Log: log}
	for {
		err := reader.Run(ctx, onFix)
		if ctx.Err() != nil {
			return nil
		}
		f.nav.Store(controller.NavSample{})
		f.inputs.SetGPSVertical(fixed.Fix64{}, false)
		f.stats.Fail(taskstats.TaskGPS, errCodeRead)
		log.Warnf("GPS reader stopped, retrying in %v: %v", gpsRetryDelay, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(gpsRetryDelay):
		}
	}
}

// runModes maps the mode switches of the latest RC frame to a flight mode.
func (f *flight) runModes(ctx context.Context) error {
	log := f.log.WithField("component", "modes")
	current := f.mode.Load()
	return every(ctx, time.Duration(f.cfg.SlowTaskIntervalMS)*time.Millisecond, func(now time.Time) {
		frame, ok := f.link.Latest()
		if !ok {
			return
		}
		m := controller.SelectMode(frame.Channels[rc.ChannelMode], frame.Channels[rc.ChannelNavMode])
		if m != current {
			log.Infof("flight mode %v", m)
			current = m
		}
		f.mode.Store(m)
		f.stats.Record(taskstats.TaskModes, now, time.Now())
	})
}

// runTelemetry publishes recorder frames at the configured interval.
func (f *flight) runTelemetry(ctx context.Context) error {
	flags, err := telemetry.ParseFlags(f.cfg.TelemetryFlags)
	if err != nil {
		return err
	}
	p := telemetry.Publisher{
		Client:   f.client,
		Topic:    f.cfg.TopicTelemetry,
		Recorder: &f.rec,
		Flags:    flags,
		Interval: time.Duration(f.cfg.TelemetryIntervalMS) * time.Millisecond,
		Log:      f.log.WithField("component", "telemetry"),
		OnPublish: func(start time.Time, err error) {
			if err != nil {
				f.stats.Fail(taskstats.TaskTelemetry, errCodePublish)
				return
			}
			f.stats.Record(taskstats.TaskTelemetry, start, time.Now())
		},
	}
	p.Run(ctx)
	return nil
}

// runTaskStats publishes the task counters once a second.
func (f *flight) runTaskStats(ctx context.Context) error {
	return every(ctx, taskStatsInterval, func(now time.Time) {
		if err := telemetry.PublishJSON(f.client, f.cfg.TopicTasks, f.stats.Snapshot()); err != nil {
			f.stats.Fail(taskstats.TaskStats, errCodePublish)
			return
		}
		f.stats.Record(taskstats.TaskStats, now, time.Now())
	})
}

// runMockRC feeds a disarmed stick sweep at the RC frame rate.
func (f *flight) runMockRC(ctx context.Context) error {
	src := rc.NewMockSource(false)
	return every(ctx, time.Duration(f.cfg.RCFrameIntervalUS)*time.Microsecond, func(now time.Time) {
		f.link.Push(src.Next(), now)
		f.stats.Record(taskstats.TaskRC, now, time.Now())
	})
}
