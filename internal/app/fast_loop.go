package app

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/imu"
	"github.com/relabs-tech/flight_computer/internal/motor"
	"github.com/relabs-tech/flight_computer/internal/rc"
	"github.com/relabs-tech/flight_computer/internal/sensors"
	"github.com/relabs-tech/flight_computer/internal/taskstats"
)

// maxLag is how many periods the loop may fall behind before it drops the
// missed ticks instead of running them back to back.
const maxLag = 4

// runFastLoop runs read, estimate, control and output once per period on a
// dedicated OS thread. Stages never wait on the slow tasks.
func (f *flight) runFastLoop(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log := f.log.WithField("component", "fast_loop")
	period := time.Second / time.Duration(f.cfg.LoopFrequencyHz)
	gyroFS := sensors.GyroFullScaleDPS(f.cfg.IMUGyroRange)

	sample, err := f.imu.Read()
	if err != nil {
		return err
	}
	f.est.Align(sample.Accel)

	var in controller.TickInput
	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			f.stop(log)
			return nil
		default:
		}

		t0 := time.Now()
		if s, err := f.imu.Read(); err != nil {
			// Keep flying on the previous sample.
			f.stats.Fail(taskstats.TaskIMURead, errCodeRead)
		} else {
			sample = s
		}
		t1 := time.Now()
		f.stats.Record(taskstats.TaskIMURead, t0, t1)

		f.est.Update(sample.Gyro, sample.Accel)
		f.est.UpdateVertical()
		t2 := time.Now()
		f.stats.Record(taskstats.TaskEstimator, t1, t2)

		f.fillInput(&in, &sample, gyroFS, t2)
		cmd := f.ctrl.Tick(&in)
		t3 := time.Now()
		f.stats.Record(taskstats.TaskController, t2, t3)

		if err := f.out.Send(cmd); err != nil {
			f.stats.Fail(taskstats.TaskMotorOutput, errCodeSend)
		}
		f.stats.Record(taskstats.TaskMotorOutput, t3, time.Now())

		next = next.Add(period)
		wait := time.Until(next)
		if wait > 0 {
			time.Sleep(wait)
		} else if wait < -maxLag*period {
			next = time.Now()
		}
	}
}

// fillInput gathers the tick input from the sensor sample and the shared
// state written by the slow tasks.
func (f *flight) fillInput(in *controller.TickInput, s *imu.Sample, gyroFS int32, now time.Time) {
	in.LinkValid = f.link.Smoothed(now, &in.Channels)
	if frame, ok := f.link.Latest(); ok {
		in.RawThrottle = frame.Channels[rc.ChannelThrottle]
	} else {
		in.RawThrottle = rc.MinThrottle
	}
	in.Rates = controller.GyroRates(s.Gyro, gyroFS)
	in.Attitude = f.est.Attitude()
	in.Nav = f.nav.Load()
	in.Mode = f.mode.Load()
	in.Beacon = f.tuner.Beacon()
	in.Override, in.OverrideValues = f.tuner.Override()
}

func (f *flight) stop(log *logrus.Entry) {
	if err := f.out.Send(motor.Command{Special: motor.CmdMotorStop}); err != nil {
		f.stats.Fail(taskstats.TaskMotorOutput, errCodeSend)
	}
	log.Infof("motors stopped")
}
