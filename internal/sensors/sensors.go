// Package sensors reads the flight sensors: the MPU9250 IMU and the BMx280
// barometer over SPI, or mock replacements for bench runs.
package sensors

import (
	"github.com/pkg/errors"

	"github.com/relabs-tech/flight_computer/internal/env"
	"github.com/relabs-tech/flight_computer/internal/imu"
)

// IMUReader returns one raw IMU sample per call. It is called from the fast
// loop and must not block longer than a sensor transfer.
type IMUReader interface {
	Read() (imu.Sample, error)
}

// BaroReader returns one barometer sample per call.
type BaroReader interface {
	Read() (env.Sample, error)
}

// Full scale per range selector, as written to GYRO_CONFIG and ACCEL_CONFIG.
var (
	gyroFullScale  = [4]int32{250, 500, 1000, 2000}
	accelFullScale = [4]int32{2, 4, 8, 16}
)

// GyroFullScaleDPS returns ±deg/s for a gyro range selector 0..3.
func GyroFullScaleDPS(sel byte) int32 { return gyroFullScale[sel&3] }

// AccelFullScaleG returns ±g for an accelerometer range selector 0..3.
func AccelFullScaleG(sel byte) int32 { return accelFullScale[sel&3] }

// GyroBias averages n gyro samples taken at rest.
func GyroBias(r IMUReader, n int) ([3]int16, error) {
	var bias [3]int16
	if n <= 0 {
		return bias, errors.New("gyro bias needs at least one sample")
	}
	var sum [3]int64
	for i := 0; i < n; i++ {
		s, err := r.Read()
		if err != nil {
			return bias, errors.Wrapf(err, "gyro bias sample %d", i)
		}
		for j, v := range s.Gyro {
			sum[j] += int64(v)
		}
	}
	for j := range bias {
		bias[j] = int16(sum[j] / int64(n))
	}
	return bias, nil
}

// Calibrated subtracts a fixed gyro bias from every sample of the wrapped
// reader.
type Calibrated struct {
	IMUReader
	Bias [3]int16
}

func (c *Calibrated) Read() (imu.Sample, error) {
	s, err := c.IMUReader.Read()
	if err != nil {
		return s, err
	}
	for i, b := range c.Bias {
		v := int32(s.Gyro[i]) - int32(b)
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		s.Gyro[i] = int16(v)
	}
	return s, nil
}
