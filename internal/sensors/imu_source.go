// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/flight_computer/internal/imu"
)

type mpuReader struct {
	imu *mpu9250.MPU9250
}

// NewMPU9250 initializes the MPU9250 over SPI with the given range
// selectors. Self-test and factory calibration failures are logged, not
// fatal.
func NewMPU9250(spiDev, csPin string, accelRange, gyroRange byte, log *logrus.Entry) (IMUReader, error) {
	log = log.WithField("component", "imu")

	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "IMU: periph host init")
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, errors.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, errors.Wrapf(err, "IMU: SPI transport (%s)", spiDev)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, errors.Wrap(err, "IMU: device creation")
	}

	if err := dev.Init(); err != nil {
		return nil, errors.Wrap(err, "IMU: initialization")
	}

	if err := dev.SetAccelRange(accelRange); err != nil {
		return nil, errors.Wrap(err, "IMU: set accel range")
	}
	log.Infof("accelerometer range set to %d (±%dg)", accelRange, AccelFullScaleG(accelRange))

	if err := dev.SetGyroRange(gyroRange); err != nil {
		return nil, errors.Wrap(err, "IMU: set gyro range")
	}
	log.Infof("gyroscope range set to %d (±%d°/s)", gyroRange, GyroFullScaleDPS(gyroRange))

	testResult, err := dev.SelfTest()
	if err != nil {
		log.Warnf("self-test failed: %v", err)
	} else {
		log.Infof("self-test passed: accel deviation X: %.2f%%, Y: %.2f%%, Z: %.2f%%; gyro deviation X: %.2f%%, Y: %.2f%%, Z: %.2f%%",
			testResult.AccelDeviation.X, testResult.AccelDeviation.Y, testResult.AccelDeviation.Z,
			testResult.GyroDeviation.X, testResult.GyroDeviation.Y, testResult.GyroDeviation.Z)
	}

	if err := dev.Calibrate(); err != nil {
		log.Warnf("calibration failed: %v", err)
	} else {
		log.Infof("calibration complete")
	}

	return &mpuReader{imu: dev}, nil
}

// Read reads accelerometer and gyroscope counts.
func (s *mpuReader) Read() (imu.Sample, error) {
	var out imu.Sample
	reads := [...]struct {
		dst  *int16
		read func() (int16, error)
		name string
	}{
		{&out.Accel[0], s.imu.GetAccelerationX, "accel X"},
		{&out.Accel[1], s.imu.GetAccelerationY, "accel Y"},
		{&out.Accel[2], s.imu.GetAccelerationZ, "accel Z"},
		{&out.Gyro[0], s.imu.GetRotationX, "gyro X"},
		{&out.Gyro[1], s.imu.GetRotationY, "gyro Y"},
		{&out.Gyro[2], s.imu.GetRotationZ, "gyro Z"},
	}
	for _, r := range reads {
		v, err := r.read()
		if err != nil {
			return imu.Sample{}, errors.Wrapf(err, "IMU %s", r.name)
		}
		*r.dst = v
	}
	return out, nil
}
