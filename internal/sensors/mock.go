// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/flight_computer/internal/env"
	"github.com/relabs-tech/flight_computer/internal/imu"
)

// MockIMU generates a craft sitting level with a slow yaw oscillation and a
// fixed gyro bias, for bench runs without hardware.
type MockIMU struct {
	GyroBias [3]int16

	accel1G int16
	perDPS  float64
	start   time.Time
}

// NewMockIMU scales its output like a real sensor with the given ranges.
func NewMockIMU(accelRange, gyroRange byte) *MockIMU {
	return &MockIMU{
		accel1G: int16(32768 / AccelFullScaleG(accelRange)),
		perDPS:  32768 / float64(GyroFullScaleDPS(gyroRange)),
		start:   time.Now(),
	}
}

func (m *MockIMU) Read() (imu.Sample, error) {
	elapsed := time.Since(m.start).Seconds()
	yawRate := 20 * math.Sin(elapsed*0.5) // deg/s

	return imu.Sample{
		Gyro: [3]int16{
			m.GyroBias[0],
			m.GyroBias[1],
			m.GyroBias[2] + int16(yawRate*m.perDPS),
		},
		// Z points down, so gravity reads as -1 g.
		Accel: [3]int16{0, 0, -m.accel1G},
	}, nil
}

// MockBaro reports a slow ±2 m altitude swing around ground pressure.
type MockBaro struct {
	start time.Time
}

func NewMockBaro() *MockBaro { return &MockBaro{start: time.Now()} }

func (m *MockBaro) Read() (env.Sample, error) {
	elapsed := time.Since(m.start).Seconds()
	// About 12 Pa per metre near sea level.
	return env.Sample{
		Temperature: 21,
		Pressure:    101325 - 24*math.Sin(elapsed*0.2),
	}, nil
}
