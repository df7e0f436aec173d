package controller

import "github.com/relabs-tech/flight_computer/internal/fixed"

// GyroRates converts raw gyro counts (body NED: roll right, pitch nose up,
// yaw right) into deg/s in the controller convention, where pitch is
// positive nose down.
func GyroRates(raw [3]int16, fullScaleDPS int32) [3]fixed.Fix32 {
	// One count is 2·fullScale/65536 deg/s, which is raw 2·fullScale in 16.16.
	perCount := 2 * fullScaleDPS
	return [3]fixed.Fix32{
		fixed.Fix32FromRaw(int32(raw[0]) * perCount),
		fixed.Fix32FromRaw(-int32(raw[1]) * perCount),
		fixed.Fix32FromRaw(int32(raw[2]) * perCount),
	}
}
