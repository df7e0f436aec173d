package imu

// Sample is one raw gyro and accelerometer reading in sensor counts, body
// axes: X forward, Y right, Z down.
type Sample struct {
	Gyro  [3]int16 `json:"gyro"`
	Accel [3]int16 `json:"accel"`
}
