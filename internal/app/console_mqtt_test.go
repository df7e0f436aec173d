package app

import (
	"strings"
	"testing"

	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/gps"
	"github.com/relabs-tech/flight_computer/internal/orientation"
	"github.com/relabs-tech/flight_computer/internal/taskstats"
	"github.com/relabs-tech/flight_computer/internal/telemetry"
)

func TestConsoleFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want []string
		not  []string
	}{
		{
			name: "frame without groups",
			got:  formatFrame(&telemetry.Frame{Tick: 42, Mode: int32(controller.ModeAngle), Throttle: 0.5}),
			want: []string{"tick=42", "armed=false", "mode=" + controller.ModeAngle.String(), "thr=0.500"},
			not:  []string{"ROLL", "motors"},
		},
		{
			name: "frame with attitude",
			got: formatFrame(&telemetry.Frame{
				Armed:    true,
				Attitude: &orientation.Pose{Roll: 1.5, Pitch: -2, Heading: 90, Altitude: 3.25},
				Motors:   []uint16{1000, 1100, 1200, 1300},
			}),
			want: []string{"armed=true", "ROLL=  1.50", "PITCH= -2.00", "alt=3.25m", "motors=[1000 1100 1200 1300]"},
		},
		{
			name: "fix",
			got:  formatFix(&gps.Fix{Time: "12:35:19.0000", Latitude: 48.1173, Satellites: 8, HDOP: 0.9, Valid: true}),
			want: []string{"time=12:35:19.0000", "lat=48.117300", "sats=8", "hdop=0.9", "valid=true"},
		},
		{
			name: "task",
			got:  formatTask(&taskstats.Snapshot{Name: "imu_read", Runs: 3200, AvgUs: 12.5, Errors: 2, LastError: 1}),
			want: []string{"imu_read", "runs=    3200", "avg=   12.5us", "err=2/1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, w := range tt.want {
				if !strings.Contains(tt.got, w) {
					t.Errorf("%q missing %q", tt.got, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(tt.got, n) {
					t.Errorf("%q should not contain %q", tt.got, n)
				}
			}
		})
	}
}
