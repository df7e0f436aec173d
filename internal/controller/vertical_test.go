package controller

import (
	"testing"

	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/orientation"
)

func TestClimbCommand(t *testing.T) {
	tests := []struct {
		ch, want int32
	}{
		{1500, 0},
		{1549, 0},
		{1451, 0},
		{1550, 0},
		{1600, 100},
		{2000, 900},
		{1000, -900},
	}
	for _, tt := range tests {
		if got := climbCommand(tt.ch); got != tt.want {
			t.Errorf("climbCommand(%d) = %d, want %d", tt.ch, got, tt.want)
		}
	}
}

func TestAltitudeCapture(t *testing.T) {
	g := DefaultGains()
	var v verticalLoop
	att := &orientation.Attitude{Altitude: fixed.Fix64FromInt(10)}

	for i := 1; i < altCaptureTicks; i++ {
		v.update(g, 1500, att)
	}
	if v.altHeld {
		t.Fatal("altitude captured too early")
	}
	v.update(g, 1500, att)
	if !v.altHeld || v.altSetpoint != fixed.Fix64FromInt(10) {
		t.Fatalf("held=%v setpoint=%v", v.altHeld, v.altSetpoint.Float())
	}

	// One metre low: P alone asks for 0.5 m/s, the integral adds a little.
	att.Altitude = fixed.Fix64FromInt(9)
	v.update(g, 1500, att)
	if sp := v.setpoint.Float(); sp < 0.5 || sp > 0.501 {
		t.Fatalf("setpoint %v one metre low, want about 0.5", sp)
	}

	// Far below: the correction clamps at 2 m/s.
	att.Altitude = fixed.Fix64{}
	v.update(g, 1500, att)
	if sp := v.setpoint.Float(); sp != 2 {
		t.Fatalf("setpoint %v far below, want 2", sp)
	}

	v.update(g, 2000, att)
	if v.altHeld || v.setpoint.Float() != 5 {
		t.Fatalf("full climb: held=%v setpoint=%v", v.altHeld, v.setpoint.Float())
	}
}

func TestHoverIntegralBounded(t *testing.T) {
	g := DefaultGains()
	lim := hoverSumLimit(g)
	var v verticalLoop
	att := &orientation.Attitude{VerticalVelocity: fixed.Fix64FromInt(-3)}

	for i := 0; i < 100000; i++ {
		out := v.update(g, 2000, att)
		if out.Float() < 0 || out.Float() > maxCollective {
			t.Fatalf("throttle %v out of range", out.Float())
		}
	}
	if v.vel.sum != lim {
		t.Fatalf("sum %v, want clamped at %v", v.vel.sum.Float(), lim.Float())
	}

	att.VerticalVelocity = fixed.Fix64FromInt(30)
	for i := 0; i < 100000; i++ {
		v.update(g, 1000, att)
	}
	if !v.vel.sum.IsZero() {
		t.Fatalf("sum %v, want clamped at 0", v.vel.sum.Float())
	}
}
