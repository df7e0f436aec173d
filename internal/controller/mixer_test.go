package controller

import (
	"math/rand"
	"testing"

	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/motor"
)

func TestRebalance(t *testing.T) {
	tests := []struct {
		name string
		in   [motor.Count]int32
		want [motor.Count]int32
	}{
		{"one motor over max", [4]int32{2100, 1000, 1000, 1000}, [4]int32{2000, 900, 900, 900}},
		{"in range untouched", [4]int32{50, 2000, 1234, 999}, [4]int32{50, 2000, 1234, 999}},
		{"one motor under idle", [4]int32{20, 1000, 1000, 1000}, [4]int32{50, 1030, 1030, 1030}},
		{"over then under", [4]int32{2300, 200, 1000, 1000}, [4]int32{2000, 50, 850, 850}},
		{"all over", [4]int32{2500, 2500, 2500, 2500}, [4]int32{2000, 2000, 2000, 2000}},
		{"all under", [4]int32{-200, -200, -200, -200}, [4]int32{50, 50, 50, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			Rebalance(&got, 50, 2000)
			if got != tt.want {
				t.Fatalf("Rebalance(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRebalanceBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 10000; i++ {
		var in [motor.Count]int32
		inRange := true
		for j := range in {
			in[j] = int32(rng.Intn(3200) - 600)
			if in[j] < 50 || in[j] > 2000 {
				inRange = false
			}
		}
		got := in
		Rebalance(&got, 50, 2000)
		for j, v := range got {
			if v < 50 || v > 2000 {
				t.Fatalf("Rebalance(%v) motor %d = %d out of range", in, j, v)
			}
		}
		if inRange && got != in {
			t.Fatalf("Rebalance changed in-range input %v to %v", in, got)
		}
	}
}

func TestMix(t *testing.T) {
	m := Mixer{PropsOut: true, Idle: 50, Max: 2000}
	k := fixed.Fix32FromInt

	hover := m.Mix(k(1000), k(0), k(0), k(0))
	for i, v := range hover {
		if v != 1025 {
			t.Fatalf("motor %d = %d at hover, want 1025", i, v)
		}
	}

	roll := m.Mix(k(1000), k(100), k(0), k(0))
	if roll[motor.RL] <= roll[motor.RR] || roll[motor.FL] <= roll[motor.FR] {
		t.Fatalf("positive roll should speed up the left side: %v", roll)
	}

	pitch := m.Mix(k(1000), k(0), k(100), k(0))
	if pitch[motor.RR] <= pitch[motor.FR] || pitch[motor.RL] <= pitch[motor.FL] {
		t.Fatalf("positive pitch should speed up the rear: %v", pitch)
	}

	out := m.Mix(k(1000), k(0), k(0), k(100))
	in := Mixer{PropsOut: false, Idle: 50, Max: 2000}.Mix(k(1000), k(0), k(0), k(100))
	if mirrored := m.Mix(k(1000), k(0), k(0), k(-100)); in != mirrored {
		t.Fatalf("props-in yaw should mirror props-out: %v vs %v", in, mirrored)
	}
	if out[motor.RR] <= 1025 || out[motor.FL] <= 1025 {
		t.Fatalf("props-out yaw should speed up RR and FL: %v", out)
	}
}

func TestMixerOutputSaturates(t *testing.T) {
	m := Mixer{PropsOut: true, Idle: 50, Max: 2000}
	out := m.Output(fixed.Fix32FromInt(1900), fixed.Fix32FromInt(300), fixed.Fix32{}, fixed.Fix32{})
	for i, v := range out {
		if v < 50 || v > 2000 {
			t.Fatalf("motor %d = %d", i, v)
		}
	}
	if out[motor.RL] != 2000 || out[motor.FL] != 2000 {
		t.Fatalf("left side should be at max: %v", out)
	}
	if out[motor.RR] >= out[motor.RL] {
		t.Fatalf("roll authority lost: %v", out)
	}
}
