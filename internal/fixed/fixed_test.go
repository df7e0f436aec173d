package fixed

import (
	"math"
	"math/rand"
	"testing"
)

func TestFix32Basics(t *testing.T) {
	tests := []struct {
		name string
		got  Fix32
		want float64
	}{
		{"from int", Fix32FromInt(3), 3},
		{"from float", Fix32FromFloat(-1.5), -1.5},
		{"add", Fix32FromInt(2).Add(Fix32FromFloat(0.25)), 2.25},
		{"sub", Fix32FromInt(2).Sub(Fix32FromInt(5)), -3},
		{"mul", Fix32FromFloat(1.5).Mul(Fix32FromFloat(-2.5)), -3.75},
		{"div", Fix32FromInt(7).Div(Fix32FromInt(2)), 3.5},
		{"mul int", Fix32FromFloat(0.5).MulInt(7), 3.5},
		{"div int", Fix32FromInt(9).DivInt(4), 2.25},
		{"shr", Fix32FromInt(10).Shr(2), 2.5},
		{"shl", Fix32FromFloat(0.75).Shl(3), 6},
		{"neg", Fix32FromInt(4).Neg(), -4},
		{"abs", Fix32FromFloat(-0.125).Abs(), 0.125},
		{"clamp high", Fix32FromInt(40).Clamp(Fix32FromInt(-35), Fix32FromInt(35)), 35},
		{"clamp low", Fix32FromInt(-40).Clamp(Fix32FromInt(-35), Fix32FromInt(35)), -35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Float() != tt.want {
				t.Fatalf("got %v, want %v", tt.got.Float(), tt.want)
			}
		})
	}
}

func TestFix32Sign(t *testing.T) {
	if Fix32FromInt(-2).Sign() != -1 || Fix32FromInt(0).Sign() != 0 || Fix32FromRaw(1).Sign() != 1 {
		t.Fatal("unexpected sign")
	}
	if Fix32FromFloat(-0.5).Int() != -1 {
		t.Fatalf("Int should floor, got %d", Fix32FromFloat(-0.5).Int())
	}
}

func TestFix32DivByZeroSaturates(t *testing.T) {
	if got := Fix32FromInt(3).Div(Fix32{}); got.Raw() != math.MaxInt32 {
		t.Fatalf("positive / 0 = %d", got.Raw())
	}
	if got := Fix32FromInt(-3).Div(Fix32{}); got.Raw() != math.MinInt32 {
		t.Fatalf("negative / 0 = %d", got.Raw())
	}
	if got := (Fix32{}).Div(Fix32{}); !got.IsZero() {
		t.Fatalf("0 / 0 = %d", got.Raw())
	}
}

func TestFix32MulMatchesScaledIntegers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ulp := 1.0 / one32
	for i := 0; i < 10000; i++ {
		a := Fix32FromRaw(int32(rng.Int63n(200*one32) - 100*one32))
		b := Fix32FromRaw(int32(rng.Int63n(200*one32) - 100*one32))
		got := a.Mul(b).Float()
		want := a.Float() * b.Float()
		if math.Abs(got-want) > ulp {
			t.Fatalf("%v * %v = %v, want %v", a.Float(), b.Float(), got, want)
		}
	}
}

func TestFix64MulMatchesScaledIntegers(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tol := 2.0 / one64
	for i := 0; i < 10000; i++ {
		a := Fix64FromRaw(rng.Int63n(200*one64) - 100*one64)
		b := Fix64FromRaw(rng.Int63n(200*one64) - 100*one64)
		got := a.Mul(b).Float()
		want := a.Float() * b.Float()
		if math.Abs(got-want) > tol {
			t.Fatalf("%v * %v = %v, want %v", a.Float(), b.Float(), got, want)
		}
	}
}

func TestFix64MulExact(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{1, 1, 1},
		{-1, 1, -1},
		{0.5, 0.5, 0.25},
		{-3.25, -4, 13},
		{65536, 0.0001220703125, 8},
		{0.9999, 0, 0},
	}
	for _, tt := range tests {
		got := Fix64FromFloat(tt.a).Mul(Fix64FromFloat(tt.b))
		if got.Float() != tt.want {
			t.Errorf("%v * %v = %v, want %v", tt.a, tt.b, got.Float(), tt.want)
		}
	}
}

func TestFix64Div(t *testing.T) {
	tests := []struct {
		a, b float64
	}{
		{1, 3},
		{-10, 4},
		{0.001, 0.25},
		{12345.678, -0.5},
	}
	for _, tt := range tests {
		got := Fix64FromFloat(tt.a).Div(Fix64FromFloat(tt.b)).Float()
		want := tt.a / tt.b
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("%v / %v = %v, want %v", tt.a, tt.b, got, want)
		}
	}

	if got := Fix64FromInt(1 << 30).Div(Fix64FromRaw(1)); got.Raw() != math.MaxInt64 {
		t.Errorf("overflowing division should saturate, got %d", got.Raw())
	}
	if got := Fix64FromInt(-1).Div(Fix64{}); got.Raw() != math.MinInt64 {
		t.Errorf("-1 / 0 should saturate low, got %d", got.Raw())
	}
}

func TestFix64Sqrt(t *testing.T) {
	if got := Fix64FromInt(4).Sqrt(); got != Fix64FromInt(2) {
		t.Fatalf("sqrt(4) = %v", got.Float())
	}
	if got := Fix64FromInt(1).Sqrt(); got != Fix64FromInt(1) {
		t.Fatalf("sqrt(1) = %v", got.Float())
	}
	if got := Fix64FromInt(-4).Sqrt(); !got.IsZero() {
		t.Fatalf("sqrt(-4) = %v", got.Float())
	}
	for _, v := range []float64{2, 0.5, 1e-6, 3.0001, 1234567.89} {
		got := Fix64FromFloat(v).Sqrt().Float()
		if math.Abs(got-math.Sqrt(v)) > 2.0/one64*math.Max(1, math.Sqrt(v)) {
			t.Errorf("sqrt(%v) = %v, want %v", v, got, math.Sqrt(v))
		}
	}
}

func TestWidthConversions(t *testing.T) {
	n := Fix32FromFloat(-12.375)
	if n.Fix64().Fix32() != n {
		t.Fatal("narrow -> wide -> narrow must round-trip")
	}
	if n.Fix64().Float() != n.Float() {
		t.Fatal("widening must preserve value")
	}

	w := Fix64FromFloat(1.0 / 3)
	if math.Abs(w.Fix32().Float()-1.0/3) > 1.0/one32 {
		t.Fatalf("narrowing lost more than one LSB: %v", w.Fix32().Float())
	}
	if got := Fix64FromInt(100000).Fix32(); got.Raw() != math.MaxInt32 {
		t.Fatalf("narrowing should saturate, got %d", got.Raw())
	}

	sum := Fix64FromInt(1).AddFix32(Fix32FromFloat(0.5))
	if sum.Float() != 1.5 {
		t.Fatalf("AddFix32 = %v", sum.Float())
	}
	prod := Fix64FromInt(3).MulFix32(Fix32FromFloat(-0.25))
	if prod.Float() != -0.75 {
		t.Fatalf("MulFix32 = %v", prod.Float())
	}
}
