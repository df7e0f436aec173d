package quaternion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/relabs-tech/flight_computer/internal/fixed"
	"gonum.org/v1/gonum/num/quat"
)

func vec(x, y, z float64) Vec3 {
	return Vec3{fixed.Fix64FromFloat(x), fixed.Fix64FromFloat(y), fixed.Fix64FromFloat(z)}
}

func unitVec(x, y, z float64) Vec3 {
	n := math.Sqrt(x*x + y*y + z*z)
	return vec(x/n, y/n, z/n)
}

func toNumber(q Quaternion) quat.Number {
	return quat.Number{Real: q.W.Float(), Imag: q.X.Float(), Jmag: q.Y.Float(), Kmag: q.Z.Float()}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{
		W: fixed.Fix64FromFloat(n.Real),
		X: fixed.Fix64FromFloat(n.Imag),
		Y: fixed.Fix64FromFloat(n.Jmag),
		Z: fixed.Fix64FromFloat(n.Kmag),
	}
}

func randomNumber(rng *rand.Rand) quat.Number {
	return quat.Number{
		Real: rng.Float64()*2 - 1,
		Imag: rng.Float64()*2 - 1,
		Jmag: rng.Float64()*2 - 1,
		Kmag: rng.Float64()*2 - 1,
	}
}

func assertVecNear(t *testing.T, got, want Vec3, tol float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i].Float()-want[i].Float()) > tol {
			t.Fatalf("component %d: got %v, want %v", i, got[i].Float(), want[i].Float())
		}
	}
}

func TestMultiplyMatchesFloatReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a, b := randomNumber(rng), randomNumber(rng)
		got := toNumber(Multiply(fromNumber(a), fromNumber(b)))
		want := quat.Mul(a, b)
		if d := quat.Abs(quat.Sub(got, want)); d > 1e-8 {
			t.Fatalf("Multiply(%v, %v) = %v, want %v", a, b, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		q := fromNumber(randomNumber(rng)).Normalize()
		if n := q.Norm().Float(); math.Abs(n-1) > 1e-8 {
			t.Fatalf("norm after Normalize = %v", n)
		}
		again := q.Normalize()
		if d := quat.Abs(quat.Sub(toNumber(again), toNumber(q))); d > 1e-8 {
			t.Fatalf("Normalize is not idempotent: moved by %v", d)
		}
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	if got := (Quaternion{}).Normalize(); got != Identity() {
		t.Fatalf("zero quaternion should normalize to identity, got %+v", got)
	}
	tiny := Quaternion{W: fixed.Fix64FromRaw(3), Z: fixed.Fix64FromRaw(-2)}
	if got := tiny.Normalize(); got != Identity() {
		t.Fatalf("near-zero quaternion should normalize to identity, got %+v", got)
	}
}

func TestRotate(t *testing.T) {
	q := FromAxisAngle(UnitZ(), fixed.Fix64FromFloat(math.Pi/2))
	got := q.Rotate(unitX)
	assertVecNear(t, got, unitY, 3e-4)

	if got := Identity().Rotate(vec(0.1, -2, 3)); got != vec(0.1, -2, 3) {
		t.Fatalf("identity rotation changed the vector: %v", got)
	}
}

func TestFromUnitVectorsSameVector(t *testing.T) {
	for _, v := range []Vec3{unitX, unitZ, unitVec(0.6, 0, 0.8), unitVec(-1, 2, -3)} {
		if got := FromUnitVectors(v, v); got != Identity() {
			t.Errorf("FromUnitVectors(v, v) = %+v, want identity", got)
		}
	}
}

func TestFromUnitVectorsOpposite(t *testing.T) {
	for _, v := range []Vec3{unitX, unitX.Neg(), unitY, unitZ, unitVec(0.6, 0, 0.8), unitVec(1, 1e-4, 0)} {
		q := FromUnitVectors(v, v.Neg())
		if n := q.Norm().Float(); math.Abs(n-1) > 1e-6 {
			t.Fatalf("norm = %v for v=%v", n, v)
		}
		axis, angle := q.ToAxisAngle()
		if math.Abs(angle.Float()-math.Pi) > 1e-4 {
			t.Errorf("angle = %v, want π", angle.Float())
		}
		if d := axis.Dot(v).Float(); math.Abs(d) > 1e-6 {
			t.Errorf("axis %v is not orthogonal to %v (dot %v)", axis, v, d)
		}
		assertVecNear(t, q.Rotate(v), v.Neg(), 1e-6)

		if again := FromUnitVectors(v, v.Neg()); again != q {
			t.Errorf("opposite-vector axis choice is not deterministic")
		}
	}
}

func TestFromUnitVectorsRotatesAOntoB(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
	}{
		{"x to y", unitX, unitY},
		{"down to tilted", unitZ, unitVec(0, 0.2, 0.98)},
		{"small tilt", unitZ, unitVec(0.01, 0, 1)},
		{"obtuse", unitVec(1, 1, 0), unitVec(-1, 0.2, -0.3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromUnitVectors(tt.a, tt.b)
			assertVecNear(t, q.Rotate(tt.a), tt.b, 1e-6)
		})
	}
}

func TestAxisAngleRoundTrip(t *testing.T) {
	axis := unitVec(0, 0.6, 0.8)
	tests := []struct {
		angle float64
		tol   float64
	}{
		{0.0001, 1e-8},
		{0.01, 1e-8},
		{0.3, 1e-3},
		{1.2, 1e-3},
		{3.0, 1e-3},
	}
	for _, tt := range tests {
		q := FromAxisAngle(axis, fixed.Fix64FromFloat(tt.angle))
		gotAxis, gotAngle := q.ToAxisAngle()
		if math.Abs(gotAngle.Float()-tt.angle) > tt.tol {
			t.Errorf("angle %v came back as %v", tt.angle, gotAngle.Float())
		}
		assertVecNear(t, gotAxis, axis, 1e-3)
	}
}

func TestToAxisAngleIdentity(t *testing.T) {
	axis, angle := Identity().ToAxisAngle()
	if !angle.IsZero() {
		t.Fatalf("identity angle = %v", angle.Float())
	}
	if n := axis.Norm().Float(); n != 1 {
		t.Fatalf("identity axis must be unit length, got %v", n)
	}
}

func TestToAxisAngleNegativeW(t *testing.T) {
	q := FromAxisAngle(unitX, fixed.Fix64FromFloat(0.5))
	neg := Quaternion{W: q.W.Neg(), X: q.X.Neg(), Y: q.Y.Neg(), Z: q.Z.Neg()}
	axis, angle := neg.ToAxisAngle()
	if math.Abs(angle.Float()-0.5) > 5e-4 {
		t.Fatalf("angle = %v, want 0.5", angle.Float())
	}
	assertVecNear(t, axis, unitX, 1e-6)
}
