package tuning

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/fixed"
	"github.com/relabs-tech/flight_computer/internal/motor"
)

type sink struct {
	gains []*controller.Gains
}

func (s *sink) SetGains(g *controller.Gains) { s.gains = append(s.gains, g) }

func newTuner(t *testing.T) (*Tuner, *sink) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := &sink{}
	return NewTuner(DefaultProfile(), s, logrus.NewEntry(logger)), s
}

func TestDefaultProfileMatchesDefaultGains(t *testing.T) {
	p := DefaultProfile()
	if got, want := p.Gains(), controller.DefaultGains(); !reflect.DeepEqual(got, want) {
		t.Fatalf("profile gains\n%+v\nwant\n%+v", got, want)
	}
}

func TestLoadProfile(t *testing.T) {
	body := `
axes:
  yaw:
    p: 60
    i: 10
    d: 0
    i_falloff: 0.99
rate_curves:
  yaw: [200, 0, 0, 0, 0]
max_angle: 45
`
	path := filepath.Join(t.TempDir(), "tune.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	g := p.Gains()
	if g.Axes[controller.AxisYaw].P != fixed.Fix32FromRaw(60<<controller.PShift) {
		t.Fatalf("yaw P = %v", g.Axes[controller.AxisYaw].P.Float())
	}
	if g.Axes[controller.AxisYaw].D != (fixed.Fix32{}) {
		t.Fatalf("yaw D = %v", g.Axes[controller.AxisYaw].D.Float())
	}
	if g.RateFactors[0][controller.AxisYaw].Float() != 200 || g.RateFactors[4][controller.AxisYaw].Float() != 0 {
		t.Fatalf("yaw curve = %v", g.RateFactors)
	}
	if g.MaxAngle.Float() != 45 {
		t.Fatalf("max angle = %v", g.MaxAngle.Float())
	}
	// Untouched keys keep their defaults.
	if p.Axes.Roll != DefaultProfile().Axes.Roll || p.DCutoffHz != 150 {
		t.Fatalf("defaults lost: %+v", p)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, body string
	}{
		{"syntax", "axes: [1, 2"},
		{"negative gain", "axes:\n  roll:\n    p: -1\n"},
		{"falloff", "axes:\n  pitch:\n    i_falloff: 1.5\n"},
		{"max angle", "max_angle: 90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadProfile(path); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
	if _, err := LoadProfile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestHandlePartialGains(t *testing.T) {
	tu, s := newTuner(t)
	if len(s.gains) != 1 {
		t.Fatalf("NewTuner published %d gain sets", len(s.gains))
	}

	if err := tu.Handle([]byte(`{"gains":{"axes":{"roll":{"p":55}},"angle_mode_p":6}}`)); err != nil {
		t.Fatal(err)
	}
	if len(s.gains) != 2 {
		t.Fatalf("published %d gain sets", len(s.gains))
	}
	p := tu.Profile()
	if p.Axes.Roll.P != 55 || p.Axes.Roll.I != 20 || p.AngleModeP != 6 {
		t.Fatalf("profile after update: %+v", p)
	}
	if got := s.gains[1].Axes[controller.AxisRoll].P; got != fixed.Fix32FromRaw(55<<controller.PShift) {
		t.Fatalf("published roll P = %v", got.Float())
	}
}

func TestHandleRejects(t *testing.T) {
	tests := []struct {
		name, payload string
	}{
		{"not json", `gains`},
		{"bad gains", `{"gains":{"axes":"x"}}`},
		{"invalid gains", `{"gains":{"max_angle":-3}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tu, s := newTuner(t)
			if err := tu.Handle([]byte(tt.payload)); err == nil {
				t.Fatal("expected an error")
			}
			if len(s.gains) != 1 || tu.Profile() != DefaultProfile() {
				t.Fatal("rejected message changed the gains")
			}
		})
	}
}

func TestOverrideAndBeacon(t *testing.T) {
	tu, _ := newTuner(t)
	if on, _ := tu.Override(); on || tu.Beacon() {
		t.Fatal("override or beacon on at start")
	}

	if err := tu.Handle([]byte(`{"override":{"enabled":true,"motors":[0,150,3000,2000]},"beacon":true}`)); err != nil {
		t.Fatal(err)
	}
	on, v := tu.Override()
	if !on || v != [motor.Count]uint16{0, 150, motor.MaxThrottle, 2000} {
		t.Fatalf("override = %v %v", on, v)
	}
	if !tu.Beacon() {
		t.Fatal("beacon not set")
	}

	if err := tu.Handle([]byte(`{"override":{"enabled":false}}`)); err != nil {
		t.Fatal(err)
	}
	if on, v := tu.Override(); on || v != ([motor.Count]uint16{}) {
		t.Fatalf("override after disable = %v %v", on, v)
	}
	if !tu.Beacon() {
		t.Fatal("beacon cleared by a message that did not mention it")
	}
}
