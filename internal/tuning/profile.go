// Package tuning loads gain profiles from YAML and applies runtime tuning
// messages received over MQTT.
package tuning

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/flight_computer/internal/controller"
	"github.com/relabs-tech/flight_computer/internal/fixed"
)

// AxisProfile holds one rate loop. P, I and D are in firmware units: P/2048,
// I/8 and D/1024 give the gain.
type AxisProfile struct {
	P        int32   `yaml:"p" json:"p"`
	I        int32   `yaml:"i" json:"i"`
	D        int32   `yaml:"d" json:"d"`
	FF       float64 `yaml:"ff" json:"ff"`
	S        float64 `yaml:"s" json:"s"`
	IFalloff float64 `yaml:"i_falloff" json:"i_falloff"`
}

type LoopProfile struct {
	P  float64 `yaml:"p" json:"p"`
	I  float64 `yaml:"i" json:"i"`
	D  float64 `yaml:"d" json:"d"`
	FF float64 `yaml:"ff" json:"ff"`
}

// Axes is keyed by axis name so profile files read naturally.
type Axes struct {
	Roll  AxisProfile `yaml:"roll" json:"roll"`
	Pitch AxisProfile `yaml:"pitch" json:"pitch"`
	Yaw   AxisProfile `yaml:"yaw" json:"yaw"`
}

// RateCurves holds the rate-curve coefficients per axis, lowest order first.
type RateCurves struct {
	Roll  [controller.RateOrders]float64 `yaml:"roll" json:"roll"`
	Pitch [controller.RateOrders]float64 `yaml:"pitch" json:"pitch"`
	Yaw   [controller.RateOrders]float64 `yaml:"yaw" json:"yaw"`
}

// Profile is the serialized form of controller.Gains.
type Profile struct {
	Axes       Axes       `yaml:"axes" json:"axes"`
	RateCurves RateCurves `yaml:"rate_curves" json:"rate_curves"`

	VerticalVelocity   LoopProfile `yaml:"vertical_velocity" json:"vertical_velocity"`
	Altitude           LoopProfile `yaml:"altitude" json:"altitude"`
	HorizontalVelocity LoopProfile `yaml:"horizontal_velocity" json:"horizontal_velocity"`
	PositionP          float64     `yaml:"position_p" json:"position_p"`

	AngleModeP    float64 `yaml:"angle_mode_p" json:"angle_mode_p"`
	VelocityModeP float64 `yaml:"velocity_mode_p" json:"velocity_mode_p"`
	MaxAngle      float64 `yaml:"max_angle" json:"max_angle"`
	DCutoffHz     float64 `yaml:"d_cutoff_hz" json:"d_cutoff_hz"`
}

// DefaultProfile mirrors controller.DefaultGains.
func DefaultProfile() Profile {
	axis := AxisProfile{P: 40, I: 20, D: 100, IFalloff: 0.998}
	curve := [controller.RateOrders]float64{100, 0, 200, 0, 800}
	return Profile{
		Axes:               Axes{Roll: axis, Pitch: axis, Yaw: axis},
		RateCurves:         RateCurves{Roll: curve, Pitch: curve, Yaw: curve},
		VerticalVelocity:   LoopProfile{P: 800, I: 0.02},
		Altitude:           LoopProfile{P: 0.5, I: 0.0001},
		HorizontalVelocity: LoopProfile{P: 12, I: 10.0 / 3200, D: 7},
		PositionP:          0.3,
		AngleModeP:         10,
		VelocityModeP:      3,
		MaxAngle:           35,
		DCutoffHz:          150,
	}
}

// LoadProfile reads a YAML profile. Keys missing from the file keep their
// default values.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, errors.Wrap(err, "failed to read tuning profile")
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, errors.Wrapf(err, "failed to parse tuning profile %s", path)
	}
	if err := p.Validate(); err != nil {
		return p, errors.Wrapf(err, "tuning profile %s", path)
	}
	return p, nil
}

// Validate rejects values the controller cannot run with.
func (p *Profile) Validate() error {
	for _, a := range []AxisProfile{p.Axes.Roll, p.Axes.Pitch, p.Axes.Yaw} {
		if a.P < 0 || a.I < 0 || a.D < 0 {
			return errors.New("axis gains must not be negative")
		}
		if a.IFalloff < 0 || a.IFalloff > 1 {
			return errors.Errorf("i_falloff %v outside 0..1", a.IFalloff)
		}
	}
	if p.MaxAngle <= 0 || p.MaxAngle > 80 {
		return errors.Errorf("max_angle %v outside 0..80", p.MaxAngle)
	}
	if p.DCutoffHz <= 0 {
		return errors.New("d_cutoff_hz must be positive")
	}
	if p.VerticalVelocity.I < 0 {
		return errors.New("vertical_velocity.i must not be negative")
	}
	return nil
}

func (a AxisProfile) gains() controller.AxisGains {
	return controller.AxisGains{
		P:        fixed.Fix32FromRaw(a.P << controller.PShift),
		I:        fixed.Fix32FromRaw(a.I << controller.IShift),
		D:        fixed.Fix32FromRaw(a.D << controller.DShift),
		FF:       fixed.Fix32FromFloat(a.FF),
		S:        fixed.Fix32FromFloat(a.S),
		IFalloff: fixed.Fix32FromFloat(a.IFalloff),
	}
}

func (l LoopProfile) gains() controller.LoopGains {
	return controller.LoopGains{
		P:  fixed.Fix64FromFloat(l.P),
		I:  fixed.Fix64FromFloat(l.I),
		D:  fixed.Fix64FromFloat(l.D),
		FF: fixed.Fix64FromFloat(l.FF),
	}
}

// Gains converts the profile into a new controller gain set.
func (p *Profile) Gains() *controller.Gains {
	g := &controller.Gains{
		VVel:          p.VerticalVelocity.gains(),
		Alt:           p.Altitude.gains(),
		HVel:          p.HorizontalVelocity.gains(),
		PosP:          fixed.Fix64FromFloat(p.PositionP),
		AngleModeP:    fixed.Fix32FromFloat(p.AngleModeP),
		VelocityModeP: fixed.Fix32FromFloat(p.VelocityModeP),
		MaxAngle:      fixed.Fix32FromFloat(p.MaxAngle),
		DCutoffHz:     p.DCutoffHz,
	}
	g.Axes[controller.AxisRoll] = p.Axes.Roll.gains()
	g.Axes[controller.AxisPitch] = p.Axes.Pitch.gains()
	g.Axes[controller.AxisYaw] = p.Axes.Yaw.gains()

	curves := [...]*[controller.RateOrders]float64{
		controller.AxisRoll:  &p.RateCurves.Roll,
		controller.AxisPitch: &p.RateCurves.Pitch,
		controller.AxisYaw:   &p.RateCurves.Yaw,
	}
	for axis, c := range curves {
		for order, f := range c {
			g.RateFactors[order][axis] = fixed.Fix32FromFloat(f)
		}
	}
	return g
}
