package controller

import "sync/atomic"

// Mode is the flight mode. Modes are ordered: every mode from ModeAltHold up
// holds altitude, every mode from ModeGPSVel up needs a GPS velocity.
type Mode int32

const (
	ModeAcro Mode = iota
	ModeAngle
	ModeAltHold
	ModeGPSVel
	ModeGPSPos

	numModes
)

var modeNames = [numModes]string{"ACRO", "ANGLE", "ALT_HOLD", "GPS_VEL", "GPS_POS"}

func (m Mode) String() string {
	if m < 0 || m >= numModes {
		return "UNKNOWN"
	}
	return modeNames[m]
}

func (m Mode) holdsAltitude() bool { return m >= ModeAltHold }

func (m Mode) usesGPS() bool { return m >= ModeGPSVel }

// SelectMode maps the mode switch (three positions) and the navigation switch
// to a flight mode. The navigation switch only applies on top of ALT_HOLD.
func SelectMode(modeCh, navCh int32) Mode {
	switch {
	case modeCh < 1300:
		return ModeAcro
	case modeCh < 1700:
		return ModeAngle
	case navCh > 1700:
		return ModeGPSPos
	case navCh >= 1300:
		return ModeGPSVel
	default:
		return ModeAltHold
	}
}

// SharedMode carries the selected mode from the mode task to the tick.
type SharedMode struct {
	v atomic.Int32
}

func (s *SharedMode) Store(m Mode) { s.v.Store(int32(m)) }

func (s *SharedMode) Load() Mode { return Mode(s.v.Load()) }
