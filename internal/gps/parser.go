package gps

import (
	"strconv"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/pkg/errors"
)

// maxClimbGap is the longest gap between GGA altitudes that still yields an
// up-velocity.
const maxClimbGap = 2 * time.Second

// Parser accumulates NMEA sentences into a Fix. Each RMC closes an epoch.
type Parser struct {
	current Fix

	lastAlt   float64
	lastAltAt time.Time
}

// Feed parses one line received at time at. It returns true when the line
// completed an epoch and Fix holds a new value. Lines that are not NMEA
// sentences are ignored; malformed sentences return an error.
func (p *Parser) Feed(line string, at time.Time) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return false, errors.Wrap(err, "nmea parse")
	}

	switch m := sentence.(type) {
	case nmea.RMC:
		p.current.Time = m.Time.String()
		p.current.Date = m.Date.String()
		p.current.Valid = m.Validity == nmea.ValidRMC
		if p.current.Valid {
			p.current.Latitude = m.Latitude
			p.current.Longitude = m.Longitude
			p.current.Speed = m.Speed * knotsToMS
			p.current.CourseDeg = m.Course
		}
		return true, nil

	case nmea.GGA:
		p.current.Satellites = m.NumSatellites
		p.current.HDOP = m.HDOP
		if m.FixQuality == nmea.Invalid {
			p.lastAltAt = time.Time{}
			p.current.UpVelocity = 0
			return false, nil
		}
		p.current.Latitude = m.Latitude
		p.current.Longitude = m.Longitude
		p.current.Altitude = m.Altitude
		p.climb(m.Altitude, at)

	case nmea.GSA:
		p.current.HDOP = m.HDOP
		if t, err := strconv.Atoi(m.FixType); err == nil {
			p.current.Type = t
		}

	case nmea.VTG:
		p.current.Speed = m.GroundSpeedKnots * knotsToMS
		p.current.CourseDeg = m.TrueTrack
	}
	return false, nil
}

func (p *Parser) climb(alt float64, at time.Time) {
	if !p.lastAltAt.IsZero() {
		if dt := at.Sub(p.lastAltAt); dt > 0 && dt <= maxClimbGap {
			p.current.UpVelocity = (alt - p.lastAlt) / dt.Seconds()
		} else {
			p.current.UpVelocity = 0
		}
	}
	p.lastAlt = alt
	p.lastAltAt = at
}

// Fix returns the most recent epoch.
func (p *Parser) Fix() Fix { return p.current }
