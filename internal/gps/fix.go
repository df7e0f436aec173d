package gps

// Fix types reported in Fix.Type, following the GSA fix type field.
const (
	FixNone = 1
	Fix2D   = 2
	Fix3D   = 3
)

// knotsToMS converts speed over ground to m/s.
const knotsToMS = 0.514444

// Fix is one navigation epoch assembled from the sentences of a GPS burst,
// suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`     // e.g. "12:34:56.0000"
	Date       string  `json:"date"`     // e.g. "06/12/25"
	Latitude   float64 `json:"lat"`      // decimal degrees
	Longitude  float64 `json:"lon"`      // decimal degrees
	Altitude   float64 `json:"alt"`      // m above mean sea level
	Speed      float64 `json:"speed"`    // m/s over ground
	CourseDeg  float64 `json:"course"`   // course over ground, degrees from north
	HDOP       float64 `json:"hdop"`     // horizontal dilution of precision
	Satellites int64   `json:"sats"`     // satellites used
	Type       int     `json:"fix_type"` // FixNone, Fix2D or Fix3D
	Valid      bool    `json:"valid"`    // RMC status "A"

	// UpVelocity is derived from successive GGA altitudes, m/s up positive.
	UpVelocity float64 `json:"up_vel"`
}

// Has3D reports whether the fix is valid and three-dimensional.
func (f *Fix) Has3D() bool { return f.Valid && f.Type == Fix3D }
