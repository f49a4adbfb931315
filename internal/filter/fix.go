package filter

import (
	"math"
	"time"
)

// Fix is one raw position report from a device. Accuracy, Speed and Heading
// are nil when the device did not report them.
type Fix struct {
	Lat      float64
	Lon      float64
	Accuracy *float64 // meters
	Speed    *float64 // m/s
	Heading  *float64 // degrees
	Time     time.Time
}

// Float64 returns a pointer to v, for building optional fix fields.
func Float64(v float64) *float64 {
	return &v
}

func (f Fix) speedOr0() float64 {
	if f.Speed == nil {
		return 0
	}
	return *f.Speed
}

func (f Fix) headingOr0() float64 {
	if f.Heading == nil {
		return 0
	}
	return *f.Heading
}

// validCoordinate reports whether the pair is a usable WGS84 position.
func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Origin records how an accepted fix was produced.
type Origin int

const (
	OriginGPS Origin = iota
	OriginDeadReckoning
)

func (o Origin) String() string {
	if o == OriginDeadReckoning {
		return "dead_reckoning"
	}
	return "gps"
}

// Reason classifies a rejection. ReasonNone means the fix was accepted.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInvalidCoordinate
	ReasonAccuracy
	ReasonSpeed
	ReasonMinDistance
	ReasonAcceleration
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidCoordinate:
		return "invalid_coordinate"
	case ReasonAccuracy:
		return "accuracy"
	case ReasonSpeed:
		return "speed"
	case ReasonMinDistance:
		return "min_distance"
	case ReasonAcceleration:
		return "acceleration"
	}
	return ""
}
