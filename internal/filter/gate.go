package filter

import (
	"math"

	"backend-tracksmith/internal/shared/geo"
)

// admit applies the hard plausibility limits to a candidate fix. A non-zero
// Reason rejects the fix; rejections change no state.
func (f *Filter) admit(fix Fix) Reason {
	// the accuracy ceiling only applies when the device reported one;
	// accuracy-less fixes were already floored by the scorer
	if fix.Accuracy != nil && *fix.Accuracy > f.cfg.MinAccuracyM {
		return ReasonAccuracy
	}
	if fix.speedOr0() > f.cfg.MaxSpeedMS {
		return ReasonSpeed
	}
	if f.last == nil {
		return ReasonNone
	}
	if geo.MetersBetween(f.last.Lat, f.last.Lon, fix.Lat, fix.Lon) < f.cfg.MinDistanceM {
		return ReasonMinDistance
	}
	dt := fix.Time.Sub(f.lastTime).Seconds()
	if math.Abs(fix.speedOr0()-f.lastSpeed) > f.cfg.MaxAcceleration*dt {
		return ReasonAcceleration
	}
	return ReasonNone
}
