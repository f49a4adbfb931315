package filter

import "math"

// correct replaces a low-quality fix with a dead-reckoned estimate. It
// linearly extrapolates from the two newest buffered fixes (the incoming fix
// is already buffered at this point, so it anchors the extrapolation), then
// blends the result towards where the last accepted state expects the device
// to be. The bool reports whether the fix was replaced.
func (f *Filter) correct(fix Fix) (Fix, bool) {
	last, ok := f.history.Last()
	second, ok2 := f.history.SecondToLast()
	if !ok || !ok2 {
		return fix, false
	}

	predicted := fix
	predicted.Lat = last.Lat + (last.Lat - second.Lat)
	predicted.Lon = last.Lon + (last.Lon - second.Lon)

	if f.last == nil {
		return predicted, true
	}

	dt := fix.Time.Sub(f.lastTime).Seconds()
	heading := 0.0
	if f.last.Heading != nil {
		heading = *f.last.Heading
	}
	// default mode feeds the heading to cos/sin in degrees; RadianHeadings
	// switches to proper radians
	if f.cfg.RadianHeadings {
		heading = heading * math.Pi / 180
	}
	expectedLat := f.last.Lat + f.lastSpeed*math.Cos(heading)*dt
	expectedLon := f.last.Lon + f.lastSpeed*math.Sin(heading)*dt

	blended := predicted
	blended.Lat = predicted.Lat*(1-f.cfg.Smoothing) + expectedLat*f.cfg.Smoothing
	blended.Lon = predicted.Lon*(1-f.cfg.Smoothing) + expectedLon*f.cfg.Smoothing
	return blended, true
}
