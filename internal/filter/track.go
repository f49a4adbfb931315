package filter

import "backend-tracksmith/internal/shared/geo"

// Track accumulates accepted fixes in order together with the cumulative
// great-circle distance along them.
type Track struct {
	points    []Fix
	distanceM float64
}

// Append adds an accepted fix and returns the updated cumulative distance.
// The first point contributes no distance.
func (t *Track) Append(f Fix) float64 {
	if len(t.points) > 0 {
		last := t.points[len(t.points)-1]
		t.distanceM += geo.MetersBetween(last.Lat, last.Lon, f.Lat, f.Lon)
	}
	t.points = append(t.points, f)
	return t.distanceM
}

func (t *Track) DistanceM() float64 {
	return t.distanceM
}

func (t *Track) Len() int {
	return len(t.points)
}

// Points returns a copy of the accumulated fixes.
func (t *Track) Points() []Fix {
	out := make([]Fix, len(t.points))
	copy(out, t.points)
	return out
}
