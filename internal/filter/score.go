package filter

import "math"

const maxHeadingDelta = 45.0

// scoreFix rates a fix between 0 and 1 against the last accepted state.
// The result decides whether dead reckoning runs and is reported on accepted
// outcomes as the live confidence read-out.
func (f *Filter) scoreFix(fix Fix) float64 {
	score := 1.0

	switch {
	case fix.Accuracy == nil:
		// a fix without an accuracy report counts as arbitrarily bad
		score = 0
	case *fix.Accuracy > f.cfg.MinAccuracyM:
		score *= f.cfg.MinAccuracyM / *fix.Accuracy
	}

	// flat m/s comparison, unlike the gate's dt-scaled variant
	if math.Abs(fix.speedOr0()-f.lastSpeed) > f.cfg.MaxAcceleration {
		score *= 0.5
	}

	if f.last != nil && f.last.Heading != nil &&
		math.Abs(fix.headingOr0()-*f.last.Heading) > maxHeadingDelta {
		score *= 0.7
	}

	return score
}
