// Package filter implements the position-quality pipeline: every raw fix is
// recorded, scored, dead-reckoned when the score collapses, validated and
// gated before it may extend the session track.
package filter

import "time"

// Filter holds the per-session pipeline state. It is not safe for concurrent
// use; callers serialize fixes per session.
type Filter struct {
	cfg     Config
	history *History
	track   *Track

	last      *Fix // last accepted fix
	lastTime  time.Time
	lastSpeed float64
}

func New(cfg Config) *Filter {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}
	return &Filter{
		cfg:     cfg,
		history: NewHistory(cfg.HistorySize),
		track:   &Track{},
	}
}

// Result is the outcome for one processed fix. On acceptance Fix carries the
// possibly corrected position and DistanceM the updated cumulative track
// distance; on rejection Reason is set and no state changed.
type Result struct {
	Accepted  bool
	Fix       Fix
	Origin    Origin
	Quality   float64
	DistanceM float64
	Reason    Reason
}

// Process runs one fix through the pipeline: record, score, correct if the
// score is under the threshold, validate, gate, accumulate.
func (f *Filter) Process(fix Fix) Result {
	f.history.Push(fix)

	quality := f.scoreFix(fix)

	candidate := fix
	origin := OriginGPS
	if quality < f.cfg.CorrectBelow {
		if corrected, ok := f.correct(fix); ok {
			candidate = corrected
			origin = OriginDeadReckoning
		}
	}

	if !validCoordinate(candidate.Lat, candidate.Lon) {
		return Result{Reason: ReasonInvalidCoordinate, Quality: quality, DistanceM: f.track.DistanceM()}
	}
	if reason := f.admit(candidate); reason != ReasonNone {
		return Result{Reason: reason, Quality: quality, DistanceM: f.track.DistanceM()}
	}

	distance := f.track.Append(candidate)
	f.last = &candidate
	f.lastTime = candidate.Time
	f.lastSpeed = candidate.speedOr0()

	return Result{
		Accepted:  true,
		Fix:       candidate,
		Origin:    origin,
		Quality:   quality,
		DistanceM: distance,
	}
}

// DistanceM returns the cumulative distance of the accepted track.
func (f *Filter) DistanceM() float64 {
	return f.track.DistanceM()
}

// TrackLen returns the number of accepted fixes.
func (f *Filter) TrackLen() int {
	return f.track.Len()
}

// TrackPoints returns a copy of the accepted fixes in order.
func (f *Filter) TrackPoints() []Fix {
	return f.track.Points()
}

// LastAccepted returns the most recent accepted fix, if any.
func (f *Filter) LastAccepted() (Fix, bool) {
	if f.last == nil {
		return Fix{}, false
	}
	return *f.last, true
}
