package filter

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestProcessAcceptsCleanWalk(t *testing.T) {
	f := New(DefaultConfig())
	prev := 0.0
	for i := 0; i < 10; i++ {
		res := f.Process(Fix{
			Lat:      40.0 + float64(i)*0.0001,
			Lon:      -75.0,
			Accuracy: Float64(5),
			Time:     t0.Add(time.Duration(i) * 5 * time.Second),
		})
		if !res.Accepted {
			t.Fatalf("fix %d rejected: %v", i, res.Reason)
		}
		if res.Origin != OriginGPS {
			t.Fatalf("fix %d unexpected origin %v", i, res.Origin)
		}
		if res.DistanceM < prev {
			t.Fatalf("distance decreased: %v -> %v", prev, res.DistanceM)
		}
		prev = res.DistanceM
	}
	if f.TrackLen() != 10 {
		t.Fatalf("expected 10 accepted points, got %d", f.TrackLen())
	}
	if f.history.Len() != 5 {
		t.Fatalf("expected history capped at 5, got %d", f.history.Len())
	}
}

func TestProcessStepDistance(t *testing.T) {
	f := New(DefaultConfig())
	f.Process(Fix{Lat: 40.0000, Lon: -75.0000, Accuracy: Float64(5), Time: t0})
	res := f.Process(Fix{Lat: 40.0001, Lon: -75.0000, Accuracy: Float64(5), Time: t0.Add(5 * time.Second)})

	if !res.Accepted {
		t.Fatalf("second fix rejected: %v", res.Reason)
	}
	if res.DistanceM < 10.5 || res.DistanceM > 11.7 {
		t.Fatalf("expected ~11.1m, got %v", res.DistanceM)
	}
}

func TestProcessInvalidCoordinatesLeaveStateUntouched(t *testing.T) {
	f := New(DefaultConfig())
	f.Process(Fix{Lat: 40.0, Lon: -75.0, Accuracy: Float64(5), Time: t0})
	before := f.DistanceM()
	last, _ := f.LastAccepted()

	bad := []Fix{
		{Lat: 91, Lon: 0, Accuracy: Float64(5)},
		{Lat: -90.5, Lon: 0, Accuracy: Float64(5)},
		{Lat: 0, Lon: 181, Accuracy: Float64(5)},
		{Lat: 0, Lon: -180.5, Accuracy: Float64(5)},
		{Lat: math.NaN(), Lon: 0, Accuracy: Float64(5)},
		{Lat: 0, Lon: math.Inf(1), Accuracy: Float64(5)},
	}
	for _, fix := range bad {
		fix.Time = t0.Add(time.Minute)
		res := f.Process(fix)
		if res.Accepted {
			t.Fatalf("invalid fix %v accepted", fix)
		}
		if res.Reason != ReasonInvalidCoordinate {
			t.Fatalf("expected invalid_coordinate, got %v", res.Reason)
		}
	}

	if f.DistanceM() != before {
		t.Fatalf("distance changed by invalid fixes")
	}
	after, ok := f.LastAccepted()
	if !ok || !after.Time.Equal(last.Time) {
		t.Fatalf("last accepted fix changed")
	}
}

func TestProcessRejectionIsIdempotent(t *testing.T) {
	f := New(DefaultConfig())
	f.Process(Fix{Lat: 40.0, Lon: -75.0, Accuracy: Float64(5), Time: t0})
	before := f.DistanceM()

	dup := Fix{Lat: 40.0, Lon: -75.0, Accuracy: Float64(5), Time: t0.Add(time.Second)}
	for i := 0; i < 3; i++ {
		res := f.Process(dup)
		if res.Accepted || res.Reason != ReasonMinDistance {
			t.Fatalf("attempt %d: expected min_distance rejection, got %+v", i, res)
		}
		if res.DistanceM != before {
			t.Fatalf("attempt %d: distance moved to %v", i, res.DistanceM)
		}
	}
	if f.TrackLen() != 1 {
		t.Fatalf("expected single accepted point, got %d", f.TrackLen())
	}
}

func TestProcessPoorAccuracyScoresLowAndRejects(t *testing.T) {
	f := New(DefaultConfig())
	f.Process(Fix{Lat: 40.0, Lon: -75.0, Accuracy: Float64(5), Time: t0})

	res := f.Process(Fix{Lat: 40.001, Lon: -75.0, Accuracy: Float64(50), Time: t0.Add(10 * time.Second)})
	if res.Accepted {
		t.Fatalf("50m accuracy fix must not be accepted")
	}
	if math.Abs(res.Quality-0.2) > 1e-12 {
		t.Fatalf("expected quality 0.2, got %v", res.Quality)
	}
	// the corrected candidate still carries the 50m accuracy and fails the gate
	if res.Reason != ReasonAccuracy {
		t.Fatalf("expected accuracy rejection, got %v", res.Reason)
	}
}

func TestProcessLowScoreWithShortHistoryPassesThrough(t *testing.T) {
	f := New(DefaultConfig())
	// very first fix, no accuracy report: score 0 but nothing to extrapolate from
	res := f.Process(Fix{Lat: 40.0, Lon: -75.0, Time: t0})
	if !res.Accepted {
		t.Fatalf("expected acceptance, got %v", res.Reason)
	}
	if res.Origin != OriginGPS {
		t.Fatalf("uncorrected fix must report gps origin, got %v", res.Origin)
	}
	if res.Quality != 0 {
		t.Fatalf("expected quality 0, got %v", res.Quality)
	}
}

func TestProcessDeadReckonsAccuracylessFeed(t *testing.T) {
	f := New(DefaultConfig())
	f.Process(Fix{Lat: 40.0000, Lon: -75.0, Time: t0})

	res := f.Process(Fix{Lat: 40.0001, Lon: -75.0, Time: t0.Add(10 * time.Second)})
	if !res.Accepted {
		t.Fatalf("expected dead-reckoned acceptance, got %v", res.Reason)
	}
	if res.Origin != OriginDeadReckoning {
		t.Fatalf("expected dead_reckoning origin, got %v", res.Origin)
	}
	// predicted 40.0002 blended 70/30 with the expected hold at 40.0
	want := 40.0002*0.7 + 40.0*0.3
	if math.Abs(res.Fix.Lat-want) > 1e-9 {
		t.Fatalf("expected blended lat %v, got %v", want, res.Fix.Lat)
	}
	if res.DistanceM <= 0 {
		t.Fatalf("expected distance contribution, got %v", res.DistanceM)
	}
}

func TestProcessRecordsRejectedFixesInHistory(t *testing.T) {
	f := New(DefaultConfig())
	f.Process(Fix{Lat: 91, Lon: 0, Time: t0})
	f.Process(Fix{Lat: 92, Lon: 0, Time: t0.Add(time.Second)})
	if f.history.Len() != 2 {
		t.Fatalf("raw fixes must be buffered before validation, got %d", f.history.Len())
	}
	if f.TrackLen() != 0 {
		t.Fatalf("no fix should have been accepted")
	}
}

func TestNewClampsHistorySize(t *testing.T) {
	f := New(Config{MinAccuracyM: 10, MaxSpeedMS: 20, MinDistanceM: 0.5, MaxAcceleration: 10, Smoothing: 0.3, CorrectBelow: 0.3})
	for i := 0; i < 10; i++ {
		f.history.Push(Fix{})
	}
	if f.history.Len() != 5 {
		t.Fatalf("expected default history size 5, got %d", f.history.Len())
	}
}
