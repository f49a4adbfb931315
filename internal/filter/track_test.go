package filter

import "testing"

func TestTrackFirstPointNoDistance(t *testing.T) {
	tr := &Track{}
	d := tr.Append(Fix{Lat: 40.0, Lon: -75.0})
	if d != 0 {
		t.Fatalf("first point should contribute no distance, got %v", d)
	}
	if tr.Len() != 1 {
		t.Fatalf("expected 1 point")
	}
}

func TestTrackAccumulatesHaversine(t *testing.T) {
	tr := &Track{}
	tr.Append(Fix{Lat: 40.0000, Lon: -75.0000})
	d := tr.Append(Fix{Lat: 40.0001, Lon: -75.0000})

	// one ten-thousandth of a degree of latitude is ~11.1 m
	if d < 10.5 || d > 11.7 {
		t.Fatalf("expected ~11.1m cumulative distance, got %v", d)
	}
	if tr.DistanceM() != d {
		t.Fatalf("DistanceM disagrees with Append return")
	}
}

func TestTrackDistanceMonotonic(t *testing.T) {
	tr := &Track{}
	prev := 0.0
	for i := 0; i < 10; i++ {
		d := tr.Append(Fix{Lat: 40.0 + float64(i)*0.0001, Lon: -75.0})
		if d < prev {
			t.Fatalf("distance decreased: %v -> %v", prev, d)
		}
		prev = d
	}
	if tr.Len() != 10 {
		t.Fatalf("expected 10 points, got %d", tr.Len())
	}
}

func TestTrackPointsCopy(t *testing.T) {
	tr := &Track{}
	tr.Append(Fix{Lat: 1})
	pts := tr.Points()
	pts[0].Lat = 99
	if tr.Points()[0].Lat != 1 {
		t.Fatalf("Points must return a copy")
	}
}
