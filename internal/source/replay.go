package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"backend-tracksmith/internal/filter"
	"backend-tracksmith/internal/shared/geo"
)

// accuracy attributed to replayed points, which carry none of their own
const replayAccuracyM = 5.0

type gpxDoc struct {
	Tracks []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64   `xml:"lat,attr"`
	Lon  float64   `xml:"lon,attr"`
	Time time.Time `xml:"time"`
}

// Replay feeds the fixes of a recorded GPX track, paced by its timestamps.
type Replay struct {
	Path  string
	Speed float64 // pacing multiplier, 1.0 replays in real time
}

func (r *Replay) Name() string { return "replay" }

func (r *Replay) Run(ctx context.Context, emit func(Update)) error {
	points, err := loadGPX(r.Path)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("gpx file %s has no track points", r.Path)
	}
	speed := r.Speed
	if speed <= 0 {
		speed = 1
	}

	for i := range points {
		if i > 0 {
			// points without usable timestamps replay at one fix per second
			wait := time.Second
			if dt := points[i].Time.Sub(points[i-1].Time); dt > 0 {
				wait = time.Duration(float64(dt) / speed)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
		}
		emit(Update{Fix: replayFix(points, i)})
	}
	return nil
}

// replayFix derives speed and heading from the preceding point, since GPX
// tracks store neither.
func replayFix(points []gpxPoint, i int) *filter.Fix {
	pt := points[i]
	fix := &filter.Fix{
		Lat:      pt.Lat,
		Lon:      pt.Lon,
		Accuracy: filter.Float64(replayAccuracyM),
		Time:     pt.Time,
	}
	if fix.Time.IsZero() {
		fix.Time = time.Now()
	}
	if i == 0 {
		return fix
	}
	prev := points[i-1]
	if dt := pt.Time.Sub(prev.Time).Seconds(); dt > 0 {
		fix.Speed = filter.Float64(geo.MetersBetween(prev.Lat, prev.Lon, pt.Lat, pt.Lon) / dt)
		fix.Heading = filter.Float64(geo.InitialBearing(prev.Lat, prev.Lon, pt.Lat, pt.Lon))
	}
	return fix
}

func loadGPX(path string) ([]gpxPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gpx: %w", err)
	}
	var doc gpxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse gpx %s: %w", path, err)
	}
	var points []gpxPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			points = append(points, seg.Points...)
		}
	}
	return points, nil
}
