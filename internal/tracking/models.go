package tracking

import (
	"time"

	"backend-tracksmith/internal/filter"
	"backend-tracksmith/internal/trend"
)

const (
	StatusActive  = "active"
	StatusStopped = "stopped"
)

type Session struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Point is the wire form of a position fix. Accuracy, speed and heading are
// optional; their absence is meaningful to the filter.
type Point struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	SpeedMps   *float64  `json:"speed_mps,omitempty"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func PointFromFix(fix filter.Fix) Point {
	return Point{
		Lat:        fix.Lat,
		Lng:        fix.Lon,
		AccuracyM:  fix.Accuracy,
		SpeedMps:   fix.Speed,
		HeadingDeg: fix.Heading,
		RecordedAt: fix.Time,
	}
}

func (p Point) toFix() filter.Fix {
	return filter.Fix{
		Lat:      p.Lat,
		Lon:      p.Lng,
		Accuracy: p.AccuracyM,
		Speed:    p.SpeedMps,
		Heading:  p.HeadingDeg,
		Time:     p.RecordedAt,
	}
}

// Outcome is the per-fix processing result returned to the ingesting client.
type Outcome struct {
	Accepted  bool    `json:"accepted"`
	Point     *Point  `json:"point,omitempty"`
	DistanceM float64 `json:"cumulative_distance_m"`
	Quality   float64 `json:"quality_score"`
	Source    string  `json:"source,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// FailureReport is a position acquisition failure posted by a client.
type FailureReport struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Event types published to stream subscribers and MQTT.
const (
	EventStarted  = "session_started"
	EventPoint    = "point"
	EventRejected = "rejected"
	EventFailure  = "acquisition_failure"
	EventStopped  = "session_stopped"
)

type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Point     *Point    `json:"point,omitempty"`
	Source    string    `json:"source,omitempty"`
	Quality   float64   `json:"quality_score,omitempty"`
	DistanceM float64   `json:"cumulative_distance_m,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Stats count the fixes a session has seen.
type Stats struct {
	Received    int     `json:"received"`
	Accepted    int     `json:"accepted"`
	Rejected    int     `json:"rejected"`
	Corrected   int     `json:"corrected"`
	Failures    int     `json:"failures"`
	DistanceM   float64 `json:"distance_m"`
	LastQuality float64 `json:"last_quality"`
}

// Status is the live view of a session.
type Status struct {
	Session Session       `json:"session"`
	Stats   Stats         `json:"stats"`
	Trend   *trend.Report `json:"trend,omitempty"`
}

type Summary struct {
	SessionID     string  `json:"session_id"`
	Label         string  `json:"label"`
	PointCount    int     `json:"point_count"`
	DistanceM     float64 `json:"distance_m"`
	DurationSec   int64   `json:"duration_sec"`
	AverageSpeedM float64 `json:"average_speed_mps"`
	Accepted      int     `json:"accepted"`
	Rejected      int     `json:"rejected"`
	LastQuality   float64 `json:"last_quality"`
}
