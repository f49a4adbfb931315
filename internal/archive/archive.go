// Package archive persists summaries of stopped sessions. Only aggregates
// are stored; track points never leave memory.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"backend-tracksmith/internal/db"
)

var ErrDisabled = errors.New("session archive disabled")

// Record is one archived session summary.
type Record struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Label       string    `json:"label"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	PointCount  int       `json:"point_count"`
	DistanceM   float64   `json:"distance_m"`
	Accepted    int       `json:"accepted"`
	Rejected    int       `json:"rejected"`
	AvgSpeedMps float64   `json:"avg_speed_mps"`
}

// Service writes and reads archived summaries. A nil Service reports
// ErrDisabled from every call, which lets the API run without postgres.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Save inserts one summary row for a stopped session.
func (s *Service) Save(ctx context.Context, rec Record) (Record, error) {
	if s == nil || s.db == nil {
		return Record{}, ErrDisabled
	}
	rec.ID = uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_archive (id, session_id, label, started_at, ended_at, point_count, distance_m, accepted, rejected, avg_speed_mps)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, rec.ID, rec.SessionID, rec.Label, rec.StartedAt, rec.EndedAt, rec.PointCount, rec.DistanceM, rec.Accepted, rec.Rejected, rec.AvgSpeedMps)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Recent returns the newest archived summaries, most recently ended first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, label, started_at, ended_at, point_count, distance_m, accepted, rejected, avg_speed_mps
		FROM session_archive
		ORDER BY ended_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Label, &rec.StartedAt, &rec.EndedAt, &rec.PointCount, &rec.DistanceM, &rec.Accepted, &rec.Rejected, &rec.AvgSpeedMps); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
