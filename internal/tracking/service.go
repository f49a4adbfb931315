// Package tracking owns the per-session ingestion pipeline: each session
// runs its fixes through the quality filter, keeps live stats, and fans
// outcomes out to stream subscribers, MQTT and metrics.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"backend-tracksmith/internal/archive"
	"backend-tracksmith/internal/filter"
	"backend-tracksmith/internal/metrics"
	"backend-tracksmith/internal/mqtt"
	"backend-tracksmith/internal/stream"
	"backend-tracksmith/internal/trend"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionStopped  = errors.New("session already stopped")
)

// trendEvery controls how often the accuracy trend is refitted while fixes
// carrying accuracy arrive.
const trendEvery = 16

type session struct {
	mu       sync.Mutex
	info     Session
	filter   *filter.Filter
	monitor  *trend.Monitor
	stats    Stats
	observed int // accuracy samples since the last trend fit
}

func (ss *session) summaryLocked() Summary {
	duration := time.Since(ss.info.StartedAt)
	if !ss.info.EndedAt.IsZero() {
		duration = ss.info.EndedAt.Sub(ss.info.StartedAt)
	}
	avgSpeed := 0.0
	if duration.Seconds() > 0 {
		avgSpeed = ss.filter.DistanceM() / duration.Seconds()
	}

	return Summary{
		SessionID:     ss.info.ID,
		Label:         ss.info.Label,
		PointCount:    ss.filter.TrackLen(),
		DistanceM:     ss.filter.DistanceM(),
		DurationSec:   int64(duration.Seconds()),
		AverageSpeedM: avgSpeed,
		Accepted:      ss.stats.Accepted,
		Rejected:      ss.stats.Rejected,
		LastQuality:   ss.stats.LastQuality,
	}
}

type Service struct {
	cfg     filter.Config
	hub     *stream.Hub
	pub     *mqtt.Publisher
	metrics *metrics.Metrics
	archive *archive.Service
	log     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService builds the tracking service. hub, pub, m and arch may each be
// nil; the corresponding output is skipped.
func NewService(cfg filter.Config, hub *stream.Hub, pub *mqtt.Publisher, m *metrics.Metrics, arch *archive.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		hub:      hub,
		pub:      pub,
		metrics:  m,
		archive:  arch,
		log:      log,
		sessions: make(map[string]*session),
	}
}

func (s *Service) StartSession(input Session) Session {
	input.ID = uuid.NewString()
	if input.StartedAt.IsZero() {
		input.StartedAt = time.Now()
	}
	input.Status = StatusActive
	input.EndedAt = time.Time{}

	sess := &session{
		info:    input,
		filter:  filter.New(s.cfg),
		monitor: trend.NewMonitor(),
	}

	s.mu.Lock()
	s.sessions[input.ID] = sess
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	s.emit(Event{Type: EventStarted, SessionID: input.ID, At: input.StartedAt})
	s.log.Info("session started", "session", input.ID, "label", input.Label)
	return input
}

// StopSession ends ingestion for a session. The session stays readable;
// stopping twice returns ErrSessionStopped. A summary row is archived when
// postgres is configured.
func (s *Service) StopSession(ctx context.Context, id string) (Summary, error) {
	sess, err := s.get(id)
	if err != nil {
		return Summary{}, err
	}

	sess.mu.Lock()
	if sess.info.Status == StatusStopped {
		sess.mu.Unlock()
		return Summary{}, ErrSessionStopped
	}
	sess.info.Status = StatusStopped
	sess.info.EndedAt = time.Now()
	info := sess.info
	stats := sess.stats
	summary := sess.summaryLocked()
	sess.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionStopped()
	}
	s.emit(Event{Type: EventStopped, SessionID: id, At: info.EndedAt, DistanceM: summary.DistanceM})
	if s.hub != nil {
		s.hub.CloseSession(id)
	}

	_, err = s.archive.Save(ctx, archive.Record{
		SessionID:   id,
		Label:       info.Label,
		StartedAt:   info.StartedAt,
		EndedAt:     info.EndedAt,
		PointCount:  summary.PointCount,
		DistanceM:   summary.DistanceM,
		Accepted:    stats.Accepted,
		Rejected:    stats.Rejected,
		AvgSpeedMps: summary.AverageSpeedM,
	})
	if err != nil && !errors.Is(err, archive.ErrDisabled) {
		s.log.Error("archive save failed", "session", id, "error", err)
	}

	s.log.Info("session stopped", "session", id, "distance_m", summary.DistanceM, "points", summary.PointCount)
	return summary, nil
}

// ProcessFix runs one fix through the session's filter and returns the
// outcome. Rejections are not errors; the caller gets the reason in the
// outcome.
func (s *Service) ProcessFix(sessionID string, point Point) (Outcome, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if point.RecordedAt.IsZero() {
		point.RecordedAt = time.Now()
	}

	sess.mu.Lock()
	if sess.info.Status != StatusActive {
		sess.mu.Unlock()
		return Outcome{}, ErrSessionStopped
	}

	fix := point.toFix()
	if point.AccuracyM != nil {
		sess.monitor.Observe(fix.Time, *point.AccuracyM)
	}
	res := sess.filter.Process(fix)

	sess.stats.Received++
	sess.stats.LastQuality = res.Quality

	var outcome Outcome
	if res.Accepted {
		sess.stats.Accepted++
		if res.Origin == filter.OriginDeadReckoning {
			sess.stats.Corrected++
		}
		sess.stats.DistanceM = res.DistanceM
		accepted := PointFromFix(res.Fix)
		outcome = Outcome{
			Accepted:  true,
			Point:     &accepted,
			DistanceM: res.DistanceM,
			Quality:   res.Quality,
			Source:    res.Origin.String(),
		}
	} else {
		sess.stats.Rejected++
		outcome = Outcome{
			DistanceM: res.DistanceM,
			Quality:   res.Quality,
			Reason:    res.Reason.String(),
		}
	}

	fitTrend := false
	if point.AccuracyM != nil {
		sess.observed++
		if sess.observed >= trendEvery {
			sess.observed = 0
			fitTrend = true
		}
	}
	monitor := sess.monitor
	sess.mu.Unlock()

	if s.metrics != nil {
		if outcome.Accepted {
			s.metrics.RecordAccepted(sessionID, outcome.Source, outcome.Quality, outcome.DistanceM)
		} else {
			s.metrics.RecordRejected(sessionID, outcome.Reason, outcome.Quality)
		}
	}

	if outcome.Accepted {
		s.emit(Event{
			Type:      EventPoint,
			SessionID: sessionID,
			At:        point.RecordedAt,
			Point:     outcome.Point,
			Source:    outcome.Source,
			Quality:   outcome.Quality,
			DistanceM: outcome.DistanceM,
		})
	} else {
		s.emit(Event{
			Type:      EventRejected,
			SessionID: sessionID,
			At:        point.RecordedAt,
			Quality:   outcome.Quality,
			Reason:    outcome.Reason,
		})
	}

	if fitTrend {
		if rep, err := monitor.Evaluate(); err == nil {
			if s.metrics != nil {
				s.metrics.SetTrendSlope(sessionID, rep.SlopeMPerMin)
			}
			if rep.Degrading {
				s.log.Warn("accuracy degrading", "session", sessionID, "slope_m_per_min", rep.SlopeMPerMin, "r2", rep.R2)
			}
		}
	}

	return outcome, nil
}

// ReportFailure records an acquisition failure against an active session.
func (s *Service) ReportFailure(sessionID, kind, message string) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.info.Status != StatusActive {
		sess.mu.Unlock()
		return ErrSessionStopped
	}
	sess.stats.Failures++
	sess.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordFailure(sessionID, kind)
	}
	s.emit(Event{Type: EventFailure, SessionID: sessionID, At: time.Now(), Kind: kind, Message: message})
	s.log.Warn("acquisition failure", "session", sessionID, "kind", kind, "message", message)
	return nil
}

// Sessions lists every known session, oldest first.
func (s *Service) Sessions() []Session {
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sess.mu.Lock()
		out = append(out, sess.info)
		sess.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Status reports the live view of one session, including the accuracy trend
// when enough samples exist.
func (s *Service) Status(id string) (Status, error) {
	sess, err := s.get(id)
	if err != nil {
		return Status{}, err
	}

	sess.mu.Lock()
	st := Status{Session: sess.info, Stats: sess.stats}
	st.Stats.DistanceM = sess.filter.DistanceM()
	monitor := sess.monitor
	sess.mu.Unlock()

	if rep, err := monitor.Evaluate(); err == nil {
		st.Trend = &rep
	}
	return st, nil
}

// TrackPoints returns the accepted track of a session in order.
func (s *Service) TrackPoints(id string) ([]Point, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	fixes := sess.filter.TrackPoints()
	sess.mu.Unlock()

	points := make([]Point, len(fixes))
	for i, fix := range fixes {
		points[i] = PointFromFix(fix)
	}
	return points, nil
}

func (s *Service) Summary(id string) (Summary, error) {
	sess, err := s.get(id)
	if err != nil {
		return Summary{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.summaryLocked(), nil
}

// ArchiveRecent lists the newest archived session summaries.
func (s *Service) ArchiveRecent(ctx context.Context, limit int) ([]archive.Record, error) {
	return s.archive.Recent(ctx, limit)
}

func (s *Service) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) emit(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(ev.SessionID, payload)
	}
	if s.pub != nil {
		if err := s.pub.PublishEvent(ev.SessionID, payload); err != nil {
			s.log.Error("mqtt publish failed", "session", ev.SessionID, "error", err)
		}
	}
}
