// Package source provides the position feeds that drive ingestion: a gpsd
// client, an NMEA serial reader, a synthetic simulator and a GPX replayer.
// All drivers implement Source and are run through Pump, which handles
// restarts and failure classification.
package source

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"time"

	"backend-tracksmith/internal/filter"
)

// FailureKind classifies why position acquisition failed.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailurePermissionDenied
	FailurePositionUnavailable
	FailureTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailurePermissionDenied:
		return "permission_denied"
	case FailurePositionUnavailable:
		return "position_unavailable"
	case FailureTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Failure is an acquisition failure reported by a driver or by Pump when a
// driver gives up.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Update is one emission from a driver: either a fix or a failure, never
// both.
type Update struct {
	Fix     *filter.Fix
	Failure *Failure
}

// Source is a position feed. Run blocks until the feed ends or ctx is
// cancelled; a nil return means the feed finished on its own (replay reached
// the end of its track, shutdown).
type Source interface {
	Name() string
	Run(ctx context.Context, emit func(Update)) error
}

var (
	errWatchEnded  = errors.New("gpsd watch ended")
	errStreamEnded = errors.New("nmea stream ended")
)

// Classify maps a driver error onto a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureOther
	case errors.Is(err, os.ErrPermission):
		return FailurePermissionDenied
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, errWatchEnded), errors.Is(err, errStreamEnded):
		return FailurePositionUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailurePositionUnavailable
	}
	return FailureOther
}

const pumpAttempts = 2

var pumpRetryDelay = 2 * time.Second

// Pump runs src until it succeeds or exhausts its attempts, routing fixes to
// onFix and failures to onFailure. A failed run is retried once; after the
// final failure the classified error is reported through onFailure.
func Pump(ctx context.Context, src Source, log *slog.Logger, onFix func(filter.Fix), onFailure func(Failure)) {
	emit := func(u Update) {
		switch {
		case u.Fix != nil:
			onFix(*u.Fix)
		case u.Failure != nil:
			onFailure(*u.Failure)
		}
	}

	for attempt := 1; ; attempt++ {
		err := src.Run(ctx, emit)
		if err == nil || ctx.Err() != nil {
			return
		}
		log.Error("position source failed", "source", src.Name(), "attempt", attempt, "error", err)
		if attempt >= pumpAttempts {
			onFailure(Failure{Kind: Classify(err), Message: err.Error()})
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pumpRetryDelay):
		}
	}
}
