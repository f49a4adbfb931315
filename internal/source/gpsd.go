package source

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/stratoberry/go-gpsd"

	"backend-tracksmith/internal/filter"
)

// GPSD streams TPV reports from a gpsd daemon.
type GPSD struct {
	Addr string
}

func (g *GPSD) Name() string { return "gpsd" }

func (g *GPSD) Run(ctx context.Context, emit func(Update)) error {
	session, err := gpsd.Dial(g.Addr)
	if err != nil {
		return fmt.Errorf("dial gpsd at %s: %w", g.Addr, err)
	}

	lostFix := false
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}
		if tpv.Mode < gpsd.Mode2D {
			// report the dropout once, then stay quiet until the fix returns
			if !lostFix {
				lostFix = true
				emit(Update{Failure: &Failure{
					Kind:    FailurePositionUnavailable,
					Message: "gpsd lost satellite fix",
				}})
			}
			return
		}
		lostFix = false
		emit(Update{Fix: tpvToFix(tpv)})
	})

	done := session.Watch()
	select {
	case <-ctx.Done():
		// go-gpsd has no Close; the watch goroutine ends with the process.
		return nil
	case <-done:
		return errWatchEnded
	}
}

func tpvToFix(tpv *gpsd.TPVReport) *filter.Fix {
	fix := &filter.Fix{
		Lat:     tpv.Lat,
		Lon:     tpv.Lon,
		Speed:   filter.Float64(tpv.Speed),
		Heading: filter.Float64(tpv.Track),
		Time:    tpv.Time,
	}
	if acc := math.Max(tpv.Epx, tpv.Epy); acc > 0 {
		fix.Accuracy = filter.Float64(acc)
	}
	if fix.Time.IsZero() {
		fix.Time = time.Now()
	}
	return fix
}
