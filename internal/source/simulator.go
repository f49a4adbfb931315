package source

import (
	"context"
	"math"
	"math/rand"
	"time"

	"backend-tracksmith/internal/filter"
	"backend-tracksmith/internal/shared/geo"
)

// Simulator generates a synthetic wandering track. It needs no hardware and
// is the default driver for local development.
type Simulator struct {
	StartLat float64
	StartLon float64
	SpeedMS  float64
	Interval time.Duration

	lat, lon float64
	heading  float64
	rng      *rand.Rand
}

func (s *Simulator) Name() string { return "simulator" }

func (s *Simulator) Run(ctx context.Context, emit func(Update)) error {
	if s.Interval <= 0 {
		s.Interval = time.Second
	}
	s.lat, s.lon = s.StartLat, s.StartLon
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.heading = s.rng.Float64() * 360

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			emit(Update{Fix: s.step(now)})
		}
	}
}

// step advances the simulated walker: drift the heading, move by one tick of
// travel, jitter the reported accuracy.
func (s *Simulator) step(now time.Time) *filter.Fix {
	s.heading = math.Mod(s.heading+(s.rng.Float64()-0.5)*30+360, 360)
	s.lat, s.lon = geo.Destination(s.lat, s.lon, s.heading, s.SpeedMS*s.Interval.Seconds())

	accuracy := 3 + s.rng.Float64()*4
	if s.rng.Intn(20) == 0 {
		// occasional multipath-style spike the filter should reject
		accuracy = 30 + s.rng.Float64()*40
	}

	return &filter.Fix{
		Lat:      s.lat,
		Lon:      s.lon,
		Accuracy: filter.Float64(accuracy),
		Speed:    filter.Float64(s.SpeedMS),
		Heading:  filter.Float64(s.heading),
		Time:     now,
	}
}
