// Package trend fits a linear model over the reported accuracy of a session
// to detect signal quality that is steadily getting worse.
package trend

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/sajari/regression"
)

const (
	maxSamples = 256
	minSamples = 8

	// a fit at least this steep, with reasonable confidence, is degrading
	degradingSlopeMPerMin = 1.0
	minConfidenceR2       = 0.5
)

var ErrInsufficientData = errors.New("not enough accuracy samples")

type sample struct {
	elapsed  float64 // seconds since the first sample
	accuracy float64
}

// Monitor collects the accuracy samples of one session. Safe for concurrent
// use.
type Monitor struct {
	mu      sync.Mutex
	start   time.Time
	samples []sample
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Observe records a reported accuracy at the given time. Only the newest
// samples are kept.
func (m *Monitor) Observe(at time.Time, accuracyM float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.samples) == 0 {
		m.start = at
	}
	m.samples = append(m.samples, sample{elapsed: at.Sub(m.start).Seconds(), accuracy: accuracyM})
	if len(m.samples) > maxSamples {
		m.samples = m.samples[len(m.samples)-maxSamples:]
	}
}

// Len reports the number of buffered samples.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

// Report is the fitted accuracy trend of a session.
type Report struct {
	SlopeMPerMin float64 `json:"slope_m_per_min"`
	R2           float64 `json:"r2"`
	Samples      int     `json:"samples"`
	Degrading    bool    `json:"degrading"`
}

// Evaluate regresses accuracy against elapsed time and reports the slope.
func (m *Monitor) Evaluate() (Report, error) {
	m.mu.Lock()
	samples := make([]sample, len(m.samples))
	copy(samples, m.samples)
	m.mu.Unlock()

	if len(samples) < minSamples {
		return Report{}, ErrInsufficientData
	}

	var r regression.Regression
	r.SetObserved("accuracy_m")
	r.SetVar(0, "elapsed_s")
	for _, s := range samples {
		r.Train(regression.DataPoint(s.accuracy, []float64{s.elapsed}))
	}
	if err := r.Run(); err != nil {
		return Report{}, err
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) < 2 {
		return Report{}, ErrInsufficientData
	}

	rep := Report{
		SlopeMPerMin: coeffs[1] * 60,
		R2:           r.R2,
		Samples:      len(samples),
	}
	// perfectly flat input leaves the residual sum at zero and R2 undefined
	if math.IsNaN(rep.R2) || math.IsInf(rep.R2, 0) {
		rep.R2 = 0
	}
	rep.Degrading = rep.SlopeMPerMin >= degradingSlopeMPerMin && rep.R2 >= minConfidenceR2
	return rep, nil
}
