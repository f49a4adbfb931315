package trend

import (
	"errors"
	"math"
	"testing"
	"time"
)

var start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluateNeedsEnoughSamples(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < minSamples-1; i++ {
		m.Observe(start.Add(time.Duration(i)*time.Second), 5)
	}
	if _, err := m.Evaluate(); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluateFlagsDegradingAccuracy(t *testing.T) {
	m := NewMonitor()
	// accuracy worsens by 1m every 30s, i.e. 2m per minute
	for i := 0; i < 10; i++ {
		m.Observe(start.Add(time.Duration(i)*30*time.Second), 5+float64(i))
	}

	rep, err := m.Evaluate()
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(rep.SlopeMPerMin-2) > 0.1 {
		t.Fatalf("expected slope ~2 m/min, got %v", rep.SlopeMPerMin)
	}
	if rep.R2 < 0.99 {
		t.Fatalf("expected near-perfect fit, got r2 %v", rep.R2)
	}
	if !rep.Degrading {
		t.Fatalf("steady worsening not flagged as degrading")
	}
	if rep.Samples != 10 {
		t.Fatalf("expected 10 samples, got %d", rep.Samples)
	}
}

func TestEvaluateStableAccuracy(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < 20; i++ {
		acc := 5.0
		if i%2 == 1 {
			acc = 5.2
		}
		m.Observe(start.Add(time.Duration(i)*15*time.Second), acc)
	}

	rep, err := m.Evaluate()
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rep.Degrading {
		t.Fatalf("stable accuracy flagged as degrading: %+v", rep)
	}
	if math.Abs(rep.SlopeMPerMin) > 0.5 {
		t.Fatalf("expected near-flat slope, got %v", rep.SlopeMPerMin)
	}
}

func TestMonitorTrimsOldSamples(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < maxSamples+10; i++ {
		m.Observe(start.Add(time.Duration(i)*time.Second), 5)
	}
	if m.Len() != maxSamples {
		t.Fatalf("expected %d samples, got %d", maxSamples, m.Len())
	}
}
