package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestHandlerServesRecordedSeries(t *testing.T) {
	m := New()
	m.SessionStarted()
	m.RecordAccepted("s1", "gps", 0.8, 12.5)
	m.RecordAccepted("s1", "dead_reckoning", 0.2, 19.25)
	m.RecordRejected("s1", "accuracy", 0.2)
	m.RecordFailure("s1", "timeout")
	m.SetTrendSlope("s1", 1.5)

	body := scrape(t, m)
	for _, want := range []string{
		`tracksmith_fixes_accepted_total{origin="gps",session="s1"} 1`,
		`tracksmith_fixes_accepted_total{origin="dead_reckoning",session="s1"} 1`,
		`tracksmith_fixes_rejected_total{reason="accuracy",session="s1"} 1`,
		`tracksmith_acquisition_failures_total{kind="timeout",session="s1"} 1`,
		`tracksmith_quality_score{session="s1"} 0.2`,
		`tracksmith_track_distance_meters{session="s1"} 19.25`,
		`tracksmith_accuracy_trend_slope{session="s1"} 1.5`,
		`tracksmith_active_sessions 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestSessionGaugeTracksStartStop(t *testing.T) {
	m := New()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionStopped()

	body := scrape(t, m)
	if !strings.Contains(body, "tracksmith_active_sessions 1") {
		t.Fatalf("expected a single active session:\n%s", body)
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a := New()
	b := New()
	a.SessionStarted()

	body := scrape(t, b)
	if !strings.Contains(body, "tracksmith_active_sessions 0") {
		t.Fatalf("second instance saw foreign state:\n%s", body)
	}
}
