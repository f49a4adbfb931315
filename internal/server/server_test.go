package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-tracksmith/internal/auth"
	"backend-tracksmith/internal/config"
)

func testServer() *Server {
	cfg := config.Config{JWTSecret: "secret", ServerPort: ":0"}
	return NewServer(cfg, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHealthRoute(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 status")
	}
}

func TestMetricsRoute(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "tracksmith_active_sessions") {
		t.Fatalf("exposition missing session gauge:\n%s", body)
	}
}

func TestTrackingRoutesRequireToken(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/tracking/sessions", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	token, err := auth.NewToken("secret", "device-1", 0)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/tracking/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
}

func TestTrackingReadRoutesAreOpen(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/tracking/sessions", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
