package debugserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rtviewer/internal/config"
)

type fixedStats Stats

func (f fixedStats) Stats() Stats {
	return Stats(f)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewServer(fixedStats{}, "").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	want := Stats{FPS: 60, FrameTimeMS: 16.7, ViewportWidth: 800, ViewportHeight: 600, Meshes: 1, EffectEnabled: true}
	srv := httptest.NewServer(NewServer(fixedStats(want), "").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got Stats
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}

	post, err := http.Post(srv.URL+"/stats", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /stats status = %d", post.StatusCode)
	}
}

func TestEffect(t *testing.T) {
	srv := httptest.NewServer(NewServer(fixedStats{}, "").Handler())
	defer srv.Close()

	tests := []struct {
		name   string
		start  bool
		body   string
		want   bool
		status int
	}{
		{name: "toggle off", start: true, body: "", want: false, status: http.StatusOK},
		{name: "toggle on", start: false, body: "", want: true, status: http.StatusOK},
		{name: "set false", start: true, body: `{"enabled":false}`, want: false, status: http.StatusOK},
		{name: "set true keeps", start: true, body: `{"enabled":true}`, want: true, status: http.StatusOK},
		{name: "bad body", start: true, body: `{`, want: true, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.SetEffectEnabled(tt.start)

			resp, err := http.Post(srv.URL+"/effect", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := config.EffectEnabled(); got != tt.want {
				t.Errorf("EffectEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	s := NewServer(fixedStats{}, "127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
