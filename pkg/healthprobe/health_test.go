package healthprobe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
)

func TestHealthAlwaysOK(t *testing.T) {
	hc := New()
	handler := hc.Health()

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("health status = %d (ready=%v), want %d", w.Code, ready, http.StatusOK)
		}

		var resp ProbeResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode health response: %v", err)
		}
		if resp.Status != "healthy" {
			t.Errorf("status = %s, want healthy", resp.Status)
		}
		if resp.Uptime == "" {
			t.Error("uptime is empty")
		}
	}
}

func TestReadyFollowsState(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	// Not ready until the trading loop flips it on.
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("initial ready status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var resp ProbeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode ready response: %v", err)
	}
	if resp.Status != "not_ready" || resp.Message == "" {
		t.Errorf("not-ready response = %+v", resp)
	}

	hc.SetReady(true)
	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d, want %d", w.Code, http.StatusOK)
	}

	hc.SetReady(false)
	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status after unset = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		}
		done <- true
	}()

	<-done
	<-done
}
