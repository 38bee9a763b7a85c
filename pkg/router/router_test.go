package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouterExactMatch(t *testing.T) {
	r := New()
	r.GET("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	r := New()
	r.GET("/health", func(w http.ResponseWriter, req *http.Request) {})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRouterNotFound(t *testing.T) {
	r := New()
	r.GET("/health", func(w http.ResponseWriter, req *http.Request) {})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouterSegmentWildcard(t *testing.T) {
	r := New()
	var seen string
	r.GET("/sync/runs/*/logs", func(w http.ResponseWriter, req *http.Request) {
		seen = req.URL.Path
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/runs/abc-123/logs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen != "/sync/runs/abc-123/logs" {
		t.Errorf("handler saw %q", seen)
	}

	// The wildcard stands for exactly one segment.
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/runs/a/b/logs", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for two segments", rec.Code)
	}
}

func TestRouterTrailingWildcard(t *testing.T) {
	r := New()
	r.GET("/files/*", func(w http.ResponseWriter, req *http.Request) {})

	for _, path := range []string{"/files/a", "/files/a/b/c"} {
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status for %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouterExactBeatsWildcard(t *testing.T) {
	r := New()
	var hit string
	r.GET("/sync/runs", func(w http.ResponseWriter, req *http.Request) { hit = "exact" })
	r.GET("/sync/*", func(w http.ResponseWriter, req *http.Request) { hit = "wildcard" })

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/runs", nil))
	if hit != "exact" {
		t.Errorf("hit %q, want exact route", hit)
	}
}
