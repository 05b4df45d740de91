package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCacheHeaderAdder(t *testing.T) {
	tests := []struct {
		name   string
		config CacheHeaderAdderConfig
		want   string
	}{
		{
			name:   "public with max age",
			config: CacheHeaderAdderConfig{MaxAge: time.Hour},
			want:   "public, max-age=3600",
		},
		{
			name:   "private",
			config: CacheHeaderAdderConfig{MaxAge: time.Minute, CachePrivate: true},
			want:   "private, max-age=60",
		},
		{
			name:   "immutable",
			config: CacheHeaderAdderConfig{MaxAge: 24 * time.Hour, Immutable: true},
			want:   "public, max-age=86400, immutable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Next = okHandler()
			ch := NewCacheHeaderAdder(&tt.config)

			w := httptest.NewRecorder()
			ch.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

			if got := w.Header().Get("Cache-Control"); got != tt.want {
				t.Errorf("Cache-Control = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheHeaderAdderMaybe(t *testing.T) {
	ch := NewCacheHeaderAdder(&CacheHeaderAdderConfig{
		Maybe:  func(r *http.Request) bool { return strings.HasSuffix(r.URL.Path, ".csv") },
		Next:   okHandler(),
		MaxAge: time.Hour,
	})

	w := httptest.NewRecorder()
	ch.ServeHTTP(w, httptest.NewRequest("GET", "/report.csv", nil))
	if got := w.Header().Get("Cache-Control"); got == "" {
		t.Error("matching request got no Cache-Control header")
	}

	w = httptest.NewRecorder()
	ch.ServeHTTP(w, httptest.NewRequest("GET", "/api/pools", nil))
	if got := w.Header().Get("Cache-Control"); got != "" {
		t.Errorf("non-matching request got Cache-Control %q", got)
	}
}
