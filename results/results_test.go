package results

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/bolao-jogos/bolao/model"
)

func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/megasena/latest" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"concurso":2700,"data":"15/03/2026","dezenas":["04","08","15","16","23","42"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Latest(context.Background(), model.MegaSena)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}

	if res.Contest != 2700 {
		t.Errorf("contest = %d, want 2700", res.Contest)
	}
	want := []int{4, 8, 15, 16, 23, 42}
	if !slices.Equal(res.Numbers, want) {
		t.Errorf("numbers = %v, want %v", res.Numbers, want)
	}
}

func TestLatestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Latest(context.Background(), model.Lotofacil); err == nil {
		t.Error("expected error on 503 response")
	}
}

func TestLatestBadDezena(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"concurso":1,"data":"01/01/2026","dezenas":["04","xx"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Latest(context.Background(), model.MegaSena); err == nil {
		t.Error("expected error on unparseable dezena")
	}
}

func TestGameSlugUnknown(t *testing.T) {
	if _, err := gameSlug(model.GameType("QUINA")); err == nil {
		t.Error("expected error for unmapped game type")
	}
}
