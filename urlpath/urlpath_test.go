package urlpath

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIDPathValue(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	mux.HandleFunc("GET /api/pool/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := IDPathValue(w, r)
		if err != nil {
			t.Errorf("IDPathValue: %v", err)
		}
		got = id
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/pool/42", nil))
	if got != 42 {
		t.Errorf("id = %d, want 42", got)
	}
}

func TestCodePathValue(t *testing.T) {
	mux := http.NewServeMux()
	var got string
	mux.HandleFunc("GET /api/code/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := CodePathValue(w, r)
		if err != nil {
			t.Errorf("CodePathValue: %v", err)
		}
		got = code
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/code/7d4f9a2c", nil))
	if got != "7d4f9a2c" {
		t.Errorf("code = %q, want %q", got, "7d4f9a2c")
	}
}
