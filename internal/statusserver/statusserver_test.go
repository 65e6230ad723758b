package statusserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeReporter struct {
	stats map[string]int
	err   error
}

func (f *fakeReporter) GetPDFDownloadStats(filteringQueryID *int64) (map[string]int, error) {
	return f.stats, f.err
}

func TestHealthEndpointReturnsOK(t *testing.T) {
	r := NewRouter(&fakeReporter{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "OK")
	}
}

func TestStatusPDFsEndpointReturnsStats(t *testing.T) {
	r := NewRouter(&fakeReporter{stats: map[string]int{"downloaded": 3, "unavailable": 1}})
	req := httptest.NewRequest(http.MethodGet, "/status/pdfs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got["downloaded"] != 3 || got["unavailable"] != 1 {
		t.Errorf("got = %v, want downloaded=3 unavailable=1", got)
	}
}

func TestStatusPDFsEndpointReturnsErrorStatus(t *testing.T) {
	r := NewRouter(&fakeReporter{err: errors.New("db is down")})
	req := httptest.NewRequest(http.MethodGet, "/status/pdfs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
