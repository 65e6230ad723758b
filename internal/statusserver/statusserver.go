// Package statusserver exposes a read-only status/health HTTP surface,
// grounded on the teacher's internal/delivery/http/routes.go chi+cors
// wiring (chimiddleware.Logger/Recoverer, cors.Handler). This is ambient
// observability — not a retrieval-pipeline module — so its CLI
// subcommands are a thin addition on top of the batch commands.
package statusserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Reporter supplies the point-in-time counters the status endpoint
// reports; store.Store satisfies it via its stats queries.
type Reporter interface {
	GetPDFDownloadStats(filteringQueryID *int64) (map[string]int, error)
}

func NewRouter(reporter Reporter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Get("/status/pdfs", func(w http.ResponseWriter, req *http.Request) {
		stats, err := reporter.GetPDFDownloadStats(nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})

	return r
}
