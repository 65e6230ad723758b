// Package main provides a CLI tool to load research article records from
// a CSV export into the embedded curator store, upserting on normalized
// DOI and skipping rows already on file.
//
// Usage:
//
//	go run cmd/ingest/main.go --csv /path/to/export.csv
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"
	"github.com/paper-app/curator/internal/config"
	"github.com/paper-app/curator/internal/ingest"
	"github.com/paper-app/curator/internal/store"
)

func main() {
	csvPath := flag.String("csv", "", "Path to the CSV export to ingest (required)")
	flag.Parse()

	runID := uuid.New().String()

	if *csvPath == "" {
		log.Fatal("--csv is required")
	}

	cfg := config.Load()
	layout := cfg.Layout()

	db, err := store.Open(layout.DBPath)
	if err != nil {
		log.Fatalf("[%s] opening store: %v", runID, err)
	}
	defer db.Close()

	log.Printf("[%s] ingesting %s", runID, *csvPath)

	source := ingest.NewCSVRowSource(*csvPath)
	summary, err := ingest.Run(context.Background(), source, db)
	if err != nil {
		log.Fatalf("[%s] ingest run failed: %v", runID, err)
	}

	log.Printf("[%s] total=%d succeeded=%d skipped=%d failed=%d",
		runID, summary.Total, summary.Succeeded, summary.Skipped, summary.Failed)
}
