// Package main provides a CLI tool to resolve and download PDFs for the
// records matched by a given filter run, ranking repository/preprint URLs
// above Unpaywall open-access links above permissively-licensed publisher
// links.
//
// Usage:
//
//	go run cmd/pdfs/main.go --filtering-query-id 1
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/paper-app/curator/internal/config"
	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/httpclient"
	"github.com/paper-app/curator/internal/pdf"
	"github.com/paper-app/curator/internal/ratelimiter"
	"github.com/paper-app/curator/internal/store"
)

func main() {
	filteringQueryID := flag.Int64("filtering-query-id", 0, "Filtering query whose matched records should be downloaded (required)")
	flag.Parse()

	runID := uuid.New().String()

	if *filteringQueryID == 0 {
		log.Fatal("--filtering-query-id is required")
	}

	cfg := config.Load()
	layout := cfg.Layout()

	db, err := store.Open(layout.DBPath)
	if err != nil {
		log.Fatalf("[%s] opening store: %v", runID, err)
	}
	defer db.Close()

	records, err := db.GetMatchedRecordsByFilteringQuery(*filteringQueryID)
	if err != nil {
		log.Fatalf("[%s] loading matched records: %v", runID, err)
	}
	log.Printf("[%s] resolving PDFs for %d matched records", runID, len(records))

	httpClient := httpclient.New(cfg.HTTP.DefaultTimeout, cfg.HTTP.MaxRedirects,
		httpclient.WithMaxRetries(cfg.HTTP.MaxRetries),
		httpclient.WithBackoff(cfg.HTTP.MinBackoff, cfg.HTTP.MaxBackoff),
	)
	limiters := ratelimiter.NewTable(cfg.Source.CallsPerSecond)
	downloader := pdf.NewDownloader(httpClient, limiters, db, layout.PDFDir, cfg.PDF.ShardedDirs, cfg.PDF.MaxSizeBytes)

	var downloaded, unavailable, failed int
	for _, a := range records {
		candidates := pdf.Resolve(a)

		if _, err := db.InsertPDFResolution(&domain.PDFResolution{
			RecordID:         a.ID,
			FilteringQueryID: filteringQueryID,
			Timestamp:        time.Now(),
			Candidates:       candidates,
		}); err != nil {
			log.Printf("[%s] record %d: recording resolution: %v", runID, a.ID, err)
		}

		result, err := downloader.DownloadAll(context.Background(), a.ID, filteringQueryID, candidates)
		if err != nil {
			failed++
			log.Printf("[%s] record %d: download failed: %v", runID, a.ID, err)
			continue
		}
		switch result.Status {
		case domain.DownloadStatusDownloaded:
			downloaded++
		default:
			unavailable++
		}
	}

	log.Printf("[%s] downloaded=%d unavailable=%d failed=%d", runID, downloaded, unavailable, failed)
}
