// Package main provides a CLI tool to locate a DOCX file for each record
// matched by a filter run and convert it to Markdown twice — once with
// images stripped, once with images preserved.
//
// Usage:
//
//	go run cmd/convert/main.go \
//	  --filtering-query-id 1 \
//	  --converter-binary /usr/local/bin/docx2md
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"

	"github.com/paper-app/curator/internal/artifact"
	"github.com/paper-app/curator/internal/config"
	"github.com/paper-app/curator/internal/store"
)

func main() {
	filteringQueryID := flag.Int64("filtering-query-id", 0, "Filtering query whose matched records should be converted (required)")
	converterBinary := flag.String("converter-binary", "docx2md", "Path to the external DOCX->Markdown converter binary")
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
	log.Printf("[%s] converting DOCX for %d matched records", runID, len(records))

	converter := artifact.New(db, layout.DocxDir, artifact.NewExternalConverter(*converterBinary))

	var located, missing, converted int
	ctx := context.Background()
	for _, a := range records {
		docxVersion, err := converter.DocxLookup(a)
		if err != nil {
			log.Printf("[%s] record %d: docx lookup failed: %v", runID, a.ID, err)
			continue
		}
		if docxVersion == nil {
			missing++
			continue
		}
		located++

		versions, err := converter.DocxToMarkdown(ctx, docxVersion, layout.MarkdownDir)
		if err != nil {
			log.Printf("[%s] record %d: markdown conversion failed: %v", runID, a.ID, err)
			continue
		}
		for _, v := range versions {
			if v.ErrorMessage == "" {
				converted++
			}
		}
	}

	log.Printf("[%s] located=%d missing=%d converted_variants=%d", runID, located, missing, converted)
}
