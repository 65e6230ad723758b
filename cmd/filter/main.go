// Package main provides a CLI tool to run an LLM inclusion/exclusion
// filter query over every enriched research article record, writing one
// FilteringResult row per record.
//
// Usage:
//
//	go run cmd/filter/main.go \
//	  --query "about large language model evaluation" \
//	  --exclude "purely theoretical, no empirical results" \
//	  --model gpt-4o-mini \
//	  --max-concurrent 5
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"

	"github.com/paper-app/curator/internal/config"
	"github.com/paper-app/curator/internal/filter"
	"github.com/paper-app/curator/internal/llm"
	"github.com/paper-app/curator/internal/store"
)

func main() {
	query := flag.String("query", "", "Inclusion criteria for the filter query (required)")
	exclude := flag.String("exclude", "", "Exclusion criteria for the filter query")
	model := flag.String("model", "", "LLM model identifier (defaults to the configured default model)")
	maxConcurrent := flag.Int("max-concurrent", 0, "Concurrent LLM calls (0 = use config default)")
	flag.Parse()

	runID := uuid.New().String()

	if *query == "" {
		log.Fatal("--query is required")
	}

	cfg := config.Load()
	layout := cfg.Layout()

	db, err := store.Open(layout.DBPath)
	if err != nil {
		log.Fatalf("[%s] opening store: %v", runID, err)
	}
	defer db.Close()

	if *model == "" {
		*model = cfg.Filter.DefaultModel
	}
	if *maxConcurrent <= 0 {
		*maxConcurrent = cfg.Filter.DefaultMaxConcurrent
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatalf("[%s] OPENAI_API_KEY is not set", runID)
	}

	completer := llm.NewOpenAICompleter(cfg.OpenAIAPIKey)
	executor := filter.New(db, completer)

	records, err := db.GetEnrichedRecords()
	if err != nil {
		log.Fatalf("[%s] loading enriched records: %v", runID, err)
	}
	log.Printf("[%s] filtering %d records with model=%s max_concurrent=%d", runID, len(records), *model, *maxConcurrent)

	fq, err := executor.Run(context.Background(), *query, *exclude, *model, *maxConcurrent, records)
	if err != nil {
		log.Fatalf("[%s] filter run failed: %v", runID, err)
	}

	log.Printf("[%s] filtering_query_id=%d total=%d matched=%d failed=%d warnings=%d",
		runID, fq.ID, fq.Total, fq.Matched, fq.Failed, fq.Warnings)
}
