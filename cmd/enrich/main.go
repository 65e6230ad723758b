// Package main provides a CLI tool to run the multi-pass metadata and
// abstract enrichment loop over every research article record awaiting
// enrichment, fanning out across arXiv, OpenAlex, PubMed, Semantic
// Scholar, Crossref, Unpaywall, EuropePMC, and the preprint platforms.
//
// Usage:
//
//	go run cmd/enrich/main.go \
//	  --max-passes 2 \
//	  --max-concurrent 8
package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"

	"github.com/paper-app/curator/internal/abstractpipeline"
	"github.com/paper-app/curator/internal/config"
	"github.com/paper-app/curator/internal/httpclient"
	"github.com/paper-app/curator/internal/oaenrich"
	"github.com/paper-app/curator/internal/orchestrator"
	"github.com/paper-app/curator/internal/preprint"
	"github.com/paper-app/curator/internal/ratelimiter"
	"github.com/paper-app/curator/internal/sources"
	"github.com/paper-app/curator/internal/sources/arxiv"
	"github.com/paper-app/curator/internal/sources/biorxiv"
	"github.com/paper-app/curator/internal/sources/crossref"
	"github.com/paper-app/curator/internal/sources/europepmc"
	"github.com/paper-app/curator/internal/sources/openalex"
	"github.com/paper-app/curator/internal/sources/preprints"
	"github.com/paper-app/curator/internal/sources/pubmed"
	"github.com/paper-app/curator/internal/sources/semanticscholar"
	"github.com/paper-app/curator/internal/sources/unpaywall"
	"github.com/paper-app/curator/internal/store"
)

func main() {
	maxPasses := flag.Int("max-passes", 0, "Override the configured max enrichment passes (0 = use config default)")
	maxConcurrent := flag.Int("max-concurrent", 0, "Override the configured per-pass concurrency (0 = use config default)")
	flag.Parse()

	runID := uuid.New().String()

	cfg := config.Load()
	layout := cfg.Layout()

	db, err := store.Open(layout.DBPath)
	if err != nil {
		log.Fatalf("[%s] opening store: %v", runID, err)
	}
	defer db.Close()

	httpClient := httpclient.New(cfg.HTTP.DefaultTimeout, cfg.HTTP.MaxRedirects,
		httpclient.WithMaxRetries(cfg.HTTP.MaxRetries),
		httpclient.WithBackoff(cfg.HTTP.MinBackoff, cfg.HTTP.MaxBackoff),
		httpclient.WithUserAgent(userAgent(cfg.ContactEmail)),
	)
	limiters := ratelimiter.NewTable(cfg.Source.CallsPerSecond)

	arxivClient := arxiv.New(httpClient, limiters.For("arxiv"))
	openalexClient := openalex.New(httpClient, limiters.For("openalex"), cfg.ContactEmail)
	pubmedClient := pubmed.New(httpClient, limiters.For("pubmed"))
	s2Client := semanticscholar.New(httpClient, limiters.For("semantic-scholar"), cfg.SemanticScholarAPIKey)
	crossrefClient := crossref.New(httpClient, limiters.For("crossref"), cfg.ContactEmail)
	unpaywallClient := unpaywall.New(httpClient, limiters.For("unpaywall"), cfg.ContactEmail)
	europepmcClient := europepmc.New(httpClient, limiters.For("europepmc"))
	biorxivClient := biorxiv.New(httpClient, limiters.For("preprints"), biorxiv.ServerBioRxiv)
	medrxivClient := biorxiv.New(httpClient, limiters.For("preprints"), biorxiv.ServerMedRxiv)
	preprintsOrgClient := preprints.New(httpClient, limiters.For("preprints"))

	preprintFetchers := map[string]sources.MetadataFetcher{
		preprint.PlatformArxiv:        arxivClient,
		preprint.PlatformBioRxiv:      biorxivClient,
		preprint.PlatformMedRxiv:      medrxivClient,
		preprint.PlatformPreprintsOrg: preprintsOrgClient,
	}
	preprintEnricher := preprint.New(db, preprintFetchers)

	abstractFetchers := abstractpipeline.New(
		s2Client,
		crossrefClient,
		openalexClient,
		europepmcClient,
		pubmedClient,
	)

	oaEnricher := oaenrich.New(unpaywallClient)

	metadataFetchers := []sources.MetadataFetcher{
		openalexClient,
		crossrefClient,
		pubmedClient,
		s2Client,
		europepmcClient,
	}

	enrichCfg := orchestrator.Config{
		MaxPasses:         cfg.Enrich.MaxPasses,
		MaxConcurrent:     cfg.Enrich.MaxConcurrent,
		RetryEmptyRecords: cfg.Enrich.RetryEmptyRecords,
	}
	if *maxPasses > 0 {
		enrichCfg.MaxPasses = *maxPasses
	}
	if *maxConcurrent > 0 {
		enrichCfg.MaxConcurrent = *maxConcurrent
	}

	orch := orchestrator.New(db, preprintEnricher, abstractFetchers, oaEnricher, metadataFetchers, enrichCfg)

	log.Printf("[%s] starting enrichment: max_passes=%d max_concurrent=%d", runID, enrichCfg.MaxPasses, enrichCfg.MaxConcurrent)

	result, err := orch.Run(context.Background())
	if err != nil {
		log.Fatalf("[%s] enrichment run failed: %v", runID, err)
	}

	log.Printf("[%s] passes=%d records_enriched=%d records_created=%d",
		runID, result.Passes, result.RecordsEnriched, result.RecordsCreated)
}

func userAgent(email string) string {
	if email == "" {
		return "paper-app-curator/1.0"
	}
	return "paper-app-curator/1.0 (mailto:" + email + ")"
}
