// Package orchestrator drives EnrichmentOrchestrator's multi-pass loop
// (spec §4.6): repeatedly pull every record with enrichment_datetime
// IS NULL, enrich each with bounded per-record concurrency, and stop
// once a pass creates nothing new. The database — never an in-memory
// queue — is the sole work list, so a crash mid-run leaves every
// unfinished record correctly eligible for the next invocation.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paper-app/curator/internal/abstractpipeline"
	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/oaenrich"
	"github.com/paper-app/curator/internal/preprint"
	"github.com/paper-app/curator/internal/sources"
)

// ErrFatalConfig signals a misconfigured orchestrator that cannot make
// progress (e.g. zero MaxPasses).
var ErrFatalConfig = fmt.Errorf("orchestrator: invalid configuration")

// Store is the narrow persistence surface the orchestrator needs.
type Store interface {
	GetRecordsNeedingEnrichment() ([]*domain.ResearchArticle, error)
	UpdateEnrichment(a *domain.ResearchArticle) error
}

// Config tunes one orchestrator run.
type Config struct {
	MaxPasses         int
	MaxConcurrent     int
	RetryEmptyRecords bool
}

type Orchestrator struct {
	store      Store
	preprint   *preprint.Enricher
	abstracts  *abstractpipeline.Pipeline
	oa         *oaenrich.Enricher
	metadata   []sources.MetadataFetcher
	cfg        Config
}

func New(store Store, preprintEnricher *preprint.Enricher, abstracts *abstractpipeline.Pipeline, oa *oaenrich.Enricher, metadata []sources.MetadataFetcher, cfg Config) *Orchestrator {
	return &Orchestrator{store: store, preprint: preprintEnricher, abstracts: abstracts, oa: oa, metadata: metadata, cfg: cfg}
}

// RunResult summarizes one multi-pass invocation.
type RunResult struct {
	Passes          int
	RecordsEnriched int
	RecordsCreated  int
}

// Run executes the outer multi-pass loop described in spec §4.6.
func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	if o.cfg.MaxPasses <= 0 {
		return RunResult{}, ErrFatalConfig
	}

	var result RunResult
	for pass := 1; pass <= o.cfg.MaxPasses; pass++ {
		batch, err := o.store.GetRecordsNeedingEnrichment()
		if err != nil {
			return result, fmt.Errorf("loading records needing enrichment: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		enriched, created, err := o.enrichBatch(ctx, batch)
		result.Passes = pass
		result.RecordsEnriched += enriched
		result.RecordsCreated += created
		if err != nil {
			return result, err
		}
		if pass > 1 && created == 0 {
			break
		}
	}
	return result, nil
}

// enrichBatch processes one pass with per-record concurrency capped by
// errgroup.SetLimit; newlyCreated counts preprint-discovered published
// records (which re-enter the work list on the next pass).
func (o *Orchestrator) enrichBatch(ctx context.Context, batch []*domain.ResearchArticle) (enrichedCount, newlyCreated int, err error) {
	var (
		mu      sync.Mutex
		g       errgroup.Group
	)
	limit := o.cfg.MaxConcurrent
	if limit <= 0 {
		limit = 5
	}
	g.SetLimit(limit)

	for _, record := range batch {
		record := record
		g.Go(func() error {
			created, enrichErr := o.enrichOne(ctx, record)
			mu.Lock()
			newlyCreated += created
			if enrichErr == nil {
				enrichedCount++
			}
			mu.Unlock()
			if enrichErr != nil {
				log.Printf("orchestrator: record %d enrichment error: %v", record.ID, enrichErr)
			}
			return nil
		})
	}
	if waitErr := g.Wait(); waitErr != nil {
		return enrichedCount, newlyCreated, waitErr
	}
	return enrichedCount, newlyCreated, nil
}

// enrichOne runs the ordered preprint -> abstract -> OA -> merge ->
// timestamp sequence for one record (spec §5 "ordering guarantee").
// Any single adapter failure is recorded in provenance and does not
// abort the record.
func (o *Orchestrator) enrichOne(ctx context.Context, a *domain.ResearchArticle) (created int, err error) {
	prov, parseErr := domain.ParseProvenance(a.Provenance)
	if parseErr != nil {
		prov = make(domain.Provenance)
	}

	touched := false

	if o.preprint != nil {
		if platform, ok := preprint.DetectPlatform(a); ok {
			a.IsPreprint = true
			a.PreprintPlatform = platform
			touched = true
		}
		fetch, preErr := o.preprint.EnrichOne(ctx, a)
		if preErr != nil {
			prov["preprint_error"] = domain.SourceProvenance{Source: "preprint", Error: preErr.Error(), Timestamp: time.Now()}
		} else if fetch != nil {
			mergeMetadata(a, fetch)
			prov[a.PreprintPlatform] = fetch.Provenance
			touched = true
			if fetch.PublishedDOI != "" {
				created = 1
			}
		}
	}

	for _, fetcher := range o.metadata {
		fetch, mErr := fetcher.FetchMetadata(ctx, a)
		if fetch != nil {
			prov[fetcher.Name()] = fetch.Provenance
		}
		if mErr != nil {
			continue
		}
		if fetch != nil {
			mergeMetadata(a, fetch)
			touched = true
		}
	}

	if a.Abstract == "" && o.abstracts != nil {
		outcome := o.abstracts.Run(ctx, a)
		for src, p := range outcome.Provenance {
			prov[src] = p
		}
		if outcome.Abstract != "" {
			a.Abstract = outcome.Abstract
			a.AbstractSource = outcome.AbstractSource
			touched = true
		} else {
			a.AbstractNoRetrievalReason = outcome.AbstractNoRetrievalReason
		}
	}

	if o.oa != nil {
		fetch, oaErr := o.oa.Enrich(ctx, a)
		if oaErr != nil {
			prov["unpaywall_error"] = domain.SourceProvenance{Source: "unpaywall", Error: oaErr.Error(), Timestamp: time.Now()}
		} else if fetch != nil {
			prov["unpaywall"] = fetch.Provenance
			mergeMetadata(a, fetch)
			touched = true
		}
	}

	merged, marshalErr := prov.Marshal()
	if marshalErr == nil {
		a.Provenance = merged
	}

	if touched || !o.cfg.RetryEmptyRecords {
		now := time.Now()
		a.EnrichmentDatetime = &now
	}

	if err := o.store.UpdateEnrichment(a); err != nil {
		return created, fmt.Errorf("persisting enrichment for record %d: %w", a.ID, err)
	}
	return created, nil
}

// mergeMetadata copies non-zero fields from fetch onto a, never
// overwriting an already-populated field with a zero value (spec §4.4).
func mergeMetadata(a *domain.ResearchArticle, fetch *sources.MetadataFetch) {
	if fetch.Title != "" && a.Title == "" {
		a.Title = fetch.Title
	}
	if fetch.PublicationDate != nil && a.PublicationDate == nil {
		a.PublicationDate = fetch.PublicationDate
	}
	if fetch.TotalCitations > a.TotalCitations {
		a.TotalCitations = fetch.TotalCitations
	}
	if fetch.CitationsPerYear > 0 && a.CitationsPerYear == 0 {
		a.CitationsPerYear = fetch.CitationsPerYear
	}
	if fetch.Authors != "" && a.Authors == "" {
		a.Authors = fetch.Authors
	}
	if fetch.SourceTitle != "" && a.SourceTitle == "" {
		a.SourceTitle = fetch.SourceTitle
	}
	if fetch.ArxivID != "" && a.ArxivID == "" {
		a.ArxivID = fetch.ArxivID
	}
	if fetch.OAStatus != "" && a.OAStatus == "" {
		a.OAStatus = fetch.OAStatus
	}
	if fetch.License != "" && a.License == "" {
		a.License = fetch.License
	}
	if fetch.OAPdfURL != "" && a.OAPdfURL == "" {
		a.OAPdfURL = fetch.OAPdfURL
	}
	if fetch.RepositoryPDFURL != "" && a.ManualURLRepository == "" {
		a.ManualURLRepository = fetch.RepositoryPDFURL
	}
}
