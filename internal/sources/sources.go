// Package sources defines the narrow result shapes and adapter interfaces
// shared by every per-API package under internal/sources/*. Each concrete
// adapter (crossref, unpaywall, openalex, europepmc, pubmed,
// semanticscholar, arxiv, biorxiv, preprints) implements one or both
// interfaces here, normalizing its source-specific response shape into
// these common partial-record shapes (spec §4.4).
package sources

import (
	"context"
	"time"

	"github.com/paper-app/curator/internal/domain"
)

// MetadataFetch is the partial-record result of a metadata lookup.
// Zero-valued fields mean "this source had nothing to say about it" —
// callers merge non-zero fields onto the record, they never overwrite
// with zero values.
type MetadataFetch struct {
	Title            string
	PublicationDate  *time.Time
	TotalCitations   int
	CitationsPerYear float64
	Authors          string
	SourceTitle      string
	ArxivID          string
	DOINorm          string
	OAStatus         string
	License          string
	OAPdfURL         string
	RepositoryPDFURL string
	// PublishedDOI is only populated by preprint-platform adapters that
	// discovered the final published version of a preprint (spec §4.5).
	PublishedDOI string
	Provenance   domain.SourceProvenance
}

// AbstractFetch is the result of an abstract lookup. Reason is set when
// Abstract is empty and explains why, for composition into
// abstract_no_retrieval_reason (spec §4.4).
type AbstractFetch struct {
	Abstract   string
	Reason     string
	Provenance domain.SourceProvenance
}

// MetadataFetcher is implemented by adapters that can enrich bibliographic
// fields for a record (spec §4.4).
type MetadataFetcher interface {
	Name() string
	FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*MetadataFetch, error)
}

// AbstractFetcher is implemented by adapters that participate in the
// AbstractPipeline fallback chain (spec §4.4).
type AbstractFetcher interface {
	Name() string
	FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*AbstractFetch, error)
}

// NewProvenance builds a SourceProvenance entry for a successful or failed
// call, timestamped now.
func NewProvenance(source, url string, raw []byte, errMsg string) domain.SourceProvenance {
	return domain.SourceProvenance{
		Source:    source,
		URL:       url,
		Timestamp: time.Now(),
		Raw:       raw,
		Error:     errMsg,
	}
}
