// Package preprint implements PreprintEnricher: namespace detection for
// the three preprint platforms the pipeline recognizes (arXiv, bioRxiv/
// medRxiv, Preprints.org) and discovery of each preprint's eventual
// published version (spec §4.5). Discovery is driven purely by the
// research_articles table — enrichment_datetime IS NULL is the work
// list, so a crashed run simply resumes on the next pass with no
// in-memory queue to lose.
package preprint

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/sources"
	"github.com/paper-app/curator/internal/store"
)

const (
	PlatformArxiv       = "arxiv"
	PlatformBioRxiv     = "biorxiv"
	PlatformMedRxiv     = "medrxiv"
	PlatformPreprintsOrg = "preprints.org"
)

var arxivIDPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

// Store is the narrow persistence surface PreprintEnricher needs.
type Store interface {
	GetByDOI(doiNorm string) (*domain.ResearchArticle, error)
	CreateDiscoveredRecord(doiNorm, title string) (int64, error)
	InsertArticleVersionLink(preprintID, publishedID int64, discoverySource string) error
}

// Enricher holds one MetadataFetcher per recognized preprint platform.
type Enricher struct {
	store     Store
	fetchers  map[string]sources.MetadataFetcher
}

func New(store Store, fetchers map[string]sources.MetadataFetcher) *Enricher {
	return &Enricher{store: store, fetchers: fetchers}
}

// DetectPlatform classifies a record as a preprint by arXiv id or DOI
// prefix, per the GLOSSARY's namespace table. A record with neither is
// not a preprint and is left untouched by this package.
func DetectPlatform(a *domain.ResearchArticle) (string, bool) {
	if a.ArxivID != "" {
		return PlatformArxiv, true
	}
	if a.DOINorm == nil {
		return "", false
	}
	doi := strings.ToLower(*a.DOINorm)
	if id, ok := arxivIDFromDOI(doi); ok {
		a.ArxivID = id
		return PlatformArxiv, true
	}
	switch {
	case strings.HasPrefix(doi, "10.1101/"):
		// bioRxiv and medRxiv share the 10.1101 prefix. EnrichOne uses
		// the bioRxiv fetcher for it and falls back to the medRxiv
		// fetcher only when no bioRxiv fetcher is registered.
		return PlatformBioRxiv, true
	case strings.HasPrefix(doi, "10.20944/"):
		return PlatformPreprintsOrg, true
	default:
		return "", false
	}
}

// arxivIDFromDOI recognizes arXiv's own DOI-minting prefix
// (10.48550/arxiv.XXXX), used by sources like OpenAlex/CrossRef that
// report a DOI instead of a bare arXiv id.
func arxivIDFromDOI(doi string) (string, bool) {
	const prefix = "10.48550/arxiv."
	if !strings.HasPrefix(doi, prefix) {
		return "", false
	}
	id := doi[len(prefix):]
	if !arxivIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// EnrichOne resolves one preprint record's published version, if any has
// been discovered since the last pass. It is idempotent: a record whose
// published link already exists is left alone by the caller, which
// should only invoke this for records matching enrichment_datetime IS
// NULL (spec §4.5's crash-safety invariant).
func (e *Enricher) EnrichOne(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	platform, ok := DetectPlatform(a)
	if !ok {
		return nil, nil
	}

	fetcher, ok := e.fetchers[platform]
	if !ok && platform == PlatformBioRxiv {
		// 10.1101 DOIs may belong to either server; fall back to
		// medRxiv's fetcher under the same platform key if bioRxiv's
		// was not registered for this Enricher instance.
		fetcher, ok = e.fetchers[PlatformMedRxiv]
	}
	if !ok {
		return nil, fmt.Errorf("preprint: no fetcher registered for platform %q", platform)
	}

	fetch, err := fetcher.FetchMetadata(ctx, a)
	if err != nil {
		return fetch, err
	}
	if fetch == nil || fetch.PublishedDOI == "" {
		return fetch, nil
	}

	if err := e.linkPublished(a, fetch.PublishedDOI, fetch.Title, platform); err != nil {
		return fetch, err
	}
	return fetch, nil
}

// linkPublished finds or creates the published-version record and links
// it to the preprint via article_versions (spec §3).
func (e *Enricher) linkPublished(preprint *domain.ResearchArticle, publishedDOI, title, discoverySource string) error {
	published, err := e.store.GetByDOI(publishedDOI)
	if err != nil && err != store.ErrNotFound {
		return err
	}
	var publishedID int64
	if published != nil {
		publishedID = published.ID
	} else {
		publishedID, err = e.store.CreateDiscoveredRecord(publishedDOI, title)
		if err != nil {
			return fmt.Errorf("creating discovered published record for %s: %w", publishedDOI, err)
		}
	}
	if publishedID == preprint.ID {
		return nil
	}
	return e.store.InsertArticleVersionLink(preprint.ID, publishedID, discoverySource)
}
