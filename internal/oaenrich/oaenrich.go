// Package oaenrich wraps Unpaywall as the dedicated open-access status
// source (spec §4.6): it is consulted for every record regardless of
// preprint/published status, separately from the metadata-fetcher chain
// that supplies citations and authorship.
package oaenrich

import (
	"context"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/sources"
)

type Enricher struct {
	unpaywall sources.MetadataFetcher
}

func New(unpaywall sources.MetadataFetcher) *Enricher {
	return &Enricher{unpaywall: unpaywall}
}

// Enrich fetches oa_status/license/oa_pdf_url for one record. A nil
// fetch with no error means Unpaywall had no record for this DOI —
// callers leave the record's OA fields untouched in that case.
func (e *Enricher) Enrich(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil
	}
	return e.unpaywall.FetchMetadata(ctx, a)
}
