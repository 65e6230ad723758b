package oaenrich

import (
	"context"
	"testing"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/sources"
)

type fakeFetcher struct {
	fetch   *sources.MetadataFetch
	err     error
	calls   int
}

func (f *fakeFetcher) Name() string { return "unpaywall" }
func (f *fakeFetcher) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	f.calls++
	return f.fetch, f.err
}

func TestEnrichSkipsRecordsWithoutDOI(t *testing.T) {
	fetcher := &fakeFetcher{}
	e := New(fetcher)

	fetch, err := e.Enrich(context.Background(), &domain.ResearchArticle{})
	if err != nil || fetch != nil {
		t.Errorf("Enrich() = (%v, %v), want (nil, nil)", fetch, err)
	}
	if fetcher.calls != 0 {
		t.Errorf("unpaywall called %d times for a record without a DOI, want 0", fetcher.calls)
	}
}

func TestEnrichCallsUnpaywallForDOIRecords(t *testing.T) {
	doi := "10.1234/abcd"
	fetcher := &fakeFetcher{fetch: &sources.MetadataFetch{OAStatus: "gold", OAPdfURL: "https://oa.example/pdf"}}
	e := New(fetcher)

	fetch, err := e.Enrich(context.Background(), &domain.ResearchArticle{DOINorm: &doi})
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if fetch.OAStatus != "gold" {
		t.Errorf("OAStatus = %q, want %q", fetch.OAStatus, "gold")
	}
	if fetcher.calls != 1 {
		t.Errorf("unpaywall called %d times, want 1", fetcher.calls)
	}
}
