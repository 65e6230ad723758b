package preprint

import (
	"context"
	"testing"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/sources"
	"github.com/paper-app/curator/internal/store"
)

func strPtr(s string) *string { return &s }

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		name         string
		article      *domain.ResearchArticle
		wantPlatform string
		wantOK       bool
	}{
		{
			name:         "bare arxiv id",
			article:      &domain.ResearchArticle{ArxivID: "2301.00001"},
			wantPlatform: PlatformArxiv,
			wantOK:       true,
		},
		{
			name:         "arxiv-minted DOI",
			article:      &domain.ResearchArticle{DOINorm: strPtr("10.48550/arxiv.2301.00001")},
			wantPlatform: PlatformArxiv,
			wantOK:       true,
		},
		{
			name:         "biorxiv/medrxiv prefix",
			article:      &domain.ResearchArticle{DOINorm: strPtr("10.1101/2021.01.01.000001")},
			wantPlatform: PlatformBioRxiv,
			wantOK:       true,
		},
		{
			name:         "preprints.org prefix",
			article:      &domain.ResearchArticle{DOINorm: strPtr("10.20944/preprints202101.0001.v1")},
			wantPlatform: PlatformPreprintsOrg,
			wantOK:       true,
		},
		{
			name:    "ordinary published DOI is not a preprint",
			article: &domain.ResearchArticle{DOINorm: strPtr("10.1038/s41586-021-00001-0")},
			wantOK:  false,
		},
		{
			name:    "no DOI, no arxiv id",
			article: &domain.ResearchArticle{},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, ok := DetectPlatform(tt.article)
			if ok != tt.wantOK {
				t.Fatalf("DetectPlatform() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && platform != tt.wantPlatform {
				t.Errorf("DetectPlatform() platform = %q, want %q", platform, tt.wantPlatform)
			}
		})
	}
}

func TestDetectPlatformSetsArxivIDFromDOI(t *testing.T) {
	a := &domain.ResearchArticle{DOINorm: strPtr("10.48550/arxiv.1706.03762")}
	if _, ok := DetectPlatform(a); !ok {
		t.Fatal("DetectPlatform() = false, want true")
	}
	if a.ArxivID != "1706.03762" {
		t.Errorf("ArxivID = %q, want %q", a.ArxivID, "1706.03762")
	}
}

type fakeMetadataFetcher struct {
	name  string
	fetch *sources.MetadataFetch
	err   error
}

func (f *fakeMetadataFetcher) Name() string { return f.name }
func (f *fakeMetadataFetcher) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	return f.fetch, f.err
}

type fakePreprintStore struct {
	byDOI      map[string]*domain.ResearchArticle
	created    map[string]int64
	nextID     int64
	links      [][3]interface{}
}

func (f *fakePreprintStore) GetByDOI(doiNorm string) (*domain.ResearchArticle, error) {
	if a, ok := f.byDOI[doiNorm]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakePreprintStore) CreateDiscoveredRecord(doiNorm, title string) (int64, error) {
	f.nextID++
	if f.created == nil {
		f.created = make(map[string]int64)
	}
	f.created[doiNorm] = f.nextID
	return f.nextID, nil
}

func (f *fakePreprintStore) InsertArticleVersionLink(preprintID, publishedID int64, discoverySource string) error {
	f.links = append(f.links, [3]interface{}{preprintID, publishedID, discoverySource})
	return nil
}

func TestEnrichOneLinksDiscoveredPublishedVersion(t *testing.T) {
	fetcher := &fakeMetadataFetcher{
		name: "arxiv",
		fetch: &sources.MetadataFetch{
			Title:        "Attention Is All You Need",
			PublishedDOI: "10.1234/published",
		},
	}
	st := &fakePreprintStore{}
	e := New(st, map[string]sources.MetadataFetcher{PlatformArxiv: fetcher})

	preprintArticle := &domain.ResearchArticle{ID: 1, ArxivID: "1706.03762"}
	fetch, err := e.EnrichOne(context.Background(), preprintArticle)
	if err != nil {
		t.Fatalf("EnrichOne() error = %v", err)
	}
	if fetch.PublishedDOI != "10.1234/published" {
		t.Fatalf("PublishedDOI = %q, want %q", fetch.PublishedDOI, "10.1234/published")
	}
	if len(st.links) != 1 {
		t.Fatalf("links recorded = %d, want 1", len(st.links))
	}
	if st.links[0][0] != int64(1) {
		t.Errorf("link preprintID = %v, want 1", st.links[0][0])
	}
}

func TestEnrichOneSkipsLinkingWhenPublishedIsSameRecord(t *testing.T) {
	fetcher := &fakeMetadataFetcher{
		name: "arxiv",
		fetch: &sources.MetadataFetch{
			Title:        "Self Citing",
			PublishedDOI: "10.1234/self",
		},
	}
	st := &fakePreprintStore{byDOI: map[string]*domain.ResearchArticle{
		"10.1234/self": {ID: 42},
	}}
	e := New(st, map[string]sources.MetadataFetcher{PlatformArxiv: fetcher})

	a := &domain.ResearchArticle{ID: 42, ArxivID: "2301.00001"}
	if _, err := e.EnrichOne(context.Background(), a); err != nil {
		t.Fatalf("EnrichOne() error = %v", err)
	}
	if len(st.links) != 0 {
		t.Errorf("links recorded = %d, want 0 (self-link must be skipped)", len(st.links))
	}
}

func TestEnrichOneFallsBackToMedRxivFetcher(t *testing.T) {
	medrxiv := &fakeMetadataFetcher{name: "medrxiv", fetch: &sources.MetadataFetch{Title: "A medRxiv preprint"}}
	st := &fakePreprintStore{}
	e := New(st, map[string]sources.MetadataFetcher{PlatformMedRxiv: medrxiv})

	a := &domain.ResearchArticle{ID: 1, DOINorm: strPtr("10.1101/2021.02.02.000002")}
	fetch, err := e.EnrichOne(context.Background(), a)
	if err != nil {
		t.Fatalf("EnrichOne() error = %v", err)
	}
	if fetch.Title != "A medRxiv preprint" {
		t.Errorf("Title = %q, want fetched from medRxiv fallback", fetch.Title)
	}
}

func TestEnrichOneNotAPreprintReturnsNil(t *testing.T) {
	e := New(&fakePreprintStore{}, map[string]sources.MetadataFetcher{})
	a := &domain.ResearchArticle{DOINorm: strPtr("10.1038/s41586-021-00001-0")}
	fetch, err := e.EnrichOne(context.Background(), a)
	if err != nil || fetch != nil {
		t.Errorf("EnrichOne() = (%v, %v), want (nil, nil)", fetch, err)
	}
}
