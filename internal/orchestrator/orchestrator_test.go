package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/sources"
)

type fakeOrchStore struct {
	mu      sync.Mutex
	batches [][]*domain.ResearchArticle
	updated []*domain.ResearchArticle
}

func (f *fakeOrchStore) GetRecordsNeedingEnrichment() ([]*domain.ResearchArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func (f *fakeOrchStore) UpdateEnrichment(a *domain.ResearchArticle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, a)
	return nil
}

func TestRunRejectsNonPositiveMaxPasses(t *testing.T) {
	o := New(&fakeOrchStore{}, nil, nil, nil, nil, Config{MaxPasses: 0})
	if _, err := o.Run(context.Background()); err != ErrFatalConfig {
		t.Errorf("Run() error = %v, want ErrFatalConfig", err)
	}
}

func TestRunStopsWhenNoRecordsNeedEnrichment(t *testing.T) {
	st := &fakeOrchStore{}
	o := New(st, nil, nil, nil, nil, Config{MaxPasses: 3, MaxConcurrent: 2})

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Passes != 0 {
		t.Errorf("Passes = %d, want 0", result.Passes)
	}
}

func TestRunStopsAfterSecondPassWithNoNewRecords(t *testing.T) {
	st := &fakeOrchStore{batches: [][]*domain.ResearchArticle{
		{{ID: 1}, {ID: 2}},
		{{ID: 3}},
	}}
	o := New(st, nil, nil, nil, nil, Config{MaxPasses: 5, MaxConcurrent: 2})

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Passes != 2 {
		t.Errorf("Passes = %d, want 2 (break after a pass creates nothing new)", result.Passes)
	}
	if result.RecordsEnriched != 3 {
		t.Errorf("RecordsEnriched = %d, want 3", result.RecordsEnriched)
	}
	if len(st.updated) != 3 {
		t.Errorf("records persisted = %d, want 3", len(st.updated))
	}
}

func TestMergeMetadataNeverOverwritesPopulatedFields(t *testing.T) {
	a := &domain.ResearchArticle{Title: "Existing Title", TotalCitations: 10}
	fetch := &sources.MetadataFetch{Title: "New Title", TotalCitations: 3}

	mergeMetadata(a, fetch)

	if a.Title != "Existing Title" {
		t.Errorf("Title = %q, want unchanged %q", a.Title, "Existing Title")
	}
	if a.TotalCitations != 10 {
		t.Errorf("TotalCitations = %d, want unchanged 10 (only a higher count should ever overwrite)", a.TotalCitations)
	}
}

func TestMergeMetadataFillsZeroValueFields(t *testing.T) {
	a := &domain.ResearchArticle{}
	fetch := &sources.MetadataFetch{
		Title:            "A Title",
		Authors:          "Jane Doe",
		OAStatus:         "gold",
		RepositoryPDFURL: "https://arxiv.org/pdf/1234.pdf",
	}

	mergeMetadata(a, fetch)

	if a.Title != "A Title" || a.Authors != "Jane Doe" || a.OAStatus != "gold" {
		t.Errorf("mergeMetadata() did not fill zero-value fields: %+v", a)
	}
	if a.ManualURLRepository != "https://arxiv.org/pdf/1234.pdf" {
		t.Errorf("ManualURLRepository = %q, want the fetch's RepositoryPDFURL", a.ManualURLRepository)
	}
}

func TestMergeMetadataTakesHigherCitationCount(t *testing.T) {
	a := &domain.ResearchArticle{TotalCitations: 5}
	mergeMetadata(a, &sources.MetadataFetch{TotalCitations: 20})

	if a.TotalCitations != 20 {
		t.Errorf("TotalCitations = %d, want 20 (a higher count from another source should win)", a.TotalCitations)
	}
}
