package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/store"
)

// Store is the narrow persistence surface the ingest runner needs.
type Store interface {
	UpsertRecord(a *domain.ResearchArticle) (store.UpsertResult, error)
}

// Summary reports the outcome of one ingest run (spec §7's
// {total, succeeded, failed, skipped, warnings} shape).
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Run consumes every row from source and upserts it into the store,
// skipping rows whose DOI already exists and continuing past individual
// row failures.
func Run(ctx context.Context, source domain.RowSource, store Store) (Summary, error) {
	rows, err := source.Rows(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("opening row source: %w", err)
	}

	var summary Summary
	for row := range rows {
		summary.Total++
		article, convErr := toArticle(row)
		if convErr != nil {
			summary.Failed++
			continue
		}
		result, upsertErr := store.UpsertRecord(article)
		if upsertErr != nil {
			summary.Failed++
			continue
		}
		if result.Skipped {
			summary.Skipped++
			continue
		}
		summary.Succeeded++
	}
	return summary, nil
}

func toArticle(row domain.IngestRow) (*domain.ResearchArticle, error) {
	a := &domain.ResearchArticle{
		Title:   row.Title,
		Authors: row.Authors,
		SourceTitle: row.SourceTitle,
	}

	if row.DOI != "" {
		norm := normalizeDOI(row.DOI)
		a.DOINorm = &norm
	}
	if row.TotalCitations != nil {
		a.TotalCitations = *row.TotalCitations
	}
	if row.AveragePerYear != nil {
		a.CitationsPerYear = *row.AveragePerYear
	}
	if row.PublicationDate != "" {
		t, err := ParsePublicationDate(row.PublicationDate)
		if err != nil {
			return nil, err
		}
		a.PublicationDate = t
	}
	return a, nil
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}
