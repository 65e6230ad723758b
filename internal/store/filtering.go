package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/paper-app/curator/internal/domain"
)

// CreateFilteringQuery inserts a new FilteringQuery row at the start of a
// filter run (spec §3/§4.7).
func (s *Store) CreateFilteringQuery(q *domain.FilteringQuery) (int64, error) {
	var id int64
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO filtering_queries (query, exclude, model, max_concurrent, started_at)
			VALUES (?, ?, ?, ?, ?)`,
			q.Query, q.Exclude, q.Model, q.MaxConcurrent, formatTime(q.StartedAt))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// FinalizeFilteringQuery writes the final total/matched/failed/warnings
// counts back to the FilteringQuery row (spec §4.7: "written back... once
// at end").
func (s *Store) FinalizeFilteringQuery(id int64, total, matched, failed, warnings int) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE filtering_queries SET total = ?, matched = ?, failed = ?, warnings = ?
			WHERE id = ?`, total, matched, failed, warnings, id)
		return err
	})
}

// BatchInsertFilteringResults inserts one row per (record, filtering
// query) decision in a single transaction (spec §4.7: "all decisions are
// persisted via batch_insert_filtering_results"). Storage is write-once
// per pair — a second attempt to insert the same pair is rejected by the
// UNIQUE(record_id, filtering_query_id) constraint and surfaces as an
// error for that row without aborting the rest of the batch.
func (s *Store) BatchInsertFilteringResults(results []*domain.FilteringResult) error {
	var rowErrs []error
	err := s.withWriteTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO records_filterings (record_id, filtering_query_id, match_result, explanation, decided_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range results {
			if _, err := stmt.Exec(r.RecordID, r.FilteringQueryID, boolToInt(r.MatchResult), r.Explanation, formatTime(r.DecidedAt)); err != nil {
				rowErrs = append(rowErrs, fmt.Errorf("inserting filtering result for record %d: %w", r.RecordID, err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(rowErrs...)
}

// GetMatchedRecordsByFilteringQuery returns records with match_result=1
// whose explanation carries neither the ERROR: nor WARNING: reserved
// prefix (spec §4.1 / §4.7 table) — the set that is exported and feeds
// the PDF stage.
func (s *Store) GetMatchedRecordsByFilteringQuery(queryID int64) ([]*domain.ResearchArticle, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.doi_norm, a.title, a.publication_date, a.total_citations, a.citations_per_year,
			a.authors, a.source_title, a.arxiv_id, a.is_preprint, a.preprint_platform,
			a.abstract, a.abstract_source, a.abstract_no_retrieval_reason,
			a.oa_status, a.license, a.oa_pdf_url, a.manual_url_publisher, a.manual_url_repository,
			a.provenance, a.import_datetime, a.enrichment_datetime
		FROM research_articles a
		JOIN records_filterings rf ON rf.record_id = a.id
		WHERE rf.filtering_query_id = ?
			AND rf.match_result = 1
			AND rf.explanation NOT LIKE 'ERROR:%'
			AND rf.explanation NOT LIKE 'WARNING:%'
		ORDER BY a.id`, queryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ResearchArticle
	for rows.Next() {
		a, err := scanArticleRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FilteringQueryStats mirrors the four counters persisted by
// FinalizeFilteringQuery.
type FilteringQueryStats struct {
	Total, Matched, Failed, Warnings int
}

// ComputeFilteringQueryStats derives the four counters from the persisted
// records_filterings rows directly. The filter executor does not call it
// (it counts its own in-memory results before FinalizeFilteringQuery);
// it gives an independent count from the persisted rows.
func (s *Store) ComputeFilteringQueryStats(queryID int64) (FilteringQueryStats, error) {
	var stats FilteringQueryStats
	row := s.db.QueryRow(`SELECT COUNT(*) FROM records_filterings WHERE filtering_query_id = ?`, queryID)
	if err := row.Scan(&stats.Total); err != nil {
		return stats, err
	}
	row = s.db.QueryRow(`SELECT COUNT(*) FROM records_filterings WHERE filtering_query_id = ? AND match_result = 1`, queryID)
	if err := row.Scan(&stats.Matched); err != nil {
		return stats, err
	}
	row = s.db.QueryRow(`SELECT COUNT(*) FROM records_filterings WHERE filtering_query_id = ? AND explanation LIKE 'ERROR:%'`, queryID)
	if err := row.Scan(&stats.Failed); err != nil {
		return stats, err
	}
	row = s.db.QueryRow(`SELECT COUNT(*) FROM records_filterings WHERE filtering_query_id = ? AND explanation LIKE 'WARNING:%'`, queryID)
	if err := row.Scan(&stats.Warnings); err != nil {
		return stats, err
	}
	return stats, nil
}

// GetFilteringQuery fetches one FilteringQuery by id.
func (s *Store) GetFilteringQuery(id int64) (*domain.FilteringQuery, error) {
	row := s.db.QueryRow(`
		SELECT id, query, exclude, model, max_concurrent, started_at, total, matched, failed, warnings
		FROM filtering_queries WHERE id = ?`, id)

	var q domain.FilteringQuery
	var startedAt string
	err := row.Scan(&q.ID, &q.Query, &q.Exclude, &q.Model, &q.MaxConcurrent, &startedAt, &q.Total, &q.Matched, &q.Failed, &q.Warnings)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t, err := parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	q.StartedAt = t
	return &q, nil
}
