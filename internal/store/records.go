package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paper-app/curator/internal/domain"
)

// ErrDuplicateDOI names a doi_norm uniqueness conflict. UpsertRecord does
// not return it: it reports a duplicate DOI as UpsertResult.Skipped, the
// "skipped" outcome of spec §4.1/§7, not a fatal error.
var ErrDuplicateDOI = errors.New("store: duplicate doi_norm")

// ErrNotFound is returned by single-row lookups that found nothing.
var ErrNotFound = errors.New("store: not found")

// UpsertResult reports whether a call to UpsertRecord inserted a brand new
// row or was skipped because a row with the same DOI already exists (that
// row, including its import_datetime, is left untouched).
type UpsertResult struct {
	ID      int64
	Created bool
	Skipped bool
}

// UpsertRecord inserts a new ResearchArticle keyed by normalized DOI, or
// leaves the existing row untouched if one already exists for that DOI —
// ingest-time dedup never clobbers import_datetime (spec §4.1). A record
// with no DOI (e.g. some preprints before enrichment) is always inserted
// as new, since there's nothing to dedup against.
func (s *Store) UpsertRecord(a *domain.ResearchArticle) (UpsertResult, error) {
	var result UpsertResult

	err := s.withWriteTx(func(tx *sql.Tx) error {
		if a.DOINorm != nil && *a.DOINorm != "" {
			var existingID int64
			err := tx.QueryRow(`SELECT id FROM research_articles WHERE doi_norm = ?`, *a.DOINorm).Scan(&existingID)
			if err == nil {
				result = UpsertResult{ID: existingID, Skipped: true}
				return nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}

		now := formatTime(a.ImportDatetime)
		res, err := tx.Exec(`
			INSERT INTO research_articles (
				doi_norm, title, publication_date, total_citations, citations_per_year,
				authors, source_title, arxiv_id, is_preprint, preprint_platform,
				abstract, abstract_source, abstract_no_retrieval_reason,
				oa_status, license, oa_pdf_url, manual_url_publisher, manual_url_repository,
				provenance, import_datetime, enrichment_datetime
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			nullString(a.DOINorm), a.Title, formatOptionalDate(a.PublicationDate),
			a.TotalCitations, a.CitationsPerYear, a.Authors, a.SourceTitle, a.ArxivID,
			boolToInt(a.IsPreprint), a.PreprintPlatform,
			a.Abstract, a.AbstractSource, a.AbstractNoRetrievalReason,
			a.OAStatus, a.License, a.OAPdfURL, a.ManualURLPublisher, a.ManualURLRepository,
			a.Provenance, now, formatTimePtr(a.EnrichmentDatetime),
		)
		if err != nil {
			return fmt.Errorf("inserting research_article: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		result = UpsertResult{ID: id, Created: true}
		return nil
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return result, nil
}

// CreateDiscoveredRecord inserts a brand-new ResearchArticle for a
// published version discovered by PreprintEnricher (spec §4.5 step 2):
// enrichment_datetime is always NULL so the record is picked up by the
// next enrichment pass.
func (s *Store) CreateDiscoveredRecord(doiNorm, title string) (int64, error) {
	var id int64
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO research_articles (doi_norm, title, import_datetime, enrichment_datetime)
			VALUES (?, ?, ?, NULL)`,
			doiNorm, title, formatTime(time.Now()))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// GetByID fetches one record by surrogate id.
func (s *Store) GetByID(id int64) (*domain.ResearchArticle, error) {
	row := s.db.QueryRow(selectArticleColumns+` WHERE id = ?`, id)
	return scanArticle(row)
}

// GetByDOI fetches one record by normalized DOI.
func (s *Store) GetByDOI(doiNorm string) (*domain.ResearchArticle, error) {
	row := s.db.QueryRow(selectArticleColumns+` WHERE doi_norm = ?`, doiNorm)
	return scanArticle(row)
}

// GetRecordsNeedingEnrichment returns every record with
// enrichment_datetime IS NULL — the sole work list for the enrichment
// orchestrator's multi-pass loop (spec §4.6: "the database is the
// authoritative work list").
func (s *Store) GetRecordsNeedingEnrichment() ([]*domain.ResearchArticle, error) {
	rows, err := s.db.Query(selectArticleColumns + ` WHERE enrichment_datetime IS NULL ORDER BY id`)
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

// GetEnrichedRecords returns every record that has completed at least one
// enrichment pass (enrichment_datetime IS NOT NULL) — the candidate pool
// FilterExecutor runs over, since an un-enriched record has no abstract
// yet to judge against a query.
func (s *Store) GetEnrichedRecords() ([]*domain.ResearchArticle, error) {
	rows, err := s.db.Query(selectArticleColumns + ` WHERE enrichment_datetime IS NOT NULL ORDER BY id`)
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

// UpdateEnrichment persists the enrichment results for a single record.
// enrichment_datetime is set last in the column list, but since this is a
// single UPDATE statement the ordering guarantee from spec §5 ("the
// enrichment_datetime is set last so a crash leaves the record eligible
// for retry") is about this call being the final write of the whole
// enrichment step, not about column order within it — see orchestrator.
func (s *Store) UpdateEnrichment(a *domain.ResearchArticle) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE research_articles SET
				doi_norm = ?, title = ?, publication_date = ?, total_citations = ?,
				citations_per_year = ?, authors = ?, source_title = ?, arxiv_id = ?,
				is_preprint = ?, preprint_platform = ?, abstract = ?, abstract_source = ?,
				abstract_no_retrieval_reason = ?, oa_status = ?, license = ?, oa_pdf_url = ?,
				manual_url_publisher = ?, manual_url_repository = ?, provenance = ?,
				enrichment_datetime = ?
			WHERE id = ?`,
			nullString(a.DOINorm), a.Title, formatOptionalDate(a.PublicationDate), a.TotalCitations,
			a.CitationsPerYear, a.Authors, a.SourceTitle, a.ArxivID,
			boolToInt(a.IsPreprint), a.PreprintPlatform, a.Abstract, a.AbstractSource,
			a.AbstractNoRetrievalReason, a.OAStatus, a.License, a.OAPdfURL,
			a.ManualURLPublisher, a.ManualURLRepository, a.Provenance,
			formatTimePtr(a.EnrichmentDatetime), a.ID,
		)
		return err
	})
}

// InsertArticleVersionLink records a preprint -> published-version
// relation (spec §3). It is idempotent: if the link already exists, it is
// left untouched (spec §4.5).
func (s *Store) InsertArticleVersionLink(preprintID, publishedID int64, discoverySource string) error {
	if preprintID == publishedID {
		return fmt.Errorf("store: article_versions preprint_id == published_id (%d)", preprintID)
	}
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO article_versions (preprint_id, published_id, discovery_source, link_datetime)
			VALUES (?, ?, ?, ?)`,
			preprintID, publishedID, discoverySource, formatTime(time.Now()))
		return err
	})
}

const selectArticleColumns = `SELECT
	id, doi_norm, title, publication_date, total_citations, citations_per_year,
	authors, source_title, arxiv_id, is_preprint, preprint_platform,
	abstract, abstract_source, abstract_no_retrieval_reason,
	oa_status, license, oa_pdf_url, manual_url_publisher, manual_url_repository,
	provenance, import_datetime, enrichment_datetime
	FROM research_articles`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row *sql.Row) (*domain.ResearchArticle, error) {
	a, err := scanArticleInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func scanArticleRows(rows *sql.Rows) (*domain.ResearchArticle, error) {
	return scanArticleInto(rows)
}

func scanArticleInto(rs rowScanner) (*domain.ResearchArticle, error) {
	var (
		a                domain.ResearchArticle
		doiNorm          sql.NullString
		publicationDate  sql.NullString
		isPreprint       int
		importDatetime   string
		enrichmentDT     sql.NullString
	)

	err := rs.Scan(
		&a.ID, &doiNorm, &a.Title, &publicationDate, &a.TotalCitations, &a.CitationsPerYear,
		&a.Authors, &a.SourceTitle, &a.ArxivID, &isPreprint, &a.PreprintPlatform,
		&a.Abstract, &a.AbstractSource, &a.AbstractNoRetrievalReason,
		&a.OAStatus, &a.License, &a.OAPdfURL, &a.ManualURLPublisher, &a.ManualURLRepository,
		&a.Provenance, &importDatetime, &enrichmentDT,
	)
	if err != nil {
		return nil, err
	}

	if doiNorm.Valid {
		v := doiNorm.String
		a.DOINorm = &v
	}
	a.IsPreprint = isPreprint != 0

	if publicationDate.Valid && publicationDate.String != "" {
		t, perr := time.Parse("2006-01-02", publicationDate.String)
		if perr == nil {
			a.PublicationDate = &t
		}
	}

	imp, err := parseTime(importDatetime)
	if err != nil {
		return nil, fmt.Errorf("parsing import_datetime: %w", err)
	}
	a.ImportDatetime = imp

	enr, err := parseNullTime(enrichmentDT)
	if err != nil {
		return nil, fmt.Errorf("parsing enrichment_datetime: %w", err)
	}
	a.EnrichmentDatetime = enr

	return &a, nil
}

func formatOptionalDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
