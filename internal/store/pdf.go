package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/paper-app/curator/internal/domain"
)

// InsertPDFResolution records one snapshot of candidates considered for a
// record within a (possibly absent) filtering context (spec §3/§4.8).
func (s *Store) InsertPDFResolution(r *domain.PDFResolution) (int64, error) {
	candidatesJSON, err := json.Marshal(r.Candidates)
	if err != nil {
		return 0, fmt.Errorf("marshaling candidates: %w", err)
	}

	var id int64
	err = s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO pdf_resolutions (record_id, filtering_query_id, timestamp, candidates)
			VALUES (?, ?, ?, ?)`,
			r.RecordID, nullInt64(r.FilteringQueryID), formatTime(r.Timestamp), string(candidatesJSON))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// RecordPDFDownloadAttempt inserts one PDFDownload row — always, per spec
// §4.9 ("Always return a status dictionary; never raise to the caller"):
// the downloader calls this once per candidate attempt, including every
// failure that precedes an eventual success, and once with
// status=no_candidates when the candidate list was empty.
func (s *Store) RecordPDFDownloadAttempt(d *domain.PDFDownload) (int64, error) {
	var id int64
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO pdf_downloads (
				record_id, filtering_query_id, timestamp, url, source, status,
				pdf_local_path, sha1, final_url, error_message, file_size_bytes
			) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			d.RecordID, nullInt64(d.FilteringQueryID), formatTime(d.Timestamp), d.URL, d.Source, d.Status,
			d.LocalPath, d.SHA1, d.FinalURL, d.ErrorMessage, nullFileSize(d.Status, d.FileSizeBytes),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// nullFileSize stores NULL rather than 0 for statuses that never wrote
// bytes, keeping the spec §8 invariant ("status=downloaded => ... non-null")
// meaningful — a 0-byte file_size_bytes would otherwise be ambiguous with
// "not applicable".
func nullFileSize(status string, size int64) interface{} {
	if status != domain.DownloadStatusDownloaded {
		return nil
	}
	return size
}

// GetPDFDownloadStats returns a {status: count} map, optionally scoped to
// one filtering query (spec §4.1).
func (s *Store) GetPDFDownloadStats(filteringQueryID *int64) (map[string]int, error) {
	var rows *sql.Rows
	var err error
	if filteringQueryID != nil {
		rows, err = s.db.Query(`SELECT status, COUNT(*) FROM pdf_downloads WHERE filtering_query_id = ? GROUP BY status`, *filteringQueryID)
	} else {
		rows, err = s.db.Query(`SELECT status, COUNT(*) FROM pdf_downloads GROUP BY status`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

// FindDownloadBySHA1 looks up the most recent downloaded PDFDownload row
// for a given sha1. The PDF downloader does not call it.
func (s *Store) FindDownloadBySHA1(sha1 string) (*domain.PDFDownload, error) {
	row := s.db.QueryRow(`
		SELECT id, record_id, filtering_query_id, timestamp, url, source, status,
			pdf_local_path, sha1, final_url, error_message, file_size_bytes
		FROM pdf_downloads WHERE sha1 = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		sha1, domain.DownloadStatusDownloaded)
	return scanPDFDownload(row)
}

func scanPDFDownload(row *sql.Row) (*domain.PDFDownload, error) {
	var (
		d                domain.PDFDownload
		filteringQueryID sql.NullInt64
		timestamp        string
		fileSizeBytes    sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.RecordID, &filteringQueryID, &timestamp, &d.URL, &d.Source, &d.Status,
		&d.LocalPath, &d.SHA1, &d.FinalURL, &d.ErrorMessage, &fileSizeBytes)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if filteringQueryID.Valid {
		v := filteringQueryID.Int64
		d.FilteringQueryID = &v
	}
	t, err := parseTime(timestamp)
	if err != nil {
		return nil, err
	}
	d.Timestamp = t
	if fileSizeBytes.Valid {
		d.FileSizeBytes = fileSizeBytes.Int64
	}
	return &d, nil
}
