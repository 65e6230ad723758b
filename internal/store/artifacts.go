package store

import (
	"database/sql"
	"fmt"

	"github.com/paper-app/curator/internal/domain"
)

// InsertDocxVersion records a located DOCX artifact for a record.
func (s *Store) InsertDocxVersion(d *domain.DocxVersion) (int64, error) {
	var id int64
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO docx_versions (record_id, local_path, retrieved_at, file_size_bytes, error_message)
			VALUES (?, ?, ?, ?, ?)`,
			d.RecordID, d.LocalPath, formatTime(d.RetrievedAt), nullPositive(d.FileSizeBytes), d.ErrorMessage)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// InsertMarkdownVersion records one conversion outcome. Exactly one of
// DocxVersionID/HTMLVersionID must be set and must agree with SourceType
// (spec §3's CHECK constraint, enforced at the application layer here
// since CHECK constraints are only wired at table-creation time — spec
// §4.1).
func (s *Store) InsertMarkdownVersion(m *domain.MarkdownVersion) (int64, error) {
	if err := validateMarkdownVersion(m); err != nil {
		return 0, err
	}

	var id int64
	err := s.withWriteTx(func(tx *sql.Tx) error {
		var fileSize interface{}
		if m.FileSizeBytes != nil {
			fileSize = *m.FileSizeBytes
		}
		res, err := tx.Exec(`
			INSERT INTO markdown_versions (
				record_id, source_type, docx_version_id, html_version_id, variant,
				local_path, created_at, file_size_bytes, error_message
			) VALUES (?,?,?,?,?,?,?,?,?)`,
			m.RecordID, m.SourceType, nullInt64(m.DocxVersionID), nullInt64(m.HTMLVersionID), m.Variant,
			m.LocalPath, formatTime(m.CreatedAt), fileSize, m.ErrorMessage,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func validateMarkdownVersion(m *domain.MarkdownVersion) error {
	switch m.SourceType {
	case domain.MarkdownSourceDocx:
		if m.DocxVersionID == nil || m.HTMLVersionID != nil {
			return fmt.Errorf("store: markdown_versions source_type=docx requires docx_version_id set and html_version_id nil")
		}
	case domain.MarkdownSourceHTML:
		if m.HTMLVersionID == nil || m.DocxVersionID != nil {
			return fmt.Errorf("store: markdown_versions source_type=html requires html_version_id set and docx_version_id nil")
		}
	default:
		return fmt.Errorf("store: markdown_versions unknown source_type %q", m.SourceType)
	}
	return nil
}

func nullPositive(size int64) interface{} {
	if size <= 0 {
		return nil
	}
	return size
}

// GetDocxVersionsByRecord returns every located DOCX artifact for a
// record, most recent first.
func (s *Store) GetDocxVersionsByRecord(recordID int64) ([]*domain.DocxVersion, error) {
	rows, err := s.db.Query(`
		SELECT id, record_id, local_path, retrieved_at, file_size_bytes, error_message
		FROM docx_versions WHERE record_id = ? ORDER BY id DESC`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.DocxVersion
	for rows.Next() {
		var (
			d             domain.DocxVersion
			retrievedAt   string
			fileSizeBytes sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.RecordID, &d.LocalPath, &retrievedAt, &fileSizeBytes, &d.ErrorMessage); err != nil {
			return nil, err
		}
		t, err := parseTime(retrievedAt)
		if err != nil {
			return nil, err
		}
		d.RetrievedAt = t
		if fileSizeBytes.Valid {
			d.FileSizeBytes = fileSizeBytes.Int64
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
