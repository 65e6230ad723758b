// Package ingest implements the CSV-backed domain.RowSource and the
// ingest pipeline that maps parsed rows onto research_articles rows via
// Store.UpsertRecord (spec §6's ingest format). encoding/csv is a
// justified stdlib boundary: no third-party CSV/XLSX parser appears
// anywhere in the example corpus.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paper-app/curator/internal/domain"
)

// recognizedColumns maps the external ingest format's header names
// (spec §6) to the IngestRow field they populate.
var recognizedColumns = map[string]string{
	"title":             "Title",
	"publication date":  "PublicationDate",
	"doi":               "DOI",
	"total citations":   "TotalCitations",
	"average per year":  "AveragePerYear",
	"authors":           "Authors",
	"source title":      "SourceTitle",
}

// CSVRowSource implements domain.RowSource over a CSV file on disk.
type CSVRowSource struct {
	path string
}

func NewCSVRowSource(path string) *CSVRowSource {
	return &CSVRowSource{path: path}
}

// Rows implements domain.RowSource. Unknown columns are ignored; missing
// optional columns and empty-string values both map to NULL/zero.
func (s *CSVRowSource) Rows(ctx context.Context) (<-chan domain.IngestRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening ingest csv: %w", err)
	}

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	colIndex := indexColumns(header)

	out := make(chan domain.IngestRow)
	go func() {
		defer f.Close()
		defer close(out)
		for {
			record, err := r.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				return
			}
			row, ok := rowFromRecord(record, colIndex)
			if !ok {
				continue
			}
			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if field, ok := recognizedColumns[key]; ok {
			idx[field] = i
		}
	}
	return idx
}

func rowFromRecord(record []string, colIndex map[string]int) (domain.IngestRow, bool) {
	var row domain.IngestRow

	title := cell(record, colIndex, "Title")
	if title == "" {
		return row, false
	}
	row.Title = title
	row.PublicationDate = cell(record, colIndex, "PublicationDate")
	row.DOI = cell(record, colIndex, "DOI")
	row.Authors = cell(record, colIndex, "Authors")
	row.SourceTitle = cell(record, colIndex, "SourceTitle")

	if v := cell(record, colIndex, "TotalCitations"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			row.TotalCitations = &n
		}
	}
	if v := cell(record, colIndex, "AveragePerYear"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			row.AveragePerYear = &n
		}
	}
	return row, true
}

func cell(record []string, colIndex map[string]int, field string) string {
	i, ok := colIndex[field]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ParsePublicationDate accepts the common date layouts the ingest
// format's "Publication Date" column arrives in.
func ParsePublicationDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized publication date format: %q", s)
}
