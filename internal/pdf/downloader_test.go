package pdf

import (
	"context"
	"testing"

	"github.com/paper-app/curator/internal/domain"
)

type fakeDownloaderStore struct {
	recorded []*domain.PDFDownload
}

func (f *fakeDownloaderStore) RecordPDFDownloadAttempt(d *domain.PDFDownload) (int64, error) {
	f.recorded = append(f.recorded, d)
	return int64(len(f.recorded)), nil
}

func TestDestPathUnsharded(t *testing.T) {
	d := NewDownloader(nil, nil, nil, "/data/pdfs", false, 0)
	got := d.destPath("abcdef0123456789")
	want := "/data/pdfs/abcdef0123456789.pdf"
	if got != want {
		t.Errorf("destPath() = %q, want %q", got, want)
	}
}

func TestDestPathSharded(t *testing.T) {
	d := NewDownloader(nil, nil, nil, "/data/pdfs", true, 0)
	got := d.destPath("abcdef0123456789")
	want := "/data/pdfs/ab/cd/abcdef0123456789.pdf"
	if got != want {
		t.Errorf("destPath() = %q, want %q", got, want)
	}
}

func TestManuscriptLandingURLStripsPDFSuffix(t *testing.T) {
	got := manuscriptLandingURL("https://www.preprints.org/manuscript/202101.0001/v1.pdf")
	want := "https://www.preprints.org/manuscript/202101.0001/v1"
	if got != want {
		t.Errorf("manuscriptLandingURL() = %q, want %q", got, want)
	}
}

func TestManuscriptLandingURLInvalidURLReturnsInput(t *testing.T) {
	got := manuscriptLandingURL(":not a url")
	if got != ":not a url" {
		t.Errorf("manuscriptLandingURL() = %q, want input unchanged", got)
	}
}

func TestDownloadAllEmptyCandidatesRecordsNoCandidates(t *testing.T) {
	st := &fakeDownloaderStore{}
	d := NewDownloader(nil, nil, st, "/data/pdfs", false, 0)

	result, err := d.DownloadAll(context.Background(), 1, nil, nil)
	if err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}
	if result.Status != domain.DownloadStatusNoCandidates {
		t.Errorf("Status = %q, want %q", result.Status, domain.DownloadStatusNoCandidates)
	}
	if len(st.recorded) != 1 {
		t.Fatalf("len(recorded) = %d, want 1", len(st.recorded))
	}
}

func TestAttemptRejectsEmptyCandidateURL(t *testing.T) {
	d := NewDownloader(nil, nil, nil, "/data/pdfs", false, 0)
	result := d.attempt(context.Background(), 1, nil, domain.PDFCandidate{Source: "arxiv", URL: ""})
	if result.Status != domain.DownloadStatusUnavailable {
		t.Errorf("Status = %q, want %q", result.Status, domain.DownloadStatusUnavailable)
	}
}

func TestAttemptRejectsURLWithoutScheme(t *testing.T) {
	d := NewDownloader(nil, nil, nil, "/data/pdfs", false, 0)
	result := d.attempt(context.Background(), 1, nil, domain.PDFCandidate{Source: "arxiv", URL: "example.com/file.pdf"})
	if result.Status != domain.DownloadStatusUnavailable {
		t.Errorf("Status = %q, want %q", result.Status, domain.DownloadStatusUnavailable)
	}
}
