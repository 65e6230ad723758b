package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paper-app/curator/internal/domain"
)

type fakeArtifactStore struct {
	docxVersions     []*domain.DocxVersion
	markdownVersions []*domain.MarkdownVersion
}

func (f *fakeArtifactStore) InsertDocxVersion(d *domain.DocxVersion) (int64, error) {
	f.docxVersions = append(f.docxVersions, d)
	return int64(len(f.docxVersions)), nil
}

func (f *fakeArtifactStore) InsertMarkdownVersion(m *domain.MarkdownVersion) (int64, error) {
	f.markdownVersions = append(f.markdownVersions, m)
	return int64(len(f.markdownVersions)), nil
}

type fakeConverter struct {
	failVariant string
	calls       []bool
}

func (f *fakeConverter) Convert(ctx context.Context, docxPath, outDir string, extractImages bool) (string, error) {
	f.calls = append(f.calls, extractImages)
	if (extractImages && f.failVariant == domain.MarkdownVariantWithImages) ||
		(!extractImages && f.failVariant == domain.MarkdownVariantNoImages) {
		return "", os.ErrNotExist
	}
	return filepath.Join(outDir, "out.md"), nil
}

func TestDocxLookupMatchesNormalizedDOISubstring(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "10.1234_abcd.docx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	doi := "10.1234/ABCD"
	st := &fakeArtifactStore{}
	c := New(st, dir, nil)

	v, err := c.DocxLookup(&domain.ResearchArticle{ID: 1, DOINorm: &doi})
	if err != nil {
		t.Fatalf("DocxLookup() error = %v", err)
	}
	if v == nil {
		t.Fatal("DocxLookup() = nil, want a match")
	}
	if v.ID != 1 {
		t.Errorf("ID = %d, want 1", v.ID)
	}
}

func TestDocxLookupNoMatch(t *testing.T) {
	dir := t.TempDir()
	doi := "10.9999/nothing"
	st := &fakeArtifactStore{}
	c := New(st, dir, nil)

	v, err := c.DocxLookup(&domain.ResearchArticle{ID: 1, DOINorm: &doi})
	if err != nil {
		t.Fatalf("DocxLookup() error = %v", err)
	}
	if v != nil {
		t.Errorf("DocxLookup() = %v, want nil", v)
	}
}

func TestDocxLookupNoDOIReturnsNil(t *testing.T) {
	st := &fakeArtifactStore{}
	c := New(st, t.TempDir(), nil)
	v, err := c.DocxLookup(&domain.ResearchArticle{ID: 1})
	if err != nil || v != nil {
		t.Errorf("DocxLookup() = (%v, %v), want (nil, nil)", v, err)
	}
}

func TestDocxToMarkdownRecordsBothVariantsIndependently(t *testing.T) {
	st := &fakeArtifactStore{}
	conv := &fakeConverter{failVariant: domain.MarkdownVariantWithImages}
	c := New(st, t.TempDir(), conv)

	docxVersion := &domain.DocxVersion{ID: 5, RecordID: 10, LocalPath: "/tmp/whatever.docx"}
	results, err := c.DocxToMarkdown(context.Background(), docxVersion, t.TempDir())
	if err != nil {
		t.Fatalf("DocxToMarkdown() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if len(conv.calls) != 2 {
		t.Fatalf("converter called %d times, want 2", len(conv.calls))
	}

	var noImages, withImages *domain.MarkdownVersion
	for _, r := range results {
		if r.Variant == domain.MarkdownVariantNoImages {
			noImages = r
		} else {
			withImages = r
		}
	}
	if noImages == nil || noImages.ErrorMessage != "" {
		t.Errorf("no_images variant should succeed, got %+v", noImages)
	}
	if withImages == nil || withImages.ErrorMessage == "" {
		t.Errorf("with_images variant should fail independently, got %+v", withImages)
	}
}

func TestContentSHA1HashesFileBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.docx")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := ContentSHA1(path)
	if err != nil {
		t.Fatalf("ContentSHA1() error = %v", err)
	}
	want := "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"
	if sum != want {
		t.Errorf("ContentSHA1() = %q, want %q", sum, want)
	}
}
