// Package artifact implements ArtifactConverter (spec §4.10):
// DocxLookup locates a DOCX file for a record on disk, DocxToMarkdown
// invokes an external converter twice (no_images / with_images) and
// records one MarkdownVersion row per variant, independently of whether
// the other variant succeeded.
package artifact

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paper-app/curator/internal/domain"
)

// Store is the narrow persistence surface ArtifactConverter needs.
type Store interface {
	InsertDocxVersion(d *domain.DocxVersion) (int64, error)
	InsertMarkdownVersion(m *domain.MarkdownVersion) (int64, error)
}

type Converter struct {
	store     Store
	docxDir   string
	converter domain.DocxConverter
}

func New(store Store, docxDir string, converter domain.DocxConverter) *Converter {
	return &Converter{store: store, docxDir: docxDir, converter: converter}
}

// DocxLookup walks the configured DOCX directory for a .docx file whose
// name contains the record's normalized DOI, compared case-insensitively
// with "/" and ":" replaced by underscores; the first such file wins.
// Files named by content SHA-1 are not matched, and a record without a
// normalized DOI is never matched.
func (c *Converter) DocxLookup(record *domain.ResearchArticle) (*domain.DocxVersion, error) {
	if record.DOINorm == nil || *record.DOINorm == "" {
		return nil, nil
	}
	needle := strings.ToLower(strings.NewReplacer("/", "_", ":", "_").Replace(*record.DOINorm))

	var found string
	err := filepath.WalkDir(c.docxDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".docx") && strings.Contains(strings.ToLower(d.Name()), needle) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking docx directory: %w", err)
	}
	if found == "" {
		return nil, nil
	}

	info, err := os.Stat(found)
	if err != nil {
		return nil, fmt.Errorf("stating located docx %s: %w", found, err)
	}

	docxVersion := &domain.DocxVersion{
		RecordID:      record.ID,
		LocalPath:     found,
		RetrievedAt:   time.Now(),
		FileSizeBytes: info.Size(),
	}
	id, err := c.store.InsertDocxVersion(docxVersion)
	if err != nil {
		return nil, fmt.Errorf("recording docx version: %w", err)
	}
	docxVersion.ID = id
	return docxVersion, nil
}

// DocxToMarkdown converts one located DOCX twice — once per variant —
// persisting a MarkdownVersion row for each attempt regardless of
// whether the other variant succeeded (spec §4.10).
func (c *Converter) DocxToMarkdown(ctx context.Context, docxVersion *domain.DocxVersion, outDir string) ([]*domain.MarkdownVersion, error) {
	variants := []struct {
		name          string
		extractImages bool
	}{
		{domain.MarkdownVariantNoImages, false},
		{domain.MarkdownVariantWithImages, true},
	}

	results := make([]*domain.MarkdownVersion, 0, len(variants))
	for _, v := range variants {
		mv := &domain.MarkdownVersion{
			RecordID:      docxVersion.RecordID,
			SourceType:    domain.MarkdownSourceDocx,
			DocxVersionID: &docxVersion.ID,
			Variant:       v.name,
			CreatedAt:     time.Now(),
		}

		outPath, err := c.converter.Convert(ctx, docxVersion.LocalPath, variantDir(outDir, v.name), v.extractImages)
		if err != nil {
			mv.ErrorMessage = err.Error()
		} else {
			mv.LocalPath = outPath
			if info, statErr := os.Stat(outPath); statErr == nil {
				size := info.Size()
				mv.FileSizeBytes = &size
			}
		}

		id, insertErr := c.store.InsertMarkdownVersion(mv)
		if insertErr != nil {
			return results, fmt.Errorf("recording markdown version (%s): %w", v.name, insertErr)
		}
		mv.ID = id
		results = append(results, mv)
	}
	return results, nil
}

func variantDir(outDir, variant string) string {
	return filepath.Join(outDir, variant)
}

// ContentSHA1 hashes a file's contents, for callers that name DOCX
// artifacts by content hash rather than DOI.
func ContentSHA1(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
