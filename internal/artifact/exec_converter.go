package artifact

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// ExternalConverter implements domain.DocxConverter by shelling out to
// an external DOCX->Markdown converter binary. No pack library wraps
// external-process invocation for a document converter, so os/exec is
// the justified stdlib boundary here.
type ExternalConverter struct {
	binaryPath string
}

func NewExternalConverter(binaryPath string) *ExternalConverter {
	return &ExternalConverter{binaryPath: binaryPath}
}

// Convert runs `<binary> --input <docxPath> --output-dir <staging>
// [--extract-images]` into a uuid-suffixed staging directory, then
// publishes it into outDir with a single rename so a reader never
// observes a partially-written markdown file.
func (c *ExternalConverter) Convert(ctx context.Context, docxPath, outDir string, extractImages bool) (string, error) {
	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("creating output parent directory: %w", err)
	}

	staging := outDir + ".tmp-" + uuid.New().String()
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	args := []string{"--input", docxPath, "--output-dir", staging}
	if extractImages {
		args = append(args, "--extract-images")
	}

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("docx converter failed: %w (%s)", err, string(output))
	}

	if err := os.RemoveAll(outDir); err != nil {
		return "", fmt.Errorf("clearing previous output directory: %w", err)
	}
	if err := os.Rename(staging, outDir); err != nil {
		return "", fmt.Errorf("publishing converted output: %w", err)
	}

	base := filepath.Base(docxPath)
	name := base[:len(base)-len(filepath.Ext(base))] + ".md"
	return filepath.Join(outDir, name), nil
}
