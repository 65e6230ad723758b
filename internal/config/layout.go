package config

import "path/filepath"

// Layout resolves the persisted-state paths rooted at DataRoot (spec §6):
// cache/<embedded-db-file>, pdfs/, docx/, markdown/.
type Layout struct {
	Root     string
	CacheDir string
	DBPath   string
	PDFDir   string
	DocxDir  string
	MarkdownDir string
}

func (c *Config) Layout() Layout {
	root := c.DataRoot
	cacheDir := filepath.Join(root, "cache")
	return Layout{
		Root:        root,
		CacheDir:    cacheDir,
		DBPath:      filepath.Join(cacheDir, "curator.db"),
		PDFDir:      filepath.Join(root, "pdfs"),
		DocxDir:     filepath.Join(root, "docx"),
		MarkdownDir: filepath.Join(root, "markdown"),
	}
}
