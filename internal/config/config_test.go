package config

import "testing"

func TestLoadDefaultsToProductionDataRoot(t *testing.T) {
	t.Setenv("APP_MODE", "")
	t.Setenv("DATA_ROOT", "")
	cfg := Load()
	if cfg.Mode != ModeProduction {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeProduction)
	}
	if cfg.DataRoot != "data" {
		t.Errorf("DataRoot = %q, want %q", cfg.DataRoot, "data")
	}
}

func TestLoadTestModeUsesTestDataRoot(t *testing.T) {
	t.Setenv("APP_MODE", "test")
	t.Setenv("DATA_ROOT", "")
	cfg := Load()
	if cfg.Mode != ModeTest {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeTest)
	}
	if cfg.DataRoot != "test_data" {
		t.Errorf("DataRoot = %q, want %q", cfg.DataRoot, "test_data")
	}
}

func TestLoadExplicitDataRootOverridesMode(t *testing.T) {
	t.Setenv("APP_MODE", "test")
	t.Setenv("DATA_ROOT", "/custom/root")
	cfg := Load()
	if cfg.DataRoot != "/custom/root" {
		t.Errorf("DataRoot = %q, want %q", cfg.DataRoot, "/custom/root")
	}
}

func TestLoadRateOverrideFromEnv(t *testing.T) {
	t.Setenv("RATE_ARXIV", "0.5")
	cfg := Load()
	if cfg.Source.CallsPerSecond["arxiv"] != 0.5 {
		t.Errorf("arxiv rate = %v, want 0.5", cfg.Source.CallsPerSecond["arxiv"])
	}
}

func TestLoadInvalidRateOverrideKeepsDefault(t *testing.T) {
	t.Setenv("RATE_CROSSREF", "not-a-number")
	cfg := Load()
	if cfg.Source.CallsPerSecond["crossref"] != 1.0 {
		t.Errorf("crossref rate = %v, want default 1.0", cfg.Source.CallsPerSecond["crossref"])
	}
}

func TestEnvSafeUppercasesAndReplacesHyphens(t *testing.T) {
	if got := envSafe("semantic-scholar"); got != "SEMANTIC_SCHOLAR" {
		t.Errorf("envSafe() = %q, want %q", got, "SEMANTIC_SCHOLAR")
	}
}

func TestLayoutJoinsDataRoot(t *testing.T) {
	cfg := &Config{DataRoot: "/srv/curator"}
	l := cfg.Layout()
	if l.DBPath != "/srv/curator/cache/curator.db" {
		t.Errorf("DBPath = %q", l.DBPath)
	}
	if l.PDFDir != "/srv/curator/pdfs" {
		t.Errorf("PDFDir = %q", l.PDFDir)
	}
	if l.DocxDir != "/srv/curator/docx" {
		t.Errorf("DocxDir = %q", l.DocxDir)
	}
	if l.MarkdownDir != "/srv/curator/markdown" {
		t.Errorf("MarkdownDir = %q", l.MarkdownDir)
	}
}
