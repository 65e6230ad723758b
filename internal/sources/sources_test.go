package sources

import "testing"

func TestNewProvenanceCarriesSourceURLAndError(t *testing.T) {
	p := NewProvenance("crossref", "https://api.crossref.org/works/10.1/x", []byte(`{"ok":true}`), "")
	if p.Source != "crossref" {
		t.Errorf("Source = %q, want %q", p.Source, "crossref")
	}
	if p.URL != "https://api.crossref.org/works/10.1/x" {
		t.Errorf("URL = %q", p.URL)
	}
	if p.Error != "" {
		t.Errorf("Error = %q, want empty", p.Error)
	}
	if p.Timestamp.IsZero() {
		t.Error("Timestamp should be set to now")
	}
}

func TestNewProvenanceCarriesErrorMessage(t *testing.T) {
	p := NewProvenance("pubmed", "", nil, "request timed out")
	if p.Error != "request timed out" {
		t.Errorf("Error = %q, want %q", p.Error, "request timed out")
	}
}
