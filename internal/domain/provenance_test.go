package domain

import "testing"

func TestProvenanceMarshalParseRoundTrip(t *testing.T) {
	p := Provenance{
		"arxiv": SourceProvenance{Source: "arxiv", URL: "https://arxiv.org/abs/1234.5678"},
	}

	serialized, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	parsed, err := ParseProvenance(serialized)
	if err != nil {
		t.Fatalf("ParseProvenance() error = %v", err)
	}
	if parsed["arxiv"].URL != p["arxiv"].URL {
		t.Errorf("round-tripped URL = %q, want %q", parsed["arxiv"].URL, p["arxiv"].URL)
	}
}

func TestProvenanceMarshalEmpty(t *testing.T) {
	p := Provenance{}
	serialized, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if serialized != "" {
		t.Errorf("Marshal() of empty provenance = %q, want empty string", serialized)
	}
}

func TestParseProvenanceEmptyStringYieldsEmptyMap(t *testing.T) {
	p, err := ParseProvenance("")
	if err != nil {
		t.Fatalf("ParseProvenance() error = %v", err)
	}
	if p == nil {
		t.Fatal("ParseProvenance(\"\") returned nil map")
	}
	p["new-source"] = SourceProvenance{Source: "new-source"}
	if len(p) != 1 {
		t.Errorf("merging into parsed map: len = %d, want 1", len(p))
	}
}

func TestProvenanceMergeOverwritesSameSource(t *testing.T) {
	p := Provenance{"openalex": SourceProvenance{Source: "openalex", URL: "https://old"}}
	p.Merge(Provenance{"openalex": SourceProvenance{Source: "openalex", URL: "https://new"}})

	if p["openalex"].URL != "https://new" {
		t.Errorf("Merge() URL = %q, want %q", p["openalex"].URL, "https://new")
	}
}
