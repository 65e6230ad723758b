package domain

import (
	"encoding/json"
	"time"
)

// SourceProvenance is the per-source structured record of where and when a
// piece of metadata came from, including the raw payload (spec §3 / §9:
// "model as a map from source-tag to a sum type of adapter-specific
// records; serialize with a schema-on-write discipline").
type SourceProvenance struct {
	Source    string          `json:"source"`
	URL       string          `json:"url,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Provenance is the full per-record provenance blob, keyed by source tag.
type Provenance map[string]SourceProvenance

// Marshal serializes the provenance map for storage in the record's
// provenance text column.
func (p Provenance) Marshal() (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseProvenance deserializes a stored provenance blob. An empty string
// yields an empty, non-nil map so callers can merge into it unconditionally.
func ParseProvenance(s string) (Provenance, error) {
	p := Provenance{}
	if s == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Merge folds other's entries into p, overwriting any existing entry for
// the same source — a later pass's provenance supersedes an earlier one.
func (p Provenance) Merge(other Provenance) {
	for k, v := range other {
		p[k] = v
	}
}
