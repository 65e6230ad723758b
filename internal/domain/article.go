// Package domain holds the data model and narrow external-collaborator
// interfaces shared by every component of the curation engine.
package domain

import "time"

// ResearchArticle is the canonical work record. Identity is the surrogate
// integer ID; DOINorm is a unique key when present but may be NULL for
// records still awaiting DOI discovery (e.g. a freshly ingested preprint).
type ResearchArticle struct {
	ID                       int64
	DOINorm                  *string
	Title                    string
	PublicationDate          *time.Time
	TotalCitations           int
	CitationsPerYear         float64
	Authors                  string
	SourceTitle              string
	ArxivID                  string
	IsPreprint               bool
	PreprintPlatform         string
	Abstract                 string
	AbstractSource           string
	AbstractNoRetrievalReason string
	OAStatus                 string
	License                  string
	OAPdfURL                 string
	ManualURLPublisher       string
	ManualURLRepository      string
	Provenance               string // serialized map[string]SourceProvenance, see provenance.go
	ImportDatetime           time.Time
	EnrichmentDatetime       *time.Time
}

// NeedsEnrichment reports the gating predicate from spec §3: a record is
// eligible for enrichment exactly when it has never been enriched.
func (a *ResearchArticle) NeedsEnrichment() bool {
	return a.EnrichmentDatetime == nil
}

// FilteringQuery is one filter execution (spec §3).
type FilteringQuery struct {
	ID            int64
	Query         string
	Exclude       string
	Model         string
	MaxConcurrent int
	StartedAt     time.Time
	Total         int
	Matched       int
	Failed        int
	Warnings      int
}

// Filtering result explanation prefixes. Reserved per spec §4.6/§6 — they
// partition the result space for downstream SQL filters and must not be
// reused for any other purpose.
const (
	ExplanationPrefixError   = "ERROR:"
	ExplanationPrefixWarning = "WARNING:"
)

// FilteringResult is the decision for one (record, filtering query) pair.
type FilteringResult struct {
	ID               int64
	RecordID         int64
	FilteringQueryID int64
	MatchResult      bool
	Explanation      string
	DecidedAt        time.Time
}

// CountsAsMatched reports whether this result contributes to the
// FilteringQuery.Matched statistic. An ERROR: result always has
// match_result=false so it can never land here; a WARNING: result with
// match_result=true still counts, flagged (spec §4.7 table).
func (f *FilteringResult) CountsAsMatched() bool {
	return f.MatchResult
}

// CountsAsFailed reports whether this result contributes to the
// FilteringQuery.Failed statistic (an ERROR: decision).
func (f *FilteringResult) CountsAsFailed() bool {
	return hasPrefix(f.Explanation, ExplanationPrefixError)
}

// CountsAsWarning reports whether this result carries the WARNING: prefix.
func (f *FilteringResult) CountsAsWarning() bool {
	return hasPrefix(f.Explanation, ExplanationPrefixWarning)
}

// FeedsDownstream reports whether this result is exported and feeds the
// PDF stage: match=true with no reserved prefix at all.
func (f *FilteringResult) FeedsDownstream() bool {
	return f.MatchResult && !f.CountsAsFailed() && !f.CountsAsWarning()
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// PDFCandidate is a (url, source) pair the resolver believes may yield a
// downloadable PDF, ranked by the caller.
type PDFCandidate struct {
	URL     string
	Source  string
	License string
}

// PDFResolution is a snapshot of candidates considered for a record within
// a (possibly absent) filtering context.
type PDFResolution struct {
	ID               int64
	RecordID         int64
	FilteringQueryID *int64
	Timestamp        time.Time
	Candidates       []PDFCandidate
}

// Download status taxonomy (spec §6). These literal strings are part of
// the external contract used in aggregation queries — never rename them.
const (
	DownloadStatusDownloaded   = "downloaded"
	DownloadStatusUnavailable  = "unavailable"
	DownloadStatusTooLarge     = "too_large"
	DownloadStatusNoCandidates = "no_candidates"
	DownloadStatusError        = "error"
)

// PDFDownload is one download attempt.
type PDFDownload struct {
	ID               int64
	RecordID         int64
	FilteringQueryID *int64
	Timestamp        time.Time
	URL              string
	Source           string
	Status           string
	LocalPath        string
	SHA1             string
	FinalURL         string
	ErrorMessage     string
	FileSizeBytes    int64
}

// DocxVersion is a located DOCX artifact for a record.
type DocxVersion struct {
	ID            int64
	RecordID      int64
	LocalPath     string
	RetrievedAt   time.Time
	FileSizeBytes int64
	ErrorMessage  string
}

// Markdown conversion variants (spec §4.10 / GLOSSARY).
const (
	MarkdownVariantNoImages   = "no_images"
	MarkdownVariantWithImages = "with_images"

	MarkdownSourceDocx = "docx"
	MarkdownSourceHTML = "html"
)

// MarkdownVersion is a converted Markdown artifact. Exactly one of
// DocxVersionID / HTMLVersionID is non-nil, matching SourceType — enforced
// by a CHECK constraint at table-creation time and by the constructors in
// package artifact.
type MarkdownVersion struct {
	ID            int64
	RecordID      int64
	SourceType    string
	DocxVersionID *int64
	HTMLVersionID *int64
	Variant       string
	LocalPath     string
	CreatedAt     time.Time
	FileSizeBytes *int64
	ErrorMessage  string
}

// ArticleVersionLink records a preprint -> published-version relation.
type ArticleVersionLink struct {
	ID              int64
	PreprintID      int64
	PublishedID     int64
	DiscoverySource string
	LinkDatetime    time.Time
}
