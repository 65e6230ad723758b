package filter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/paper-app/curator/internal/domain"
)

type fakeCompleter struct {
	content string
	err     error
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt, model string, maxOutputTokens int) (string, error) {
	return f.content, f.err
}

type fakeFilterStore struct {
	created int64
	results []*domain.FilteringResult
	total, matched, failed, warnings int
}

func (f *fakeFilterStore) CreateFilteringQuery(q *domain.FilteringQuery) (int64, error) {
	f.created = 1
	return f.created, nil
}

func (f *fakeFilterStore) BatchInsertFilteringResults(results []*domain.FilteringResult) error {
	f.results = results
	return nil
}

func (f *fakeFilterStore) FinalizeFilteringQuery(id int64, total, matched, failed, warnings int) error {
	f.total, f.matched, f.failed, f.warnings = total, matched, failed, warnings
	return nil
}

func TestDecideOneStrictJSONParse(t *testing.T) {
	e := New(&fakeFilterStore{}, &fakeCompleter{content: `{"match": true, "explanation": "directly relevant"}`})
	r := e.decideOne(context.Background(), &domain.ResearchArticle{ID: 1}, "q", "", "model", 1)

	if !r.MatchResult {
		t.Error("MatchResult = false, want true")
	}
	if r.Explanation != "directly relevant" {
		t.Errorf("Explanation = %q, want %q", r.Explanation, "directly relevant")
	}
}

func TestDecideOneEmptyExplanationBecomesWarning(t *testing.T) {
	e := New(&fakeFilterStore{}, &fakeCompleter{content: `{"match": true, "explanation": ""}`})
	r := e.decideOne(context.Background(), &domain.ResearchArticle{ID: 1}, "q", "", "model", 1)

	if !r.MatchResult {
		t.Error("MatchResult = false, want true")
	}
	if !strings.HasPrefix(r.Explanation, domain.ExplanationPrefixWarning) {
		t.Errorf("Explanation = %q, want WARNING: prefix", r.Explanation)
	}
}

func TestDecideOneJSONParseFailureHeuristic(t *testing.T) {
	e := New(&fakeFilterStore{}, &fakeCompleter{content: "I think this is a TRUE match for the query."})
	r := e.decideOne(context.Background(), &domain.ResearchArticle{ID: 1}, "q", "", "model", 1)

	if !r.MatchResult {
		t.Error("MatchResult = false, want true (heuristic should detect 'true' and 'match')")
	}
	if r.Explanation != "I think this is a TRUE match for the query." {
		t.Errorf("Explanation = %q, want the raw (short) content", r.Explanation)
	}
}

func TestDecideOneJSONParseFailureHeuristicNoMatch(t *testing.T) {
	e := New(&fakeFilterStore{}, &fakeCompleter{content: "This does not look relevant at all."})
	r := e.decideOne(context.Background(), &domain.ResearchArticle{ID: 1}, "q", "", "model", 1)

	if r.MatchResult {
		t.Error("MatchResult = true, want false")
	}
}

func TestDecideOneParseFailureTruncatesExplanationTo200Chars(t *testing.T) {
	content := strings.Repeat("x", 500)
	e := New(&fakeFilterStore{}, &fakeCompleter{content: content})
	r := e.decideOne(context.Background(), &domain.ResearchArticle{ID: 1}, "q", "", "model", 1)

	if len(r.Explanation) != 200 {
		t.Errorf("len(Explanation) = %d, want 200", len(r.Explanation))
	}
}

func TestDecideOneEmptyContentBecomesWarning(t *testing.T) {
	e := New(&fakeFilterStore{}, &fakeCompleter{content: "   "})
	r := e.decideOne(context.Background(), &domain.ResearchArticle{ID: 1}, "q", "", "model", 1)

	if r.MatchResult {
		t.Error("MatchResult = true, want false")
	}
	if !strings.HasPrefix(r.Explanation, domain.ExplanationPrefixWarning) {
		t.Errorf("Explanation = %q, want WARNING: prefix", r.Explanation)
	}
}

func TestDecideOneCompleterErrorBecomesErrorPrefix(t *testing.T) {
	e := New(&fakeFilterStore{}, &fakeCompleter{err: errors.New("context deadline exceeded")})
	r := e.decideOne(context.Background(), &domain.ResearchArticle{ID: 1}, "q", "", "model", 1)

	if r.MatchResult {
		t.Error("MatchResult = true, want false for a completer error")
	}
	if !strings.HasPrefix(r.Explanation, domain.ExplanationPrefixError) {
		t.Errorf("Explanation = %q, want ERROR: prefix", r.Explanation)
	}
}

func TestRunAggregatesCountsAndFinalizes(t *testing.T) {
	st := &fakeFilterStore{}
	e := New(st, &fakeCompleter{content: `{"match": true, "explanation": "ok"}`})

	records := []*domain.ResearchArticle{{ID: 1}, {ID: 2}, {ID: 3}}
	fq, err := e.Run(context.Background(), "q", "", "model", 2, records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fq.Total != 3 || fq.Matched != 3 {
		t.Errorf("Total/Matched = %d/%d, want 3/3", fq.Total, fq.Matched)
	}
	if st.total != 3 || st.matched != 3 {
		t.Errorf("store finalized total/matched = %d/%d, want 3/3", st.total, st.matched)
	}
	if len(st.results) != 3 {
		t.Errorf("len(results) persisted = %d, want 3", len(st.results))
	}
}
