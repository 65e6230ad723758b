// Package filter implements FilterExecutor: a bounded-concurrency LLM
// decision loop over a (query, exclude, model, max_concurrent) tuple
// (spec §4.7). Every record gets exactly one persisted decision — the
// executor never silently drops a record — and the reserved explanation
// prefixes (ERROR:, WARNING:, or neither) partition
// matched/exported/failed/warning sets for downstream SQL filters.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paper-app/curator/internal/domain"
)

// Store is the narrow persistence surface FilterExecutor needs.
type Store interface {
	CreateFilteringQuery(q *domain.FilteringQuery) (int64, error)
	BatchInsertFilteringResults(results []*domain.FilteringResult) error
	FinalizeFilteringQuery(id int64, total, matched, failed, warnings int) error
}

type Executor struct {
	store     Store
	completer domain.Completer
}

func New(store Store, completer domain.Completer) *Executor {
	return &Executor{store: store, completer: completer}
}

const systemPrompt = `You decide whether a research article matches a filtering query.
Reply with a single JSON object: {"match": bool, "explanation": string}.`

type decision struct {
	Match       bool   `json:"match"`
	Explanation string `json:"explanation"`
}

// Run creates a FilteringQuery row, evaluates every record against it
// with up to MaxConcurrent concurrent LLM calls, persists every decision
// in one batch, and finalizes the query's aggregate counters.
func (e *Executor) Run(ctx context.Context, query, exclude, model string, maxConcurrent int, records []*domain.ResearchArticle) (*domain.FilteringQuery, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	fq := &domain.FilteringQuery{
		Query:         query,
		Exclude:       exclude,
		Model:         model,
		MaxConcurrent: maxConcurrent,
		StartedAt:     time.Now(),
	}
	id, err := e.store.CreateFilteringQuery(fq)
	if err != nil {
		return nil, fmt.Errorf("creating filtering query: %w", err)
	}
	fq.ID = id

	results := make([]*domain.FilteringResult, len(records))
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(maxConcurrent)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			r := e.decideOne(ctx, record, query, exclude, model, id)
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fq, err
	}

	if err := e.store.BatchInsertFilteringResults(results); err != nil {
		return fq, fmt.Errorf("persisting filtering results: %w", err)
	}

	var total, matched, failed, warnings int
	for _, r := range results {
		total++
		if r.CountsAsMatched() {
			matched++
		}
		if r.CountsAsFailed() {
			failed++
		}
		if r.CountsAsWarning() {
			warnings++
		}
	}
	if err := e.store.FinalizeFilteringQuery(id, total, matched, failed, warnings); err != nil {
		return fq, fmt.Errorf("finalizing filtering query: %w", err)
	}
	fq.Total, fq.Matched, fq.Failed, fq.Warnings = total, matched, failed, warnings
	return fq, nil
}

// decideOne asks the model for one record's decision and applies the
// parsing/fallback rules of spec §4.7 exactly.
func (e *Executor) decideOne(ctx context.Context, record *domain.ResearchArticle, query, exclude, model string, filteringQueryID int64) *domain.FilteringResult {
	result := &domain.FilteringResult{
		RecordID:         record.ID,
		FilteringQueryID: filteringQueryID,
		DecidedAt:        time.Now(),
	}

	userPrompt := buildUserPrompt(record, query, exclude)
	content, err := e.completer.Complete(ctx, systemPrompt, userPrompt, model, 512)
	if err != nil {
		result.MatchResult = false
		result.Explanation = fmt.Sprintf("%s%T: %s", domain.ExplanationPrefixError, err, err.Error())
		return result
	}

	var d decision
	if jsonErr := json.Unmarshal([]byte(strings.TrimSpace(content)), &d); jsonErr == nil {
		result.MatchResult = d.Match
		result.Explanation = strings.TrimSpace(d.Explanation)
		if result.Explanation == "" {
			result.Explanation = fmt.Sprintf("%sLLM returned match=%v without explanation", domain.ExplanationPrefixWarning, d.Match)
		}
		return result
	}

	if strings.TrimSpace(content) != "" {
		lower := strings.ToLower(content)
		result.MatchResult = strings.Contains(lower, "true") && strings.Contains(lower, "match")
		result.Explanation = truncate(content, 200)
		return result
	}

	result.MatchResult = false
	result.Explanation = fmt.Sprintf("%sLLM returned match=%v without explanation", domain.ExplanationPrefixWarning, false)
	return result
}

func buildUserPrompt(record *domain.ResearchArticle, query, exclude string) string {
	var sb strings.Builder
	sb.WriteString("Query: " + query + "\n")
	if exclude != "" {
		sb.WriteString("Exclude: " + exclude + "\n")
	}
	sb.WriteString("Title: " + record.Title + "\n")
	sb.WriteString("Abstract: " + record.Abstract + "\n")
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
