// Package abstractpipeline implements the ordered abstract-retrieval
// fallback chain: Semantic Scholar, then CrossRef, then OpenAlex, then
// Europe PMC, then PubMed (spec §4.4). Each stage is tried in turn until
// one returns a non-empty abstract; every stage's Reason (and every
// provenance entry, successful or not) is preserved for the audit trail.
package abstractpipeline

import (
	"context"
	"strings"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/sources"
)

// Pipeline tries each AbstractFetcher in the order given, stopping at
// the first stage that returns a non-empty abstract.
type Pipeline struct {
	stages []sources.AbstractFetcher
}

func New(stages ...sources.AbstractFetcher) *Pipeline {
	return &Pipeline{stages: stages}
}

// Outcome is the pipeline's result for one record: the retrieved
// abstract (if any), which source supplied it, the combined provenance
// of every stage attempted, and — when no stage succeeded — the
// no-retrieval reason composed from each stage's Reason.
type Outcome struct {
	Abstract                  string
	AbstractSource             string
	Provenance                domain.Provenance
	AbstractNoRetrievalReason string
}

// Run executes the fallback chain for one record.
func (p *Pipeline) Run(ctx context.Context, a *domain.ResearchArticle) Outcome {
	prov := make(domain.Provenance)
	var reasons []string

	for _, stage := range p.stages {
		fetch, err := stage.FetchAbstract(ctx, a)
		if fetch != nil {
			prov[stage.Name()] = fetch.Provenance
		}
		if err != nil {
			reasons = append(reasons, stage.Name()+": "+err.Error())
			continue
		}
		if fetch == nil {
			continue
		}
		if strings.TrimSpace(fetch.Abstract) != "" {
			return Outcome{
				Abstract:       fetch.Abstract,
				AbstractSource: stage.Name(),
				Provenance:     prov,
			}
		}
		if fetch.Reason != "" {
			reasons = append(reasons, fetch.Reason)
		}
	}

	return Outcome{
		Provenance:                prov,
		AbstractNoRetrievalReason: strings.Join(reasons, "; "),
	}
}
