// Package semanticscholar adapts the Semantic Scholar graph API —
// grounded on the teacher's pkg/semanticscholar/client.go paperResult
// shape and resultToPaper field extraction, retargeted from search to a
// by-DOI lookup. Semantic Scholar is first in the AbstractPipeline
// fallback chain (spec §4.4).
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/httpclient"
	"github.com/paper-app/curator/internal/ratelimiter"
	"github.com/paper-app/curator/internal/sources"
)

const apiBaseURL = "https://api.semanticscholar.org/graph/v1"

const SourceName = "semanticscholar"

const fields = "title,abstract,year,citationCount,authors,externalIds,openAccessPdf,publicationDate"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
	apiKey  string
}

// New builds a Semantic Scholar adapter. apiKey, if non-empty, is sent
// as the x-api-key header for the higher unauthenticated-vs-keyed rate
// tier (spec §4.2).
func New(http *httpclient.Client, limiter *ratelimiter.Limiter, apiKey string) *Client {
	return &Client{http: http, limiter: limiter, apiKey: apiKey}
}

func (c *Client) Name() string { return SourceName }

type paperResult struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract"`
	Year            int            `json:"year"`
	CitationCount   int            `json:"citationCount"`
	Authors         []authorInfo   `json:"authors"`
	ExternalIDs     externalIDs    `json:"externalIds"`
	OpenAccessPDF   *openAccessPDF `json:"openAccessPdf"`
	PublicationDate string         `json:"publicationDate"`
}

type authorInfo struct {
	Name string `json:"name"`
}

type externalIDs struct {
	ArXiv  string `json:"ArXiv"`
	DOI    string `json:"DOI"`
	PubMed string `json:"PubMed"`
}

type openAccessPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (c *Client) requestURL(doi string) string {
	return fmt.Sprintf("%s/paper/DOI:%s?fields=%s", apiBaseURL, doi, fields)
}

func (c *Client) fetchPaper(ctx context.Context, a *domain.ResearchArticle) (*paperResult, []byte, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, fmt.Errorf("semanticscholar: record %d has no doi_norm", a.ID)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["x-api-key"] = c.apiKey
	}
	resp, err := c.http.GetWithRetry(ctx, c.requestURL(*a.DOINorm), headers)
	if err != nil {
		return nil, nil, fmt.Errorf("semantic scholar request failed: %w", err)
	}
	if resp.StatusCode == 404 {
		return nil, resp.Body, nil
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("semantic scholar returned status %d", resp.StatusCode)
	}

	var p paperResult
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing semantic scholar response: %w", err)
	}
	return &p, resp.Body, nil
}

// FetchMetadata implements sources.MetadataFetcher.
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	p, raw, err := c.fetchPaper(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if p == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		Title:          strings.TrimSpace(p.Title),
		TotalCitations: p.CitationCount,
		Authors:        joinAuthors(p.Authors),
		Provenance:     prov,
	}
	if p.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", p.PublicationDate); err == nil {
			result.PublicationDate = &t
		}
	} else if p.Year > 0 {
		t := time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		result.PublicationDate = &t
	}
	if p.OpenAccessPDF != nil {
		result.OAPdfURL = p.OpenAccessPDF.URL
		result.OAStatus = p.OpenAccessPDF.Status
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	p, raw, err := c.fetchPaper(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: "semanticscholar: " + err.Error(), Provenance: prov}, err
	}
	if p == nil {
		return &sources.AbstractFetch{Reason: "semanticscholar: paper not found", Provenance: prov}, nil
	}
	abstract := strings.TrimSpace(p.Abstract)
	if abstract == "" {
		return &sources.AbstractFetch{Reason: "semanticscholar: abstract field empty", Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: abstract, Provenance: prov}, nil
}

func (c *Client) urlFor(a *domain.ResearchArticle) string {
	if a.DOINorm == nil {
		return ""
	}
	return c.requestURL(*a.DOINorm)
}

func joinAuthors(as []authorInfo) string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, "; ")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
