// Package preprints adapts the Preprints.org manuscript API (DOI prefix
// 10.20944), the third preprint namespace PreprintEnricher recognizes
// (spec §4.5). Preprints.org registers its own DOIs via CrossRef but
// additionally exposes a manuscript-status endpoint that links a preprint
// to its published journal version once known — that endpoint is this
// adapter's reason to exist rather than falling through to CrossRef.
package preprints

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

const apiBase = "https://www.preprints.org/rest/article/doi"

const SourceName = "preprints.org"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
}

func New(http *httpclient.Client, limiter *ratelimiter.Limiter) *Client {
	return &Client{http: http, limiter: limiter}
}

func (c *Client) Name() string { return SourceName }

type response struct {
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	PostingDate   string `json:"posting_date"`
	Abstract      string `json:"abstract"`
	PublishedDOI  string `json:"published_doi"`
	License       string `json:"license"`
}

func (c *Client) requestURL(doi string) string {
	return fmt.Sprintf("%s/%s", apiBase, doi)
}

func (c *Client) fetch(ctx context.Context, a *domain.ResearchArticle) (*response, []byte, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, fmt.Errorf("preprints: record %d has no doi_norm", a.ID)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.GetWithRetry(ctx, c.requestURL(*a.DOINorm), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("preprints.org request failed: %w", err)
	}
	if resp.StatusCode == 404 {
		return nil, resp.Body, nil
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("preprints.org returned status %d", resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing preprints.org response: %w", err)
	}
	return &r, resp.Body, nil
}

// FetchMetadata implements sources.MetadataFetcher.
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	r, raw, err := c.fetch(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if r == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		Title:        strings.TrimSpace(r.Title),
		Authors:      r.Authors,
		License:      r.License,
		PublishedDOI: normalizeDOI(r.PublishedDOI),
		Provenance:   prov,
	}
	if r.PostingDate != "" {
		if t, err := time.Parse("2006-01-02", r.PostingDate); err == nil {
			result.PublicationDate = &t
		}
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	r, raw, err := c.fetch(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: "preprints.org: " + err.Error(), Provenance: prov}, err
	}
	if r == nil || strings.TrimSpace(r.Abstract) == "" {
		return &sources.AbstractFetch{Reason: "preprints.org: no abstract available", Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: strings.TrimSpace(r.Abstract), Provenance: prov}, nil
}

func (c *Client) urlFor(a *domain.ResearchArticle) string {
	if a.DOINorm == nil {
		return ""
	}
	return c.requestURL(*a.DOINorm)
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	return strings.ToLower(doi)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
