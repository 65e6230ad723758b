// Package biorxiv adapts the bioRxiv/medRxiv details API, shared by
// both platforms under one endpoint family distinguished by a server
// segment. Used by PreprintEnricher to discover the published-version
// DOI for 10.1101-prefixed preprints (spec §4.5).
package biorxiv

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

const detailsBase = "https://api.biorxiv.org/details"

// Server identifies which of the two platforms sharing this API a
// client instance targets.
type Server string

const (
	ServerBioRxiv Server = "biorxiv"
	ServerMedRxiv Server = "medrxiv"
)

const SourceName = "biorxiv"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
	server  Server
}

func New(http *httpclient.Client, limiter *ratelimiter.Limiter, server Server) *Client {
	return &Client{http: http, limiter: limiter, server: server}
}

func (c *Client) Name() string {
	return string(c.server)
}

type response struct {
	Collection []item `json:"collection"`
}

type item struct {
	DOI           string `json:"doi"`
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	Date          string `json:"date"`
	Category      string `json:"category"`
	PublishedDOI  string `json:"published_doi"`
	License       string `json:"license"`
	Abstract      string `json:"abstract"`
}

func (c *Client) requestURL(doi string) string {
	return fmt.Sprintf("%s/%s/%s/na/json", detailsBase, c.server, doi)
}

func (c *Client) fetch(ctx context.Context, a *domain.ResearchArticle) (*item, []byte, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, fmt.Errorf("%s: record %d has no doi_norm", c.server, a.ID)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.GetWithRetry(ctx, c.requestURL(*a.DOINorm), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s request failed: %w", c.server, err)
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("%s returned status %d", c.server, resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing %s response: %w", c.server, err)
	}
	if len(r.Collection) == 0 {
		return nil, resp.Body, nil
	}
	// The collection is version history ordered oldest-first; the most
	// recent entry (last element) carries the latest published_doi.
	return &r.Collection[len(r.Collection)-1], resp.Body, nil
}

// FetchMetadata implements sources.MetadataFetcher. PublishedDOI is set
// once the preprint's peer-reviewed version has been indexed.
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	it, raw, err := c.fetch(ctx, a)
	prov := sources.NewProvenance(c.Name(), c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if it == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		Title:        strings.TrimSpace(it.Title),
		Authors:      it.Authors,
		License:      it.License,
		PublishedDOI: normalizeDOI(it.PublishedDOI),
		Provenance:   prov,
	}
	if it.Date != "" {
		if t, err := time.Parse("2006-01-02", it.Date); err == nil {
			result.PublicationDate = &t
		}
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	it, raw, err := c.fetch(ctx, a)
	prov := sources.NewProvenance(c.Name(), c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: fmt.Sprintf("%s: %v", c.server, err), Provenance: prov}, err
	}
	if it == nil || strings.TrimSpace(it.Abstract) == "" {
		return &sources.AbstractFetch{Reason: fmt.Sprintf("%s: no abstract available", c.server), Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: strings.TrimSpace(it.Abstract), Provenance: prov}, nil
}

func (c *Client) urlFor(a *domain.ResearchArticle) string {
	if a.DOINorm == nil {
		return ""
	}
	return c.requestURL(*a.DOINorm)
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" || doi == "NA" {
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
