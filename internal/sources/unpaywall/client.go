// Package unpaywall adapts the Unpaywall API, the canonical open-access
// status source (spec §4.6 OAEnricher). Built in the same by-DOI, JSON,
// rate-limited idiom as internal/sources/crossref and openalex.
package unpaywall

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/httpclient"
	"github.com/paper-app/curator/internal/ratelimiter"
	"github.com/paper-app/curator/internal/sources"
)

const apiBase = "https://api.unpaywall.org/v2/"

const SourceName = "unpaywall"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
	email   string
}

// New builds an Unpaywall adapter. Unpaywall requires an email on every
// request (its "email" query param is mandatory, not polite-pool sugar).
func New(http *httpclient.Client, limiter *ratelimiter.Limiter, email string) *Client {
	return &Client{http: http, limiter: limiter, email: email}
}

func (c *Client) Name() string { return SourceName }

type response struct {
	DOI          string        `json:"doi"`
	IsOA         bool          `json:"is_oa"`
	OAStatus     string        `json:"oa_status"`
	BestOALoc    *location     `json:"best_oa_location"`
	OALocations  []location    `json:"oa_locations"`
}

type location struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
	License   string `json:"license"`
	HostType  string `json:"host_type"`
}

func (c *Client) requestURL(doi string) string {
	email := c.email
	if email == "" {
		email = "curator@example.org"
	}
	return fmt.Sprintf("%s%s?email=%s", apiBase, doi, email)
}

func (c *Client) fetch(ctx context.Context, a *domain.ResearchArticle) (*response, []byte, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, fmt.Errorf("unpaywall: record %d has no doi_norm", a.ID)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.GetWithRetry(ctx, c.requestURL(*a.DOINorm), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unpaywall request failed: %w", err)
	}
	if resp.StatusCode == 404 {
		return nil, resp.Body, nil
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("unpaywall returned status %d", resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing unpaywall response: %w", err)
	}
	return &r, resp.Body, nil
}

// FetchMetadata implements sources.MetadataFetcher, supplying oa_status,
// license and the best open-access PDF URL (spec §4.6).
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
		OAStatus:   r.OAStatus,
		Provenance: prov,
	}
	if r.BestOALoc != nil {
		result.OAPdfURL = r.BestOALoc.URLForPDF
		if result.OAPdfURL == "" {
			result.OAPdfURL = r.BestOALoc.URL
		}
		result.License = r.BestOALoc.License
		if r.BestOALoc.HostType == "repository" {
			result.RepositoryPDFURL = result.OAPdfURL
		}
	}
	return result, nil
}

func (c *Client) urlFor(a *domain.ResearchArticle) string {
	if a.DOINorm == nil {
		return ""
	}
	return c.requestURL(*a.DOINorm)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
