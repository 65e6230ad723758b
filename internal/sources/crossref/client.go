// Package crossref adapts the CrossRef works API — grounded on the
// acquire.fetchCrossRefMetadata response shapes from the research-engine
// reference sources, rebuilt against the shared httpclient/ratelimiter
// and the common adapter interfaces (spec §4.4).
package crossref

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

const apiBase = "https://api.crossref.org/works/"

const SourceName = "crossref"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
	email   string
}

// New builds a CrossRef adapter. email, if non-empty, is appended to
// requests to join the "polite pool" CrossRef grants faster service to.
func New(http *httpclient.Client, limiter *ratelimiter.Limiter, email string) *Client {
	return &Client{http: http, limiter: limiter, email: email}
}

func (c *Client) Name() string { return SourceName }

type response struct {
	Message work `json:"message"`
}

type work struct {
	Title        []string      `json:"title"`
	Abstract     string        `json:"abstract"`
	Author       []author      `json:"author"`
	Created      dateParts     `json:"created"`
	Published    dateParts     `json:"published"`
	IsReferencedBy int         `json:"is-referenced-by-count"`
	License      []licenseInfo `json:"license"`
	Link         []linkInfo    `json:"link"`
	ContainerTitle []string    `json:"container-title"`
}

type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type dateParts struct {
	DateParts [][]int `json:"date-parts"`
}

type licenseInfo struct {
	URL string `json:"URL"`
}

type linkInfo struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

func (c *Client) requestURL(doi string) string {
	u := apiBase + doi
	if c.email != "" {
		u += "?mailto=" + c.email
	}
	return u
}

func (c *Client) fetchWork(ctx context.Context, a *domain.ResearchArticle) (*work, []byte, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, fmt.Errorf("crossref: record %d has no doi_norm", a.ID)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.GetWithRetry(ctx, c.requestURL(*a.DOINorm), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("crossref request failed: %w", err)
	}
	if resp.StatusCode == 404 {
		return nil, resp.Body, nil
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("crossref returned status %d", resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing crossref response: %w", err)
	}
	return &r.Message, resp.Body, nil
}

// FetchMetadata implements sources.MetadataFetcher.
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	w, raw, err := c.fetchWork(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if w == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		TotalCitations: w.IsReferencedBy,
		Authors:        joinAuthors(w.Author),
		Provenance:     prov,
	}
	if len(w.Title) > 0 {
		result.Title = strings.TrimSpace(w.Title[0])
	}
	if len(w.ContainerTitle) > 0 {
		result.SourceTitle = w.ContainerTitle[0]
	}
	if t, ok := dateFromParts(w.Published); ok {
		result.PublicationDate = &t
	} else if t, ok := dateFromParts(w.Created); ok {
		result.PublicationDate = &t
	}
	if len(w.License) > 0 {
		result.License = w.License[0].URL
	}
	for _, l := range w.Link {
		if l.ContentType == "application/pdf" {
			result.RepositoryPDFURL = l.URL
			break
		}
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher. CrossRef abstracts
// are encoded as a JATS XML fragment; this strips tags to plain text.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	w, raw, err := c.fetchWork(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: "crossref: " + err.Error(), Provenance: prov}, err
	}
	if w == nil || w.Abstract == "" {
		return &sources.AbstractFetch{Reason: "crossref: no abstract field", Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: strings.TrimSpace(stripJATSTags(w.Abstract)), Provenance: prov}, nil
}

func (c *Client) urlFor(a *domain.ResearchArticle) string {
	if a.DOINorm == nil {
		return ""
	}
	return c.requestURL(*a.DOINorm)
}

func joinAuthors(as []author) string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		n := strings.TrimSpace(a.Given + " " + a.Family)
		if n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, "; ")
}

func dateFromParts(d dateParts) (time.Time, bool) {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return time.Time{}, false
	}
	parts := d.DateParts[0]
	year := parts[0]
	month := 1
	day := 1
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		day = parts[2]
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// stripJATSTags removes <jats:...> markup, keeping text content only.
func stripJATSTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
