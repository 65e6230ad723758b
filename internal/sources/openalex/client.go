// Package openalex adapts the OpenAlex works API — grounded on the
// teacher's pkg/openalex/client.go workResult shape, authorship
// extraction and reconstructAbstract inverted-index decoder, retargeted
// from a search endpoint to a by-DOI lookup plus the common adapter
// interfaces (spec §4.4).
package openalex

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

const baseURL = "https://api.openalex.org"

const SourceName = "openalex"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
	email   string
}

// New builds an OpenAlex adapter. email, if non-empty, is sent as the
// mailto query param to join OpenAlex's "polite pool".
func New(http *httpclient.Client, limiter *ratelimiter.Limiter, email string) *Client {
	return &Client{http: http, limiter: limiter, email: email}
}

func (c *Client) Name() string { return SourceName }

type workResult struct {
	ID                    string                 `json:"id"`
	DOI                   string                 `json:"doi"`
	Title                 string                 `json:"title"`
	DisplayName           string                 `json:"display_name"`
	PublicationDate       string                 `json:"publication_date"`
	CitedByCount          int                    `json:"cited_by_count"`
	CountsByYear          []countsByYear         `json:"counts_by_year"`
	Authorships           []authorship           `json:"authorships"`
	PrimaryLocation       *location              `json:"primary_location"`
	OpenAccess            *openAccess            `json:"open_access"`
	AbstractInvertedIndex map[string][]int       `json:"abstract_inverted_index"`
	IDs                   map[string]interface{} `json:"ids"`
}

type countsByYear struct {
	Year  int `json:"year"`
	Count int `json:"cited_by_count"`
}

type authorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type location struct {
	IsOA           bool    `json:"is_oa"`
	LandingPageURL string  `json:"landing_page_url"`
	PDFURL         string  `json:"pdf_url"`
	License        string  `json:"license"`
	Source         *source `json:"source"`
}

type source struct {
	DisplayName string `json:"display_name"`
}

type openAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

func (c *Client) requestURL(doi string) string {
	v := fmt.Sprintf("%s/works/https://doi.org/%s", baseURL, doi)
	if c.email != "" {
		v += "?mailto=" + c.email
	}
	return v
}

func (c *Client) fetchWork(ctx context.Context, a *domain.ResearchArticle) (*workResult, []byte, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, fmt.Errorf("openalex: record %d has no doi_norm", a.ID)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.GetWithRetry(ctx, c.requestURL(*a.DOINorm), map[string]string{
		"User-Agent": userAgent(c.email),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("openalex request failed: %w", err)
	}
	if resp.StatusCode == 404 {
		return nil, resp.Body, nil
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("openalex returned status %d", resp.StatusCode)
	}

	var w workResult
	if err := json.Unmarshal(resp.Body, &w); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing openalex response: %w", err)
	}
	return &w, resp.Body, nil
}

func userAgent(email string) string {
	if email == "" {
		return "paper-app-curator/1.0"
	}
	return fmt.Sprintf("paper-app-curator/1.0 (mailto:%s)", email)
}

// FetchMetadata implements sources.MetadataFetcher, supplying citation
// counts, OA status/license and author list (spec §4.4/§4.6).
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	w, raw, err := c.fetchWork(ctx, a)
	prov := sources.NewProvenance(SourceName, c.requestURLSafe(a), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if w == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		TotalCitations:   w.CitedByCount,
		CitationsPerYear: citationsPerYear(w),
		Authors:          joinAuthors(w.Authorships),
		Provenance:       prov,
	}
	title := w.Title
	if title == "" {
		title = w.DisplayName
	}
	result.Title = strings.TrimSpace(title)

	if w.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", w.PublicationDate); err == nil {
			result.PublicationDate = &t
		}
	}
	if w.PrimaryLocation != nil {
		result.RepositoryPDFURL = w.PrimaryLocation.PDFURL
		result.License = w.PrimaryLocation.License
		if w.PrimaryLocation.Source != nil {
			result.SourceTitle = w.PrimaryLocation.Source.DisplayName
		}
	}
	if w.OpenAccess != nil {
		result.OAStatus = w.OpenAccess.OAStatus
		if result.OAPdfURL == "" {
			result.OAPdfURL = w.OpenAccess.OAURL
		}
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher, reconstructing plain
// text from OpenAlex's inverted-index abstract encoding.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	w, raw, err := c.fetchWork(ctx, a)
	prov := sources.NewProvenance(SourceName, c.requestURLSafe(a), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: "openalex: " + err.Error(), Provenance: prov}, err
	}
	if w == nil {
		return &sources.AbstractFetch{Reason: "openalex: work not found", Provenance: prov}, nil
	}
	abstract := reconstructAbstract(w.AbstractInvertedIndex)
	if abstract == "" {
		return &sources.AbstractFetch{Reason: "openalex: no abstract available", Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: abstract, Provenance: prov}, nil
}

func (c *Client) requestURLSafe(a *domain.ResearchArticle) string {
	if a.DOINorm == nil {
		return ""
	}
	return c.requestURL(*a.DOINorm)
}

func citationsPerYear(w *workResult) float64 {
	if len(w.CountsByYear) == 0 {
		return 0
	}
	var sum int
	for _, cy := range w.CountsByYear {
		sum += cy.Count
	}
	return float64(sum) / float64(len(w.CountsByYear))
}

func joinAuthors(as []authorship) string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		if n := strings.TrimSpace(a.Author.DisplayName); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, "; ")
}

// reconstructAbstract rebuilds plain text from OpenAlex's inverted index
// ({"word": [positions...]}), unchanged from the teacher's algorithm.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	maxPos := 0
	for _, positions := range invertedIndex {
		for _, pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
	}

	words := make([]string, maxPos+1)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			if pos >= 0 && pos <= maxPos {
				words[pos] = word
			}
		}
	}

	var sb strings.Builder
	for i, word := range words {
		if word != "" {
			if i > 0 && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(word)
		}
	}
	return sb.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
