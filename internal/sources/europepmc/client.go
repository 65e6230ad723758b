// Package europepmc adapts the Europe PMC REST search API — an
// additional biomedical abstract source beyond NCBI PubMed, built in the
// same idiom as internal/sources/pubmed for the AbstractPipeline fallback
// chain (spec §4.4).
package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/httpclient"
	"github.com/paper-app/curator/internal/ratelimiter"
	"github.com/paper-app/curator/internal/sources"
)

const searchURL = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

const SourceName = "europepmc"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
}

func New(http *httpclient.Client, limiter *ratelimiter.Limiter) *Client {
	return &Client{http: http, limiter: limiter}
}

func (c *Client) Name() string { return SourceName }

type response struct {
	ResultList resultList `json:"resultList"`
}

type resultList struct {
	Result []result `json:"result"`
}

type result struct {
	Title        string `json:"title"`
	AbstractText string `json:"abstractText"`
	AuthorString string `json:"authorString"`
	JournalTitle string `json:"journalTitle"`
	FirstPublicationDate string `json:"firstPublicationDate"`
	PMCID        string `json:"pmcid"`
	IsOpenAccess string `json:"isOpenAccess"`
	LicenseString string `json:"licenseString"`
}

func (c *Client) requestURL(doi string) string {
	q := url.Values{}
	q.Set("query", "DOI:\""+doi+"\"")
	q.Set("format", "json")
	q.Set("resultType", "core")
	return searchURL + "?" + q.Encode()
}

func (c *Client) fetch(ctx context.Context, a *domain.ResearchArticle) (*result, []byte, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, fmt.Errorf("europepmc: record %d has no doi_norm", a.ID)
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.GetWithRetry(ctx, c.requestURL(*a.DOINorm), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("europepmc request failed: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("europepmc returned status %d", resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing europepmc response: %w", err)
	}
	if len(r.ResultList.Result) == 0 {
		return nil, resp.Body, nil
	}
	return &r.ResultList.Result[0], resp.Body, nil
}

// FetchMetadata implements sources.MetadataFetcher.
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	res, raw, err := c.fetch(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if res == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		Title:       strings.TrimSpace(res.Title),
		Authors:     res.AuthorString,
		SourceTitle: res.JournalTitle,
		License:     res.LicenseString,
		Provenance:  prov,
	}
	if res.FirstPublicationDate != "" {
		if t, err := time.Parse("2006-01-02", res.FirstPublicationDate); err == nil {
			result.PublicationDate = &t
		}
	}
	if res.PMCID != "" {
		result.RepositoryPDFURL = fmt.Sprintf("https://europepmc.org/article/PMC/%s", res.PMCID)
	}
	if res.IsOpenAccess == "Y" {
		result.OAStatus = "gold"
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	res, raw, err := c.fetch(ctx, a)
	prov := sources.NewProvenance(SourceName, c.urlFor(a), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: "europepmc: " + err.Error(), Provenance: prov}, err
	}
	if res == nil || strings.TrimSpace(res.AbstractText) == "" {
		return &sources.AbstractFetch{Reason: "europepmc: no abstract available", Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: strings.TrimSpace(res.AbstractText), Provenance: prov}, nil
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
