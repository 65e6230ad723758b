// Package arxiv adapts the arXiv Atom API (spec §2/§4.4) — grounded on
// the teacher's pkg/arxiv/client.go Entry/Feed XML shapes and
// entryToPaper/extractArxivID normalization helpers, generalized from
// "build a searchable domain.Paper" to "enrich a ResearchArticle and
// supply its preprint abstract".
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/httpclient"
	"github.com/paper-app/curator/internal/ratelimiter"
	"github.com/paper-app/curator/internal/sources"
)

const baseURL = "http://export.arxiv.org/api/query"

const SourceName = "arxiv"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
}

func New(http *httpclient.Client, limiter *ratelimiter.Limiter) *Client {
	return &Client{http: http, limiter: limiter}
}

func (c *Client) Name() string { return SourceName }

type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

type entry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Summary   string     `xml:"summary"`
	Published string     `xml:"published"`
	Authors   []author   `xml:"author"`
	Links     []link     `xml:"link"`
	DOI       string     `xml:"doi"`
	Comment   string     `xml:"comment"`
	Category  []category `xml:"category"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

type category struct {
	Term string `xml:"term,attr"`
}

// fetchEntry queries the arXiv API for one id and returns its single entry.
func (c *Client) fetchEntry(ctx context.Context, arxivID string) (*entry, []byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	url := fmt.Sprintf("%s?id_list=%s", baseURL, arxivID)
	resp, err := c.http.GetWithRetry(ctx, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, resp.Body, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	var f feed
	if err := xml.Unmarshal(resp.Body, &f); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing arxiv feed: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, resp.Body, nil
	}
	return &f.Entries[0], resp.Body, nil
}

// FetchMetadata implements sources.MetadataFetcher. It is the adapter
// called by PreprintEnricher for records detected as arXiv preprints
// (spec §4.5): it reports the discovered published DOI when arXiv's
// <arxiv:doi> element is populated.
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	if a.ArxivID == "" {
		return nil, fmt.Errorf("arxiv: record %d has no arxiv_id", a.ID)
	}

	e, raw, err := c.fetchEntry(ctx, a.ArxivID)
	prov := sources.NewProvenance(SourceName, reqURL(a.ArxivID), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if e == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		Title:        strings.TrimSpace(e.Title),
		Authors:      joinAuthors(e.Authors),
		SourceTitle:  strings.TrimSpace(e.Comment),
		PublishedDOI: normalizeDOI(e.DOI),
		Provenance:   prov,
	}
	if e.Published != "" {
		if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
			result.PublicationDate = &t
		}
	}
	for _, l := range e.Links {
		if l.Type == "application/pdf" {
			result.RepositoryPDFURL = l.Href
		}
	}
	if result.RepositoryPDFURL == "" {
		result.RepositoryPDFURL = fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", a.ArxivID)
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher. The enrichment run
// does not call it: PreprintEnricher uses only FetchMetadata, and arXiv is
// not in the AbstractPipeline chain, so preprint records without an
// abstract go through that chain like any other record.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	e, raw, err := c.fetchEntry(ctx, a.ArxivID)
	prov := sources.NewProvenance(SourceName, reqURL(a.ArxivID), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: "arxiv: " + err.Error(), Provenance: prov}, err
	}
	if e == nil || strings.TrimSpace(e.Summary) == "" {
		return &sources.AbstractFetch{Reason: "arxiv: no entry found", Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: strings.TrimSpace(e.Summary), Provenance: prov}, nil
}

func reqURL(arxivID string) string {
	return fmt.Sprintf("%s?id_list=%s", baseURL, arxivID)
}

func joinAuthors(as []author) string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, "; ")
}

// normalizeDOI lower-cases and strips any URL scheme/host, per the
// GLOSSARY's "DOI (normalized)" definition.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	return strings.ToLower(doi)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ExtractID extracts the bare arXiv id from a full abs-URL, e.g.
// "http://arxiv.org/abs/2301.00001v1" -> "2301.00001" (teacher's
// extractArxivID, unchanged in logic).
func ExtractID(fullURL string) string {
	parts := strings.Split(fullURL, "/abs/")
	if len(parts) != 2 {
		return ""
	}
	id := parts[1]
	if idx := strings.LastIndex(id, "v"); idx > 0 {
		versionPart := id[idx+1:]
		isVersion := len(versionPart) > 0
		for _, c := range versionPart {
			if c < '0' || c > '9' {
				isVersion = false
				break
			}
		}
		if isVersion {
			id = id[:idx]
		}
	}
	return id
}
