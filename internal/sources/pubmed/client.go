// Package pubmed adapts the NCBI Entrez esearch/efetch APIs — grounded
// on the teacher's pkg/pubmed/client.go PubmedArticleSet XML shapes and
// articleToPaper field extraction, retargeted from a search endpoint to
// a by-DOI lookup (spec §4.4).
package pubmed

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

const (
	esearchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

const SourceName = "pubmed"

type Client struct {
	http    *httpclient.Client
	limiter *ratelimiter.Limiter
}

func New(http *httpclient.Client, limiter *ratelimiter.Limiter) *Client {
	return &Client{http: http, limiter: limiter}
}

func (c *Client) Name() string { return SourceName }

type eSearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDList  idList    `xml:"IdList"`
}

type idList struct {
	IDs []string `xml:"Id"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
	PubmedData      pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    string  `xml:"PMID"`
	Article article `xml:"Article"`
}

type article struct {
	Journal      journal        `xml:"Journal"`
	ArticleTitle string         `xml:"ArticleTitle"`
	Abstract     abstractNode   `xml:"Abstract"`
	AuthorList   authorList     `xml:"AuthorList"`
}

type journal struct {
	Title   string      `xml:"Title"`
	PubDate journalDate `xml:"JournalIssue>PubDate"`
}

type journalDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type abstractNode struct {
	AbstractTexts []abstractText `xml:"AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

type authorList struct {
	Authors []pubmedAuthor `xml:"Author"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type pubmedData struct {
	ArticleIDList articleIDList `xml:"ArticleIdList"`
}

type articleIDList struct {
	ArticleIDs []articleID `xml:"ArticleId"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// lookupPMID resolves a DOI to a PMID via esearch. Returns "" if no
// PubMed record matches.
func (c *Client) lookupPMID(ctx context.Context, doi string) (string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s?db=pubmed&term=%s%%5BAID%%5D&retmode=xml", esearchURL, doi)
	resp, err := c.http.GetWithRetry(ctx, url, nil)
	if err != nil {
		return "", fmt.Errorf("pubmed esearch failed: %w", err)
	}
	var result eSearchResult
	if err := xml.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("parsing esearch response: %w", err)
	}
	if len(result.IDList.IDs) == 0 {
		return "", nil
	}
	return result.IDList.IDs[0], nil
}

func (c *Client) fetchArticle(ctx context.Context, pmid string) (*pubmedArticle, []byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}
	url := fmt.Sprintf("%s?db=pubmed&id=%s&retmode=xml&rettype=abstract", efetchURL, pmid)
	resp, err := c.http.GetWithRetry(ctx, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("pubmed efetch failed: %w", err)
	}
	var set pubmedArticleSet
	if err := xml.Unmarshal(resp.Body, &set); err != nil {
		return nil, resp.Body, fmt.Errorf("parsing efetch response: %w", err)
	}
	if len(set.Articles) == 0 {
		return nil, resp.Body, nil
	}
	return &set.Articles[0], resp.Body, nil
}

func (c *Client) resolve(ctx context.Context, a *domain.ResearchArticle) (*pubmedArticle, []byte, string, error) {
	if a.DOINorm == nil || *a.DOINorm == "" {
		return nil, nil, "", fmt.Errorf("pubmed: record %d has no doi_norm", a.ID)
	}
	pmid, err := c.lookupPMID(ctx, *a.DOINorm)
	if err != nil {
		return nil, nil, "", err
	}
	if pmid == "" {
		return nil, nil, "", nil
	}
	art, raw, err := c.fetchArticle(ctx, pmid)
	return art, raw, pmid, err
}

// FetchMetadata implements sources.MetadataFetcher.
func (c *Client) FetchMetadata(ctx context.Context, a *domain.ResearchArticle) (*sources.MetadataFetch, error) {
	art, raw, pmid, err := c.resolve(ctx, a)
	prov := sources.NewProvenance(SourceName, pmidURL(pmid), raw, errString(err))
	if err != nil {
		return &sources.MetadataFetch{Provenance: prov}, err
	}
	if art == nil {
		return &sources.MetadataFetch{Provenance: prov}, nil
	}

	result := &sources.MetadataFetch{
		Title:       strings.TrimSpace(art.MedlineCitation.Article.ArticleTitle),
		Authors:     joinAuthors(art.MedlineCitation.Article.AuthorList.Authors),
		SourceTitle: art.MedlineCitation.Article.Journal.Title,
		Provenance:  prov,
	}
	if t, ok := parseJournalDate(art.MedlineCitation.Article.Journal.PubDate); ok {
		result.PublicationDate = &t
	}
	if pmcID := extractPMCID(art); pmcID != "" {
		result.RepositoryPDFURL = fmt.Sprintf("https://www.ncbi.nlm.nih.gov/pmc/articles/%s/pdf/", pmcID)
	}
	return result, nil
}

// FetchAbstract implements sources.AbstractFetcher.
func (c *Client) FetchAbstract(ctx context.Context, a *domain.ResearchArticle) (*sources.AbstractFetch, error) {
	art, raw, pmid, err := c.resolve(ctx, a)
	prov := sources.NewProvenance(SourceName, pmidURL(pmid), raw, errString(err))
	if err != nil {
		return &sources.AbstractFetch{Reason: "pubmed: " + err.Error(), Provenance: prov}, err
	}
	if art == nil {
		return &sources.AbstractFetch{Reason: "pubmed: no record found for doi", Provenance: prov}, nil
	}

	var parts []string
	for _, t := range art.MedlineCitation.Article.Abstract.AbstractTexts {
		if t.Label != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", t.Label, t.Text))
		} else {
			parts = append(parts, t.Text)
		}
	}
	abstract := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if abstract == "" {
		return &sources.AbstractFetch{Reason: "pubmed: abstract field empty", Provenance: prov}, nil
	}
	return &sources.AbstractFetch{Abstract: abstract, Provenance: prov}, nil
}

func pmidURL(pmid string) string {
	if pmid == "" {
		return ""
	}
	return "https://pubmed.ncbi.nlm.nih.gov/" + pmid
}

func joinAuthors(as []pubmedAuthor) string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		n := strings.TrimSpace(a.ForeName + " " + a.LastName)
		if n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, "; ")
}

func parseJournalDate(d journalDate) (time.Time, bool) {
	if d.Year == "" {
		return time.Time{}, false
	}
	dateStr := d.Year
	format := "2006"
	if d.Month != "" {
		dateStr += " " + d.Month
		format += " Jan"
		if d.Day != "" {
			dateStr += " " + d.Day
			format += " 2"
		}
	}
	t, err := time.Parse(format, dateStr)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func extractPMCID(art *pubmedArticle) string {
	for _, id := range art.PubmedData.ArticleIDList.ArticleIDs {
		if id.IDType == "pmc" {
			return id.Value
		}
	}
	return ""
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
