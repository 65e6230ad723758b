// Package pdf implements PDFResolver and PDFDownloader (spec §4.8/§4.9).
// Resolver is a pure function over cached record fields; Downloader
// performs the actual I/O with source-aware header/cache-busting
// dispatch, rate limiting, validation, and SHA-1-addressed storage.
package pdf

import (
	"net/url"
	"strings"

	"github.com/paper-app/curator/internal/domain"
)

// Resolve ranks every PDF URL cached on a record into a deduplicated
// candidate list: repository/preprint URLs first, then the Unpaywall OA
// URL, then a permissively-licensed publisher URL (spec §4.8).
func Resolve(a *domain.ResearchArticle) []domain.PDFCandidate {
	var ranked []domain.PDFCandidate

	if a.ManualURLRepository != "" {
		ranked = append(ranked, domain.PDFCandidate{
			URL:    a.ManualURLRepository,
			Source: repositorySource(a),
		})
	}
	if a.OAPdfURL != "" && isOpenAccessStatus(a.OAStatus) {
		ranked = append(ranked, domain.PDFCandidate{
			URL:     a.OAPdfURL,
			Source:  "unpaywall",
			License: a.License,
		})
	}
	if a.ManualURLPublisher != "" && isPermissiveLicense(a.License) {
		ranked = append(ranked, domain.PDFCandidate{
			URL:     a.ManualURLPublisher,
			Source:  "publisher",
			License: a.License,
		})
	}

	return dedupe(ranked)
}

func repositorySource(a *domain.ResearchArticle) string {
	if a.IsPreprint && a.PreprintPlatform != "" {
		return a.PreprintPlatform
	}
	return "repository"
}

func isOpenAccessStatus(status string) bool {
	switch strings.ToLower(status) {
	case "gold", "green", "hybrid", "bronze":
		return true
	default:
		return false
	}
}

func isPermissiveLicense(license string) bool {
	l := strings.ToLower(license)
	return strings.Contains(l, "cc-by") || strings.Contains(l, "cc0") || strings.Contains(l, "public-domain")
}

// dedupe collapses candidates sharing a normalized URL, keeping the
// first (highest-ranked) occurrence.
func dedupe(candidates []domain.PDFCandidate) []domain.PDFCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]domain.PDFCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := normalizeURL(c.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "/")
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""
	return u.Scheme + "://" + u.Host + u.Path + "?" + u.RawQuery
}
