package pdf

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paper-app/curator/internal/domain"
	"github.com/paper-app/curator/internal/httpclient"
	"github.com/paper-app/curator/internal/ratelimiter"
)

const maxPDFSizeDefault = 50 * 1024 * 1024

// Store is the narrow persistence surface PDFDownloader needs.
type Store interface {
	RecordPDFDownloadAttempt(d *domain.PDFDownload) (int64, error)
}

type Downloader struct {
	http        *httpclient.Client
	limiters    *ratelimiter.Table
	store       Store
	destDir     string
	sharded     bool
	maxSize     int64
}

func NewDownloader(http *httpclient.Client, limiters *ratelimiter.Table, store Store, destDir string, sharded bool, maxSize int64) *Downloader {
	if maxSize <= 0 {
		maxSize = maxPDFSizeDefault
	}
	return &Downloader{http: http, limiters: limiters, store: store, destDir: destDir, sharded: sharded, maxSize: maxSize}
}

// headerTransform mutates request headers and the outgoing URL for one
// source's known anti-bot/caching posture (spec §4.9's dispatch table).
type headerTransform func(requestURL string) (url string, headers map[string]string, preDelay time.Duration)

var dispatch = map[string]headerTransform{
	"arxiv": func(requestURL string) (string, map[string]string, time.Duration) {
		sep := "?"
		if strings.Contains(requestURL, "?") {
			sep = "&"
		}
		cacheBusted := fmt.Sprintf("%s%s_cb=%d", requestURL, sep, time.Now().UnixMilli())
		headers := map[string]string{
			"Accept-Language":           "en-US,en;q=0.9",
			"Accept-Encoding":           "gzip, deflate, br",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Dest":            "document",
			"Cache-Control":             "no-cache, no-store, must-revalidate",
			"Pragma":                    "no-cache",
			"Referer":                   "https://arxiv.org/",
		}
		delay := time.Duration(rand.Int63n(int64(2 * time.Second)))
		return cacheBusted, headers, delay
	},
	"biorxiv": func(requestURL string) (string, map[string]string, time.Duration) {
		return requestURL, map[string]string{"Referer": "https://www.google.com/"}, 0
	},
	"medrxiv": func(requestURL string) (string, map[string]string, time.Duration) {
		return requestURL, map[string]string{"Referer": "https://www.google.com/"}, 0
	},
	"preprints.org": func(requestURL string) (string, map[string]string, time.Duration) {
		return requestURL, map[string]string{"Referer": manuscriptLandingURL(requestURL)}, 0
	},
}

func manuscriptLandingURL(pdfURL string) string {
	u, err := url.Parse(pdfURL)
	if err != nil {
		return pdfURL
	}
	u.Path = strings.TrimSuffix(u.Path, ".pdf")
	return u.String()
}

const defaultUserAgent = "Mozilla/5.0 (compatible; paper-app-curator/1.0)"

// DownloadAll attempts every candidate in rank order for one record,
// recording every attempt and stopping at the first success (spec
// §4.9). An empty candidate list writes a single no_candidates row.
func (d *Downloader) DownloadAll(ctx context.Context, recordID int64, filteringQueryID *int64, candidates []domain.PDFCandidate) (*domain.PDFDownload, error) {
	if len(candidates) == 0 {
		synthetic := &domain.PDFDownload{
			RecordID:         recordID,
			FilteringQueryID: filteringQueryID,
			Timestamp:        time.Now(),
			Status:           domain.DownloadStatusNoCandidates,
		}
		if _, err := d.store.RecordPDFDownloadAttempt(synthetic); err != nil {
			return nil, err
		}
		return synthetic, nil
	}

	var last *domain.PDFDownload
	for _, c := range candidates {
		attempt := d.attempt(ctx, recordID, filteringQueryID, c)
		if _, err := d.store.RecordPDFDownloadAttempt(attempt); err != nil {
			return attempt, err
		}
		last = attempt
		if attempt.Status == domain.DownloadStatusDownloaded {
			return attempt, nil
		}
	}
	return last, nil
}

func (d *Downloader) attempt(ctx context.Context, recordID int64, filteringQueryID *int64, c domain.PDFCandidate) *domain.PDFDownload {
	result := &domain.PDFDownload{
		RecordID:         recordID,
		FilteringQueryID: filteringQueryID,
		Timestamp:        time.Now(),
		URL:              c.URL,
		Source:           c.Source,
	}

	if c.URL == "" {
		result.Status = domain.DownloadStatusUnavailable
		result.ErrorMessage = "empty candidate url"
		return result
	}
	parsed, err := url.Parse(c.URL)
	if err != nil || parsed.Scheme == "" {
		result.Status = domain.DownloadStatusUnavailable
		result.ErrorMessage = "candidate url missing scheme"
		return result
	}

	limiter := d.limiters.For(c.Source)
	if err := limiter.Acquire(ctx); err != nil {
		result.Status = domain.DownloadStatusError
		result.ErrorMessage = err.Error()
		return result
	}

	requestURL := c.URL
	headers := map[string]string{
		"User-Agent": defaultUserAgent,
		"Accept":     "application/pdf,*/*;q=0.8",
	}
	if transform, ok := dispatch[c.Source]; ok {
		var delay time.Duration
		requestURL, headers, delay = transform(c.URL)
		headers["User-Agent"] = defaultUserAgent
		headers["Accept"] = "application/pdf,*/*;q=0.8"
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				result.Status = domain.DownloadStatusError
				result.ErrorMessage = ctx.Err().Error()
				return result
			}
		}
	}

	resp, err := d.http.GetWithRetry(ctx, requestURL, headers)
	if err != nil {
		result.Status = domain.DownloadStatusError
		result.ErrorMessage = err.Error()
		return result
	}
	result.FinalURL = resp.FinalURL

	if resp.StatusCode != 200 {
		result.Status = domain.DownloadStatusUnavailable
		result.ErrorMessage = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/pdf") {
		result.Status = domain.DownloadStatusUnavailable
		result.ErrorMessage = fmt.Sprintf("unexpected content-type %q", contentType)
		return result
	}
	if int64(len(resp.Body)) > d.maxSize {
		result.Status = domain.DownloadStatusTooLarge
		return result
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > d.maxSize {
			result.Status = domain.DownloadStatusTooLarge
			return result
		}
	}

	sum := sha1.Sum(resp.Body)
	hexSum := hex.EncodeToString(sum[:])
	dest := d.destPath(hexSum)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		result.Status = domain.DownloadStatusError
		result.ErrorMessage = err.Error()
		return result
	}
	if err := os.WriteFile(dest, resp.Body, 0o644); err != nil {
		result.Status = domain.DownloadStatusError
		result.ErrorMessage = err.Error()
		return result
	}
	info, err := os.Stat(dest)
	if err != nil {
		result.Status = domain.DownloadStatusError
		result.ErrorMessage = err.Error()
		return result
	}

	result.Status = domain.DownloadStatusDownloaded
	result.SHA1 = hexSum
	result.LocalPath = dest
	result.FileSizeBytes = info.Size()
	return result
}

func (d *Downloader) destPath(sha1Hex string) string {
	if !d.sharded {
		return filepath.Join(d.destDir, sha1Hex+".pdf")
	}
	return filepath.Join(d.destDir, sha1Hex[:2], sha1Hex[2:4], sha1Hex+".pdf")
}
