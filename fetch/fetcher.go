// Package fetch downloads web pages for the scrapers. It wraps a resty
// client with a cookie jar, retry on transient failures, a request rate
// limit and optional dumps of every page to disk for debugging.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"gamescraper/logging"
	"gamescraper/models"
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.Code)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Fetcher fetches pages from one site.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	mu          sync.Mutex
	dumpEnabled bool
	dumpDir     string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logging.NewComponentLogger(logger, "fetch")
	}
}

// WithRetryWait overrides the wait between retries.
func WithRetryWait(wait, maxWait time.Duration) Option {
	return func(f *Fetcher) {
		f.client.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	}
}

// New creates a Fetcher from scraper settings.
func New(settings *models.Settings, opts ...Option) (*Fetcher, error) {
	if settings == nil {
		settings = models.DefaultSettings()
	}

	client := resty.New()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client.SetCookieJar(jar)
	if settings.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	userAgent := settings.UserAgent
	if userAgent == "" {
		userAgent = models.DefaultUserAgent
	}
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetTimeout(settings.RequestTimeout)
	client.SetRetryCount(settings.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	f := &Fetcher{
		client:      client,
		logger:      logging.NewComponentLogger(nil, "fetch"),
		dumpEnabled: settings.DebugDump,
		dumpDir:     settings.OutputDir,
	}
	if settings.RatePerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(settings.RatePerSecond), 1)
	}
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return f.Wait(req.Context())
	})

	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Wait blocks until the rate limiter allows another request.
func (f *Fetcher) Wait(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	return f.limiter.Wait(ctx)
}

// HTTPClient exposes the underlying client so crawlers share cookies and
// transport with the fetcher.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.client.GetClient()
}

// SetDebugDump enables or disables writing fetched pages into dir.
func (f *Fetcher) SetDebugDump(enabled bool, dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dumpEnabled = enabled
	if dir != "" {
		f.dumpDir = dir
	}
}

// GetBytes fetches url and returns the raw body.
func (f *Fetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(url)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("fetch %s (latency=%v): %w", url, latency, err)
	}
	f.logger.Debug("fetched page",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("latency", latency))

	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode()}
	}
	body := resp.Body()
	// only markup is worth dumping
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
		f.Dump(url, body)
	}
	return body, nil
}

// GetDocument fetches url and parses it as HTML.
func (f *Fetcher) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DumpFileName maps a URL to the file name used for debug dumps.
func DumpFileName(url string) string {
	name := url
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
	if len(name) > 180 {
		name = name[:180]
	}
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	return name
}

// Dump writes body to the dump directory when dumping is enabled.
func (f *Fetcher) Dump(url string, body []byte) {
	f.mu.Lock()
	enabled, dir := f.dumpEnabled, f.dumpDir
	f.mu.Unlock()
	if !enabled || dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.logger.Warn("debug dump dir unavailable", zap.String("dir", dir), zap.Error(err))
		return
	}
	path := filepath.Join(dir, DumpFileName(url))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		f.logger.Warn("debug dump failed", zap.String("path", path), zap.Error(err))
		return
	}
	f.logger.Debug("dumped page", zap.String("path", path))
}
