// Package gamefaqs scrapes game metadata and artwork from GameFAQs.
package gamefaqs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"gamescraper/fetch"
	"gamescraper/logging"
	"gamescraper/models"
	"gamescraper/platforms"
	"gamescraper/search"
	"gamescraper/storage"
)

// Name is the registry name of the scraper.
const Name = "gamefaqs"

// Disk cache buckets.
const (
	BucketCandidates = "candidates"
	BucketMetadata   = "metadata"
	BucketAssets     = "assets"
)

// Service implements search.Scraper for GameFAQs.
type Service struct {
	settings  *models.Settings
	baseURL   string
	userAgent string
	fetcher   *fetch.Fetcher
	backend   storage.Backend
	cache     *storage.Cache
	logger    *zap.Logger
	verbose   atomic.Bool

	mu        sync.Mutex
	candidate *search.Candidate
}

var _ search.Scraper = (*Service)(nil)

func init() {
	search.RegisterPlugin(Name, func(settings *models.Settings, logger *zap.Logger) (search.Scraper, error) {
		return New(settings, logger)
	})
}

// New creates a GameFAQs scraper. The disk cache lives in settings.CacheDir.
func New(settings *models.Settings, logger *zap.Logger) (*Service, error) {
	if settings == nil {
		settings = models.DefaultSettings()
	}
	logger = logging.NewComponentLogger(logger, Name)

	fetcher, err := fetch.New(settings, fetch.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	backend, err := storage.NewBackend(settings.CacheBackend, settings.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open disk cache: %w", err)
	}

	userAgent := settings.UserAgent
	if userAgent == "" {
		userAgent = models.DefaultUserAgent
	}
	s := &Service{
		settings:  settings,
		baseURL:   strings.TrimRight(settings.BaseURL, "/"),
		userAgent: userAgent,
		fetcher:   fetcher,
		backend:   backend,
		cache:     storage.NewCache(Name, settings.CacheDir, backend, settings.CacheMaxAge, logger),
		logger:    logger,
	}
	s.verbose.Store(settings.Verbose)
	return s, nil
}

func (s *Service) Name() string { return Name }

// SupportedAssets returns the asset kinds GameFAQs provides.
func (s *Service) SupportedAssets() []models.AssetKind {
	return append([]models.AssetKind(nil), supportedAssets...)
}

// SetVerboseMode logs every scraping step at info level instead of debug.
func (s *Service) SetVerboseMode(verbose bool) {
	s.verbose.Store(verbose)
}

// SetDebugFileDump writes every fetched page into dir when enabled.
func (s *Service) SetDebugFileDump(enabled bool, dir string) {
	if dir == "" {
		dir = s.settings.OutputDir
	}
	s.fetcher.SetDebugDump(enabled, dir)
}

// Cache exposes the disk cache for maintenance commands.
func (s *Service) Cache() *storage.Cache {
	return s.cache
}

func (s *Service) trace(msg string, fields ...zap.Field) {
	if s.verbose.Load() {
		s.logger.Info(msg, fields...)
		return
	}
	s.logger.Debug(msg, fields...)
}

// candidateKey keys the candidates bucket. Aliased platform names share
// one key.
func candidateKey(name, platform string) string {
	return storage.Key(name, platforms.Canonical(platform))
}

func (s *Service) CheckCandidatesCache(name, platform string) bool {
	return s.cache.Has(BucketCandidates, candidateKey(name, platform))
}

func (s *Service) GetCandidates(ctx context.Context, searchTerm string, subject *models.ROM, platform string, status *models.Status) []search.Candidate {
	term := search.CleanTitle(searchTerm)
	if term == "" {
		status.Fail("GameFAQs: empty search term")
		return nil
	}
	p, err := platforms.Resolve(platform)
	if err != nil {
		status.Failf("GameFAQs: %v", err)
		s.logger.Warn("unsupported platform", zap.String("platform", platform))
		return nil
	}

	name := term
	if subject != nil {
		if n := search.CacheName(subject); n != "" {
			name = n
		}
	}
	key := candidateKey(name, platform)

	var entry candidateEntry
	if err := s.cache.Get(BucketCandidates, key, &entry); err == nil && entry.Candidates != nil {
		s.trace("candidates from cache", zap.String("name", name), zap.String("platform", p.Name),
			zap.Int("count", len(entry.Candidates)))
		return entry.ordered()
	}

	candidates, err := s.searchCandidates(ctx, term, p)
	if err != nil {
		status.Failf("GameFAQs: search failed: %v", err)
		s.logger.Warn("search failed", zap.String("term", term), zap.Error(err))
		return nil
	}
	entry.Candidates = candidates
	if err := s.cache.Put(BucketCandidates, key, entry); err != nil {
		s.logger.Warn("failed to cache candidates", zap.Error(err))
	}
	s.logger.Debug("found candidates",
		zap.String("term", term), zap.String("platform", p.Name), zap.Int("count", len(candidates)))
	return append([]search.Candidate{}, candidates...)
}

func (s *Service) SetCandidate(name, platform string, candidate search.Candidate) {
	s.mu.Lock()
	c := candidate
	s.candidate = &c
	s.mu.Unlock()

	key := candidateKey(name, platform)
	var entry candidateEntry
	if err := s.cache.Get(BucketCandidates, key, &entry); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("unreadable candidate cache entry", zap.Error(err))
	}
	if entry.Candidates == nil {
		entry.Candidates = []search.Candidate{c}
	}
	entry.Selected = &c
	if err := s.cache.Put(BucketCandidates, key, entry); err != nil {
		s.logger.Warn("failed to cache candidate", zap.Error(err))
	}
	s.trace("candidate selected", zap.String("candidate", c.ID), zap.String("title", c.DisplayName))
}

// pinned returns the selected candidate or fails status.
func (s *Service) pinned(status *models.Status) (search.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		status.Failf("GameFAQs: %v", search.ErrNoCandidate)
		return search.Candidate{}, false
	}
	return *s.candidate, true
}

func (s *Service) GetMetadata(ctx context.Context, status *models.Status) *models.Metadata {
	c, ok := s.pinned(status)
	if !ok {
		return nil
	}

	var md models.Metadata
	if err := s.cache.Get(BucketMetadata, c.ID, &md); err == nil {
		s.trace("metadata from cache", zap.String("candidate", c.ID))
		return &md
	}

	fetched, err := s.fetchMetadata(ctx, c)
	if err != nil {
		status.Failf("GameFAQs: metadata failed: %v", err)
		s.logger.Warn("metadata failed", zap.String("candidate", c.ID), zap.Error(err))
		return nil
	}
	if err := s.cache.Put(BucketMetadata, c.ID, fetched); err != nil {
		s.logger.Warn("failed to cache metadata", zap.Error(err))
	}
	return fetched
}

// allAssets returns every asset of c, crawling the site on a cache miss.
func (s *Service) allAssets(ctx context.Context, c search.Candidate) ([]models.Asset, error) {
	var assets []models.Asset
	if err := s.cache.Get(BucketAssets, c.ID, &assets); err == nil {
		s.trace("assets from cache", zap.String("candidate", c.ID))
		return assets, nil
	}
	assets, err := s.crawlAssets(ctx, c)
	if err != nil {
		return nil, err
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	if err := s.cache.Put(BucketAssets, c.ID, assets); err != nil {
		s.logger.Warn("failed to cache assets", zap.Error(err))
	}
	return assets, nil
}

func (s *Service) GetAssets(ctx context.Context, kind models.AssetKind, status *models.Status) []models.Asset {
	c, ok := s.pinned(status)
	if !ok {
		return nil
	}
	out := make([]models.Asset, 0)
	if !isSupported(kind) {
		s.trace("asset kind not supported", zap.String("kind", string(kind)))
		return out
	}

	assets, err := s.allAssets(ctx, c)
	if err != nil {
		status.Failf("GameFAQs: assets failed: %v", err)
		s.logger.Warn("assets failed", zap.String("candidate", c.ID), zap.Error(err))
		return nil
	}
	for _, a := range assets {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	s.trace("assets", zap.String("candidate", c.ID), zap.String("kind", string(kind)), zap.Int("count", len(out)))
	return out
}

func (s *Service) ResolveAssetURL(_ context.Context, asset models.Asset, status *models.Status) (string, string) {
	if _, ok := s.pinned(status); !ok {
		return "", ""
	}
	url := asset.URL
	if url == "" {
		url = fullSizeURL(asset.URLThumb)
	}
	if url == "" {
		status.Fail("GameFAQs: asset has no URL")
		return "", ""
	}
	return url, assetExt(url)
}

func (s *Service) DownloadAsset(ctx context.Context, asset models.Asset, subject *models.ROM, status *models.Status) string {
	url, _ := s.ResolveAssetURL(ctx, asset, status)
	if !status.OK {
		return ""
	}
	if subject == nil {
		status.Fail("GameFAQs: no subject to store the asset for")
		return ""
	}
	dir, ok := subject.AssetPath(asset.Kind)
	if !ok {
		status.Failf("GameFAQs: no %s directory configured", asset.Kind.Name())
		return ""
	}

	path, err := s.downloadImage(ctx, url, dir, assetFileName(subject))
	if err != nil {
		status.Failf("GameFAQs: download failed: %v", err)
		s.logger.Warn("asset download failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	subject.SetAsset(asset.Kind, path)
	s.trace("asset downloaded", zap.String("kind", string(asset.Kind)), zap.String("path", path))
	return path
}

func (s *Service) FlushDiskCache() error {
	return s.cache.Flush()
}

// Close flushes pending cache entries and releases the cache backend.
func (s *Service) Close() error {
	return errors.Join(s.cache.Flush(), s.backend.Close())
}
