package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"gamescraper/logging"
	"gamescraper/models"
)

var (
	// ErrNoCandidate is reported when metadata or assets are requested
	// before SetCandidate.
	ErrNoCandidate = errors.New("no candidate selected")
	// ErrUnknownScraper is returned by New for an unregistered name.
	ErrUnknownScraper = errors.New("unknown scraper")
)

// Scraper is implemented by every metadata source. Calls report failures
// through the status argument; a failed status leaves return values empty.
type Scraper interface {
	Name() string

	SetVerboseMode(verbose bool)
	SetDebugFileDump(enabled bool, dir string)

	// SupportedAssets lists the asset kinds the scraper can find.
	SupportedAssets() []models.AssetKind

	// CheckCandidatesCache reports whether candidates for (name, platform)
	// are cached in memory or on disk. It never touches the network.
	CheckCandidatesCache(name, platform string) bool

	// GetCandidates searches for searchTerm on platform, best match first.
	// An unknown platform fails the status and returns nil; a search
	// without hits returns an empty list.
	GetCandidates(ctx context.Context, searchTerm string, subject *models.ROM, platform string, status *models.Status) []Candidate

	// SetCandidate selects the candidate used by the following calls and
	// caches it for (name, platform).
	SetCandidate(name, platform string, candidate Candidate)

	GetMetadata(ctx context.Context, status *models.Status) *models.Metadata
	GetAssets(ctx context.Context, kind models.AssetKind, status *models.Status) []models.Asset

	// ResolveAssetURL returns the full size URL of asset and its file extension.
	ResolveAssetURL(ctx context.Context, asset models.Asset, status *models.Status) (string, string)

	// DownloadAsset stores asset under the subject's asset path and returns
	// the written file.
	DownloadAsset(ctx context.Context, asset models.Asset, subject *models.ROM, status *models.Status) string

	FlushDiskCache() error
	Close() error
}

// Factory builds a scraper instance.
type Factory func(settings *models.Settings, logger *zap.Logger) (Scraper, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterPlugin is called by a scraper package's init() to make itself
// available.
func RegisterPlugin(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("search: scraper %q registered twice", name))
	}
	registry[name] = factory
}

// Plugins returns the registered scraper names, sorted.
func Plugins() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the named scraper.
func New(name string, settings *models.Settings, logger *zap.Logger) (Scraper, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScraper, name)
	}
	if settings == nil {
		settings = models.DefaultSettings()
	}
	return factory(settings, logger)
}

// CacheName is the name candidate lookups for rom are cached under: the
// ROM file name, or the cleaned identifier when there is no file.
func CacheName(rom *models.ROM) string {
	if name := rom.FileBase(); name != "" {
		return name
	}
	return CleanTitle(rom.Identifier())
}

// Result is the outcome of scraping one ROM.
type Result struct {
	ROM        *models.ROM
	Candidate  *Candidate
	Candidates int
	FromCache  bool
	Metadata   *models.Metadata
	Assets     map[models.AssetKind][]models.Asset
	Downloaded map[models.AssetKind]string
}

// Manager runs the full scrape of a ROM against one scraper.
type Manager struct {
	scraper  Scraper
	download bool
	logger   *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDownload makes Scrape download the first asset of every kind.
func WithDownload(enabled bool) ManagerOption {
	return func(m *Manager) { m.download = enabled }
}

// NewManager wraps scraper.
func NewManager(scraper Scraper, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		scraper: scraper,
		logger:  logging.NewComponentLogger(logger, "manager").With(zap.String("scraper", scraper.Name())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scraper returns the wrapped scraper.
func (m *Manager) Scraper() Scraper {
	return m.scraper
}

// Scrape searches rom, pins the best candidate and fetches its metadata
// and the requested asset kinds. Asset download failures are logged and
// skipped; search and metadata failures fail the status.
func (m *Manager) Scrape(ctx context.Context, rom *models.ROM, kinds []models.AssetKind, status *models.Status) *Result {
	result := &Result{
		ROM:        rom,
		Assets:     make(map[models.AssetKind][]models.Asset),
		Downloaded: make(map[models.AssetKind]string),
	}
	name := CacheName(rom)
	logger := m.logger.With(zap.String("rom", name), zap.String("platform", rom.Platform))

	result.FromCache = m.scraper.CheckCandidatesCache(name, rom.Platform)
	candidates := m.scraper.GetCandidates(ctx, rom.Identifier(), rom, rom.Platform, status)
	if !status.OK {
		logger.Warn("search failed", zap.String("reason", status.Msg))
		return result
	}
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		m.flush(logger)
		status.Reset("no candidates found")
		logger.Info("no candidates found")
		return result
	}

	best := candidates[0]
	m.scraper.SetCandidate(name, rom.Platform, best)
	result.Candidate = &best
	logger.Debug("selected candidate", zap.String("candidate", best.ID), zap.String("title", best.DisplayName))

	metadata := m.scraper.GetMetadata(ctx, status)
	if !status.OK {
		logger.Warn("metadata failed", zap.String("reason", status.Msg))
		return result
	}
	result.Metadata = metadata
	rom.Metadata = metadata

	for _, kind := range kinds {
		assets := m.scraper.GetAssets(ctx, kind, status)
		if !status.OK {
			logger.Warn("asset lookup failed", zap.String("kind", string(kind)), zap.String("reason", status.Msg))
			status.Reset("")
			continue
		}
		if len(assets) == 0 {
			continue
		}
		result.Assets[kind] = assets
		if !m.download {
			continue
		}
		path := m.scraper.DownloadAsset(ctx, assets[0], rom, status)
		if !status.OK {
			logger.Warn("asset download failed", zap.String("kind", string(kind)), zap.String("reason", status.Msg))
			status.Reset("")
			continue
		}
		result.Downloaded[kind] = path
	}

	m.flush(logger)
	rom.MarkScraped()
	status.Reset(fmt.Sprintf("scraped %s", best.DisplayName))
	return result
}

func (m *Manager) flush(logger *zap.Logger) {
	if err := m.scraper.FlushDiskCache(); err != nil {
		logger.Warn("failed to flush disk cache", zap.Error(err))
	}
}
