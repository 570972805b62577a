package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScannedData holds what the library scanner found on disk for a ROM.
type ScannedData struct {
	Identifier string `json:"identifier"`
	File       string `json:"file"`
}

// ROM represents one library entry being enriched with scraped data
type ROM struct {
	ID          string               `json:"id"`
	ScannedData ScannedData          `json:"scanned_data"`
	Platform    string               `json:"platform"`
	Assets      map[AssetKind]string `json:"assets"`
	AssetPaths  map[AssetKind]string `json:"asset_paths"`
	Metadata    *Metadata            `json:"metadata,omitempty"`
	ScrapedAt   time.Time            `json:"scraped_at"`
}

// NewROM creates a new ROM subject with a unique ID and an empty asset slot
// for every ROM asset kind.
func NewROM(identifier, file, platform string) *ROM {
	assets := make(map[AssetKind]string, len(ROMAssetKinds))
	for _, kind := range ROMAssetKinds {
		assets[kind] = ""
	}
	return &ROM{
		ID: uuid.New().String(),
		ScannedData: ScannedData{
			Identifier: identifier,
			File:       file,
		},
		Platform:   platform,
		Assets:     assets,
		AssetPaths: make(map[AssetKind]string),
	}
}

// Identifier returns the search identifier, falling back to the file name
// without extension.
func (r *ROM) Identifier() string {
	if id := strings.TrimSpace(r.ScannedData.Identifier); id != "" {
		return id
	}
	base := r.FileBase()
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileBase returns the ROM file name including its extension. Scrapers use
// it as the cache name for candidate lookups.
func (r *ROM) FileBase() string {
	if r.ScannedData.File == "" {
		return ""
	}
	return filepath.Base(r.ScannedData.File)
}

// AssetPath returns the directory assets of the given kind are stored in.
func (r *ROM) AssetPath(kind AssetKind) (string, bool) {
	p, ok := r.AssetPaths[kind]
	if !ok || strings.TrimSpace(p) == "" {
		return "", false
	}
	return p, true
}

// SetAsset records the local file for an asset kind.
func (r *ROM) SetAsset(kind AssetKind, path string) {
	if r.Assets == nil {
		r.Assets = make(map[AssetKind]string)
	}
	r.Assets[kind] = path
}

// MarkScraped updates the scrape time
func (r *ROM) MarkScraped() {
	r.ScrapedAt = time.Now()
}
