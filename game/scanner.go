// Package game finds ROM files on disk and turns them into scrape subjects.
package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gamescraper/models"
	"gamescraper/search"
)

// Scanner finds ROM files by extension.
type Scanner struct {
	extensions map[string]struct{}
	assetRoot  string
}

// NewScanner creates a scanner for the given extensions ("zip" or ".zip").
func NewScanner(extensions []string) *Scanner {
	s := &Scanner{extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			s.extensions[ext] = struct{}{}
		}
	}
	return s
}

// SetAssetRoot makes scanned ROMs store assets in <root>/<kind>.
func (s *Scanner) SetAssetRoot(root string) {
	s.assetRoot = root
}

// IsROM reports whether path has one of the scanner's extensions.
func (s *Scanner) IsROM(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := s.extensions[ext]
	return ok
}

// ScanFolder walks folderPath and returns a ROM for every matching file,
// in lexical path order. Hidden files and directories are skipped.
func (s *Scanner) ScanFolder(folderPath, platform string) ([]*models.ROM, error) {
	folderPath = cleanPath(folderPath)
	info, err := os.Stat(folderPath)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", folderPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", folderPath)
	}

	var roms []*models.ROM
	err = filepath.WalkDir(folderPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != folderPath {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.IsROM(path) {
			return nil
		}
		roms = append(roms, s.newROM(path, platform))
		return nil
	})
	return roms, err
}

func (s *Scanner) newROM(path, platform string) *models.ROM {
	base := filepath.Base(path)
	identifier := search.CleanTitle(base)
	if identifier == "" {
		identifier = strings.TrimSuffix(base, filepath.Ext(base))
	}
	rom := models.NewROM(identifier, path, platform)
	if s.assetRoot != "" {
		for _, kind := range models.ROMAssetKinds {
			rom.AssetPaths[kind] = filepath.Join(s.assetRoot, string(kind))
		}
	}
	return rom
}

// cleanPath removes surrounding quotes and makes path absolute.
func cleanPath(path string) string {
	path = strings.Trim(path, `"'`)
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		if absPath, err := filepath.Abs(path); err == nil {
			path = absPath
		}
	}
	return path
}
