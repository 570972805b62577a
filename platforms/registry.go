// Package platforms maps the platform names used by game libraries onto the
// taxonomy of the scraped sites. Names are matched loosely so that "Sega
// MegaDrive", "Sega Mega Drive" and "sega-genesis" all resolve to the same
// platform.
package platforms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknown is returned when a platform name matches no known platform.
var ErrUnknown = errors.New("unknown platform")

// Platform describes one hardware platform.
type Platform struct {
	Name      string   // canonical long name
	ShortName string   // compact id, e.g. "md"
	Category  string   // "Console", "Handheld", "Arcade", "Computer"
	Aliases   []string // alternate names
	Arcade    bool     // MAME-like meta platforms

	GameFAQsID   int    // platform id used by the advanced search form
	GameFAQsSlug string // first path element of game URLs
}

var registry = []Platform{
	{Name: "Nintendo NES", ShortName: "nes", Category: "Console", Aliases: []string{"NES", "Nintendo Entertainment System", "Famicom"}, GameFAQsID: 41, GameFAQsSlug: "nes"},
	{Name: "Nintendo SNES", ShortName: "snes", Category: "Console", Aliases: []string{"SNES", "Super Nintendo", "Super Famicom"}, GameFAQsID: 63, GameFAQsSlug: "snes"},
	{Name: "Nintendo 64", ShortName: "n64", Category: "Console", Aliases: []string{"N64"}, GameFAQsID: 84, GameFAQsSlug: "n64"},
	{Name: "Nintendo GameCube", ShortName: "gamecube", Category: "Console", Aliases: []string{"GameCube", "GC", "NGC"}, GameFAQsID: 99, GameFAQsSlug: "gamecube"},
	{Name: "Nintendo Wii", ShortName: "wii", Category: "Console", Aliases: []string{"Wii"}, GameFAQsID: 114, GameFAQsSlug: "wii"},
	{Name: "Nintendo GameBoy", ShortName: "gb", Category: "Handheld", Aliases: []string{"Game Boy", "GB"}, GameFAQsID: 59, GameFAQsSlug: "gameboy"},
	{Name: "Nintendo GameBoy Color", ShortName: "gbc", Category: "Handheld", Aliases: []string{"Game Boy Color", "GBC"}, GameFAQsID: 57, GameFAQsSlug: "gbc"},
	{Name: "Nintendo GameBoy Advance", ShortName: "gba", Category: "Handheld", Aliases: []string{"Game Boy Advance", "GBA"}, GameFAQsID: 91, GameFAQsSlug: "gba"},
	{Name: "Nintendo DS", ShortName: "nds", Category: "Handheld", Aliases: []string{"NDS", "DS"}, GameFAQsID: 108, GameFAQsSlug: "ds"},
	{Name: "Sega Master System", ShortName: "sms", Category: "Console", Aliases: []string{"Master System", "SMS", "Sega Mark III"}, GameFAQsID: 49, GameFAQsSlug: "sms"},
	{Name: "Sega Mega Drive", ShortName: "md", Category: "Console", Aliases: []string{"Sega Genesis", "Genesis", "Mega Drive", "MD"}, GameFAQsID: 54, GameFAQsSlug: "genesis"},
	{Name: "Sega Mega CD", ShortName: "megacd", Category: "Console", Aliases: []string{"Sega CD", "Mega CD"}, GameFAQsID: 65, GameFAQsSlug: "segacd"},
	{Name: "Sega 32X", ShortName: "32x", Category: "Console", Aliases: []string{"32X"}, GameFAQsID: 74, GameFAQsSlug: "sega32x"},
	{Name: "Sega Game Gear", ShortName: "gamegear", Category: "Handheld", Aliases: []string{"Game Gear", "GG"}, GameFAQsID: 62, GameFAQsSlug: "gamegear"},
	{Name: "Sega Saturn", ShortName: "saturn", Category: "Console", Aliases: []string{"Saturn"}, GameFAQsID: 76, GameFAQsSlug: "saturn"},
	{Name: "Sega Dreamcast", ShortName: "dreamcast", Category: "Console", Aliases: []string{"Dreamcast", "DC"}, GameFAQsID: 67, GameFAQsSlug: "dreamcast"},
	{Name: "Sony PlayStation", ShortName: "psx", Category: "Console", Aliases: []string{"PlayStation", "PSX", "PS1", "PS"}, GameFAQsID: 78, GameFAQsSlug: "ps"},
	{Name: "Sony PlayStation 2", ShortName: "ps2", Category: "Console", Aliases: []string{"PlayStation 2", "PS2"}, GameFAQsID: 94, GameFAQsSlug: "ps2"},
	{Name: "Sony PSP", ShortName: "psp", Category: "Handheld", Aliases: []string{"PSP", "PlayStation Portable"}, GameFAQsID: 109, GameFAQsSlug: "psp"},
	{Name: "NEC PC Engine", ShortName: "pce", Category: "Console", Aliases: []string{"PC Engine", "TurboGrafx-16", "TurboGrafx 16", "TG16"}, GameFAQsID: 53, GameFAQsSlug: "tg16"},
	{Name: "SNK Neo Geo AES", ShortName: "neogeo", Category: "Console", Aliases: []string{"Neo Geo", "NeoGeo"}, GameFAQsID: 64, GameFAQsSlug: "neo"},
	{Name: "Atari 2600", ShortName: "a2600", Category: "Console", Aliases: []string{"2600", "Atari VCS"}, GameFAQsID: 6, GameFAQsSlug: "2600"},
	{Name: "Commodore 64", ShortName: "c64", Category: "Computer", Aliases: []string{"C64"}, GameFAQsID: 24, GameFAQsSlug: "c64"},
	{Name: "Commodore Amiga", ShortName: "amiga", Category: "Computer", Aliases: []string{"Amiga"}, GameFAQsID: 39, GameFAQsSlug: "amiga"},
	{Name: "Microsoft MS-DOS", ShortName: "dos", Category: "Computer", Aliases: []string{"MS-DOS", "DOS", "PC"}, GameFAQsID: 19, GameFAQsSlug: "pc"},
	{Name: "MAME", ShortName: "mame", Category: "Arcade", Aliases: []string{"Arcade", "FinalBurn Neo", "FBNeo"}, Arcade: true, GameFAQsID: 2, GameFAQsSlug: "arcade"},
}

var index = buildIndex()

func buildIndex() map[string]int {
	idx := make(map[string]int, len(registry)*4)
	for i, p := range registry {
		idx[normalize(p.Name)] = i
		idx[normalize(p.ShortName)] = i
		for _, a := range p.Aliases {
			key := normalize(a)
			if j, taken := idx[key]; taken && j != i {
				panic(fmt.Sprintf("platforms: alias %q registered twice", a))
			}
			idx[key] = i
		}
	}
	return idx
}

// normalize folds case and drops separators.
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "-", "", "_", "", ".", "").Replace(name)
}

// Lookup resolves a platform name or alias.
func Lookup(name string) (Platform, bool) {
	key := normalize(name)
	if key == "" {
		return Platform{}, false
	}
	i, ok := index[key]
	if !ok {
		return Platform{}, false
	}
	return registry[i], true
}

// Resolve is Lookup returning ErrUnknown for unmatched names.
func Resolve(name string) (Platform, error) {
	p, ok := Lookup(name)
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return p, nil
}

// Canonical returns the canonical name for a platform name, or the input
// unchanged if it is unknown.
func Canonical(name string) string {
	if p, ok := Lookup(name); ok {
		return p.Name
	}
	return name
}

// Same reports whether two platform names refer to the same platform.
func Same(a, b string) bool {
	pa, okA := Lookup(a)
	pb, okB := Lookup(b)
	return okA && okB && pa.Name == pb.Name
}

// IsArcade reports whether name is MAME or another arcade meta platform.
func IsArcade(name string) bool {
	p, ok := Lookup(name)
	return ok && p.Arcade
}

// BySlug finds the platform a GameFAQs URL slug belongs to.
func BySlug(slug string) (Platform, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, p := range registry {
		if p.GameFAQsSlug == slug {
			return p, true
		}
	}
	return Platform{}, false
}

// All returns every known platform sorted by name.
func All() []Platform {
	out := make([]Platform, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
