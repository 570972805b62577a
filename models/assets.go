package models

import (
	"fmt"
	"strings"
)

// AssetKind identifies a category of game artwork or media.
type AssetKind string

const (
	AssetTitle     AssetKind = "title"
	AssetSnap      AssetKind = "snap"
	AssetBoxFront  AssetKind = "boxfront"
	AssetBoxBack   AssetKind = "boxback"
	AssetCartridge AssetKind = "cartridge"
	AssetFlyer     AssetKind = "flyer"
	AssetFanart    AssetKind = "fanart"
	AssetBanner    AssetKind = "banner"
	AssetClearlogo AssetKind = "clearlogo"
	Asset3DBox     AssetKind = "3dbox"
	AssetMap       AssetKind = "map"
	AssetManual    AssetKind = "manual"
	AssetTrailer   AssetKind = "trailer"
)

// ROMAssetKinds lists every asset kind a ROM can carry.
var ROMAssetKinds = []AssetKind{
	AssetTitle, AssetSnap, AssetBoxFront, AssetBoxBack, AssetCartridge,
	AssetFlyer, AssetFanart, AssetBanner, AssetClearlogo, Asset3DBox,
	AssetMap, AssetManual, AssetTrailer,
}

var assetKindNames = map[AssetKind]string{
	AssetTitle:     "Title",
	AssetSnap:      "Snap",
	AssetBoxFront:  "Boxfront",
	AssetBoxBack:   "Boxback",
	AssetCartridge: "Cartridge",
	AssetFlyer:     "Flyer",
	AssetFanart:    "Fanart",
	AssetBanner:    "Banner",
	AssetClearlogo: "Clearlogo",
	Asset3DBox:     "3D Box",
	AssetMap:       "Map",
	AssetManual:    "Manual",
	AssetTrailer:   "Trailer",
}

// Name returns a human readable asset kind name.
func (k AssetKind) Name() string {
	if n, ok := assetKindNames[k]; ok {
		return n
	}
	return string(k)
}

// IsImage reports whether assets of this kind are pictures.
func (k AssetKind) IsImage() bool {
	return k != AssetManual && k != AssetTrailer
}

// ParseAssetKind converts user input ("boxfront", "Box Front", "box-front")
// to an AssetKind.
func ParseAssetKind(s string) (AssetKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(norm)
	for _, kind := range ROMAssetKinds {
		if string(kind) == norm {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown asset kind %q", s)
}
