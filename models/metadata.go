package models

import (
	"fmt"
	"strings"
)

// Metadata is the game information scraped from a detail page.
type Metadata struct {
	Title          string   `json:"title"`
	Year           string   `json:"year"`
	Genre          string   `json:"genre"`
	Developer      string   `json:"developer"`
	NPlayers       string   `json:"nplayers"`
	NPlayersOnline string   `json:"nplayers_online"`
	ESRB           string   `json:"esrb"`
	Rating         string   `json:"rating"` // 0-10, empty when unknown
	Plot           string   `json:"plot"`
	Tags           []string `json:"tags,omitempty"`
	Trailer        string   `json:"trailer"`
}

func (m Metadata) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "title=%q year=%q genre=%q developer=%q", m.Title, m.Year, m.Genre, m.Developer)
	if m.NPlayers != "" {
		fmt.Fprintf(&b, " nplayers=%q", m.NPlayers)
	}
	if m.ESRB != "" {
		fmt.Fprintf(&b, " esrb=%q", m.ESRB)
	}
	if m.Rating != "" {
		fmt.Fprintf(&b, " rating=%s", m.Rating)
	}
	return b.String()
}

// Asset is one remote picture (or media file) found for a game.
type Asset struct {
	Kind        AssetKind `json:"kind"`
	DisplayName string    `json:"display_name"`
	URLThumb    string    `json:"url_thumb"`
	URL         string    `json:"url"`
	Region      string    `json:"region,omitempty"`
}

func (a Asset) String() string {
	return fmt.Sprintf("[%s] %s %s", a.Kind, a.DisplayName, a.URL)
}
