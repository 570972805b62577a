package gamefaqs

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gamescraper/models"
	"gamescraper/search"
)

var (
	yearPattern   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	ratingPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*/\s*5`)
)

func (s *Service) fetchMetadata(ctx context.Context, c search.Candidate) (*models.Metadata, error) {
	doc, err := s.fetcher.GetDocument(ctx, s.baseURL+c.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch game page %s: %w", c.ID, err)
	}
	md := parseMetadata(doc)
	if md.Title == "" {
		md.Title = c.DisplayName
	}
	return md, nil
}

// parseMetadata reads a game detail page.
func parseMetadata(doc *goquery.Document) *models.Metadata {
	md := &models.Metadata{
		Title: collapseSpaces(doc.Find("h1.page-title").First().Text()),
	}

	fields := gameInfoFields(doc)
	if genre := fields["genre"]; genre != "" {
		parts := splitGenre(genre)
		md.Genre = strings.Join(parts, " / ")
		md.Tags = parts
	}
	if release := fields["release"]; release != "" {
		md.Year = yearPattern.FindString(release)
	}
	for _, label := range []string{"developer", "developer/publisher", "publisher"} {
		if v := fields[label]; v != "" {
			md.Developer = v
			break
		}
	}
	md.NPlayers = fields["local players"]
	md.NPlayersOnline = fields["online players"]
	md.ESRB = fields["esrb"]

	md.Plot = collapseSpaces(doc.Find("div.game_desc").First().Text())
	md.Rating = parseRating(doc.Find("div.mygames_stats_rate a").First().Text())
	return md
}

// gameInfoFields maps lower-cased "<b>Label:</b> value" rows of the game
// info pod to their values.
func gameInfoFields(doc *goquery.Document) map[string]string {
	fields := make(map[string]string)
	doc.Find("div.pod_gameinfo li, div.pod_gameinfo div.content").Each(func(_ int, row *goquery.Selection) {
		b := row.Find("b").First()
		if b.Length() == 0 {
			return
		}
		label := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(b.Text()), ":"))
		if label == "" {
			return
		}
		value := collapseSpaces(strings.TrimPrefix(collapseSpaces(row.Text()), collapseSpaces(b.Text())))
		value = strings.TrimSpace(strings.TrimSuffix(value, "»"))
		key := strings.ToLower(label)
		if _, dup := fields[key]; !dup && value != "" {
			fields[key] = value
		}
	})
	return fields
}

func splitGenre(genre string) []string {
	var parts []string
	for _, p := range strings.FieldsFunc(genre, func(r rune) bool { return r == '»' || r == '>' || r == ',' }) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// parseRating converts "3.91 / 5" into a 0-10 rating. It returns "" when
// the text has no rating.
func parseRating(text string) string {
	m := ratingPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 5 {
		return ""
	}
	return strconv.FormatFloat(v*2, 'f', 1, 64)
}
