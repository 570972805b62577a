package gamefaqs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"gamescraper/platforms"
	"gamescraper/search"
)

// candidateEntry is what the candidates bucket stores per (name, platform).
type candidateEntry struct {
	Candidates []search.Candidate `json:"candidates"`
	Selected   *search.Candidate  `json:"selected,omitempty"`
}

// ordered returns a copy of the candidates with a previously selected
// candidate moved to the front.
func (e candidateEntry) ordered() []search.Candidate {
	out := make([]search.Candidate, 0, len(e.Candidates))
	if e.Selected != nil {
		out = append(out, *e.Selected)
	}
	for _, c := range e.Candidates {
		if e.Selected != nil && c.ID == e.Selected.ID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) searchURL(term string, p platforms.Platform) string {
	q := url.Values{}
	q.Set("game", search.SearchFriendly(term))
	q.Set("platform", strconv.Itoa(p.GameFAQsID))
	return s.baseURL + "/search_advanced?" + q.Encode()
}

// searchCandidates queries the site for term, retrying once with a reduced
// title when nothing is found. The result is ranked and never nil.
func (s *Service) searchCandidates(ctx context.Context, term string, p platforms.Platform) ([]search.Candidate, error) {
	candidates, err := s.searchOnce(ctx, term, term, p)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		if reduced := search.ReducedTitle(term); reduced != "" {
			s.trace("no results, retrying with reduced title",
				zap.String("term", term), zap.String("reduced", reduced))
			if candidates, err = s.searchOnce(ctx, reduced, term, p); err != nil {
				return nil, err
			}
			candidates = s.keepFallbackMatches(term, candidates)
		}
	}
	search.Rank(candidates)
	return candidates, nil
}

// Hits of a reduced-title search must still resemble the full title.
const (
	fallbackMinScore    = 0.5
	fallbackMinCoverage = 0.75
)

// keepFallbackMatches drops reduced-title hits that only share a word or
// two with term, such as every "Super ..." game for "Super Invalid Game".
func (s *Service) keepFallbackMatches(term string, candidates []search.Candidate) []search.Candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Score >= fallbackMinScore && search.TitleCoverage(term, c.DisplayName) >= fallbackMinCoverage {
			kept = append(kept, c)
			continue
		}
		s.trace("dropping unrelated fallback result",
			zap.String("term", term), zap.String("title", c.DisplayName), zap.Float64("score", c.Score))
	}
	return kept
}

func (s *Service) searchOnce(ctx context.Context, query, original string, p platforms.Platform) ([]search.Candidate, error) {
	target := s.searchURL(query, p)
	s.trace("searching", zap.String("url", target))

	doc, err := s.fetcher.GetDocument(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("search %q on %s: %w", query, p.Name, err)
	}
	candidates := parseSearchResults(doc, s.baseURL, p)
	for i := range candidates {
		search.ScoreCandidate(original, &candidates[i], slugOf(candidates[i].ID) == p.GameFAQsSlug)
	}
	s.trace("search results", zap.String("query", query), zap.Int("count", len(candidates)))
	return candidates, nil
}

// parseSearchResults reads the result rows of a search page. The candidate
// id is the game page path, e.g. "/snes/588741-super-metroid".
func parseSearchResults(doc *goquery.Document, baseURL string, p platforms.Platform) []search.Candidate {
	candidates := make([]search.Candidate, 0)
	seen := make(map[string]struct{})

	doc.Find("div.sr_name a, td.rtitle a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		id := gamePath(href)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		name := collapseSpaces(a.Text())
		if name == "" {
			return
		}
		label := collapseSpaces(a.Closest("div.sr_row, tr").Find("div.sr_platform, td.rplatform").First().Text())
		slug := slugOf(id)
		if label == "" {
			label = slug
		}

		platform := p.Name
		if other, ok := platforms.BySlug(slug); ok {
			platform = other.Name
		}
		candidates = append(candidates, search.Candidate{
			ID:              id,
			DisplayName:     name,
			Platform:        platform,
			ScraperPlatform: label,
			URL:             baseURL + id,
			Position:        len(candidates),
		})
	})
	return candidates
}

// gamePath reduces a result link to the "/<slug>/<id>-<name>" game path.
func gamePath(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return "/" + parts[0] + "/" + parts[1]
}

// slugOf returns the platform slug of a game path.
func slugOf(id string) string {
	return strings.SplitN(strings.TrimPrefix(id, "/"), "/", 2)[0]
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
