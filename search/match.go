package search

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern       = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	extPattern       = regexp.MustCompile(`^\.[A-Za-z0-9]{1,4}$`)
	spacePattern     = regexp.MustCompile(`\s+`)
	nonAlnumPattern  = regexp.MustCompile(`[^a-z0-9]+`)
	articleSuffix    = regexp.MustCompile(`(?i),\s*(the|a|an)$`)
	searchSpecialSet = []string{"\"", "“", "”", "&", "(", ")", "[", "]", "{", "}", "<", ">", "|", "\\", "/", ":", ";", ",", ".", "!", "?"}
)

// words that say nothing about which game a title names
var genericWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {}, "vs": {},
}

// FoldDiacritics removes accents: "Pokémon" becomes "Pokemon".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CleanTitle turns a ROM name into a title fit for searching. It drops the
// file extension, bracketed tags such as "(USA)", "[!]" or MAME set info,
// underscores, and moves a trailing ", The" to the front.
func CleanTitle(name string) string {
	clean := strings.TrimSpace(name)
	if ext := filepath.Ext(clean); extPattern.MatchString(ext) && len(ext) < len(clean) {
		clean = strings.TrimSuffix(clean, ext)
	}
	clean = tagPattern.ReplaceAllString(clean, " ")
	clean = strings.ReplaceAll(clean, "_", " ")
	clean = spacePattern.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)
	if m := articleSuffix.FindStringSubmatch(clean); m != nil {
		clean = m[1] + " " + strings.TrimSpace(articleSuffix.ReplaceAllString(clean, ""))
	}
	return clean
}

// SearchFriendly strips characters the site search chokes on.
func SearchFriendly(name string) string {
	friendly := FoldDiacritics(name)
	friendly = strings.NewReplacer("'", "", "’", "").Replace(friendly)
	for _, char := range searchSpecialSet {
		friendly = strings.ReplaceAll(friendly, char, " ")
	}
	friendly = strings.TrimSpace(spacePattern.ReplaceAllString(friendly, " "))
	if friendly == "" {
		return strings.TrimSpace(name)
	}
	return friendly
}

// ReducedTitle returns a shorter query to retry with when a search finds
// nothing: the part before a subtitle separator, otherwise the first word.
// It returns "" when the title cannot be reduced.
func ReducedTitle(name string) string {
	name = strings.TrimSpace(name)
	for _, sep := range []string{" - ", ": "} {
		if i := strings.Index(name, sep); i > 0 {
			return strings.TrimSpace(name[:i])
		}
	}
	words := strings.Fields(name)
	if len(words) < 2 {
		return ""
	}
	return words[0]
}

// NormalizeTitle lowercases, folds accents and collapses punctuation to
// single spaces so titles can be compared.
func NormalizeTitle(s string) string {
	s = strings.ToLower(FoldDiacritics(s))
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	s = nonAlnumPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if _, skip := genericWords[w]; !skip {
			out = append(out, w)
		}
	}
	return out
}

// MatchScore rates how well a site title matches a query, from 0 to 1. It
// blends Jaro-Winkler similarity with the share of query words present in
// the title.
func MatchScore(query, title string) float64 {
	q, t := NormalizeTitle(query), NormalizeTitle(title)
	if q == "" || t == "" {
		return 0
	}
	if q == t {
		return 1
	}

	similarity := matchr.JaroWinkler(q, t, false)

	queryWords := significantWords(q)
	if len(queryWords) == 0 {
		queryWords = strings.Fields(q)
	}
	titleWords := make(map[string]struct{})
	for _, w := range strings.Fields(t) {
		titleWords[w] = struct{}{}
	}
	found := 0
	for _, w := range queryWords {
		if _, ok := titleWords[w]; ok {
			found++
		}
	}
	overlap := float64(found) / float64(len(queryWords))

	score := 0.6*similarity + 0.4*overlap
	if score > 1 {
		score = 1
	}
	return score
}

// TitleCoverage is the share of the title's significant words that appear
// in the query, from 0 to 1. A title found by a shortened query should be
// mostly contained in the full one.
func TitleCoverage(query, title string) float64 {
	q, t := NormalizeTitle(query), NormalizeTitle(title)
	titleWords := significantWords(t)
	if len(titleWords) == 0 {
		titleWords = strings.Fields(t)
	}
	if q == "" || len(titleWords) == 0 {
		return 0
	}
	queryWords := make(map[string]struct{})
	for _, w := range strings.Fields(q) {
		queryWords[w] = struct{}{}
	}
	found := 0
	for _, w := range titleWords {
		if _, ok := queryWords[w]; ok {
			found++
		}
	}
	return float64(found) / float64(len(titleWords))
}

// OrderScore is the coarse ranking bonus of a candidate: 1, plus one for an
// exact title, one for a title containing the query and one for a
// platform match.
func OrderScore(query, title string, platformMatch bool) int {
	q, t := NormalizeTitle(query), NormalizeTitle(title)
	order := 1
	if q != "" && q == t {
		order++
	}
	if q != "" && strings.Contains(t, q) {
		order++
	}
	if platformMatch {
		order++
	}
	return order
}

// ScoreCandidate fills the Order and Score of c against query.
func ScoreCandidate(query string, c *Candidate, platformMatch bool) {
	c.Order = OrderScore(query, c.DisplayName, platformMatch)
	c.Score = MatchScore(query, c.DisplayName)
}

// Rank sorts candidates best first: by Order, then Score, then the position
// the site listed them in.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Order != b.Order {
			return a.Order > b.Order
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Position < b.Position
	})
}
