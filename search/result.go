package search

import "fmt"

// Candidate is one search hit returned by a scraper.
type Candidate struct {
	ID              string  `json:"id"`               // scraper specific id, for GameFAQs the game page path
	DisplayName     string  `json:"display_name"`     // title as shown by the site
	Platform        string  `json:"platform"`         // canonical platform name
	ScraperPlatform string  `json:"scraper_platform"` // platform label shown by the site
	URL             string  `json:"url"`
	Order           int     `json:"order"` // rank bonus, higher first
	Score           float64 `json:"score"` // title similarity in [0,1]
	Position        int     `json:"position"`
}

func (c Candidate) String() string {
	if c.ScraperPlatform != "" {
		return fmt.Sprintf("%s (%s)", c.DisplayName, c.ScraperPlatform)
	}
	return c.DisplayName
}
