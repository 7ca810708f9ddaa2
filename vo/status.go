package vo

import "sort"

type Status struct {
	Site                 string
	Results              map[string]ScrapeResult
	Jobs                 map[string]bool
	ScrapeSpeed          float64
	ScrapeSpeedAverage   float64
	ScrapeWindowRequests int64
	ScrapeWindowSeconds  int64
	ScrapeTotalRequests  int64
	ScrapeTotalSeconds   int64
}

// Listings collects the listings of all successfully scraped listing pages
// sorted by url.
func (s Status) Listings() []Listing {
	listings := []Listing{}
	for _, r := range s.Results {
		if r.Kind != PageKindListing || r.Error != "" || r.Code != 200 {
			continue
		}
		listings = append(listings, Listing{
			Site:        r.Site,
			URL:         r.TargetURL,
			Fields:      r.Fields,
			Validations: r.Validations,
		})
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].URL < listings[j].URL
	})
	return listings
}
