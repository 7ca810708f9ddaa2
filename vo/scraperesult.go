package vo

import "time"

type PageKind string

const (
	// PageKindIndex is a search result page listing offers.
	PageKindIndex PageKind = "index"
	// PageKindListing is the detail page of a single offer.
	PageKindListing PageKind = "listing"
)

// LinkList counts how often a normalized listing link was found on a page.
type LinkList map[string]int

type Redirect struct {
	URL  string
	Code int
}

type Structure struct {
	Title       string
	Description string
	Robots      string
	Canonical   string
	H1          string
}

type ScrapeResult struct {
	TargetURL   string
	Site        string
	Kind        PageKind
	Error       string
	Code        int
	Status      string
	ContentType string
	Length      int
	Duration    time.Duration
	Time        time.Time
	Redirects   []Redirect
	Links       LinkList
	LastPage    int `yaml:",omitempty"`
	Structure   Structure
	Fields      map[string]string `yaml:",omitempty"`
	Validations Validations       `yaml:",omitempty"`
}

// FinalURL is the url the result was served from after all redirects.
func (r ScrapeResult) FinalURL() string {
	if len(r.Redirects) > 0 {
		return r.Redirects[len(r.Redirects)-1].URL
	}
	return r.TargetURL
}
