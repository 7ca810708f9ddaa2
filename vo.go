package grabber

import "github.com/foomo/grabber/vo"

type ServiceStatus struct {
	Site    string
	Open    int
	Done    int
	Pending int
}

// ResultsPage is one page of filtered results.
type ResultsPage struct {
	FilterOptions FilterOptions
	Results       []vo.ScrapeResult
	Page          int
	NumPages      int
}
