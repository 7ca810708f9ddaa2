package reports

import (
	"io"
	"sort"

	"github.com/foomo/grabber/vo"
)

// reportLinks prints for every listing the index pages it was found on.
func reportLinks(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("links", len(status.Results))
	linkedFrom := map[string][]string{}
	for _, r := range status.Results {
		for l := range r.Links {
			linkedFrom[l] = append(linkedFrom[l], r.TargetURL)
		}
	}
	targetURLs := []string{}
	for _, res := range status.Results {
		if res.Kind != vo.PageKindListing || (filter != nil && !filter(res)) {
			continue
		}
		targetURLs = append(targetURLs, res.TargetURL)
	}
	sort.Strings(targetURLs)
	for _, targetURL := range targetURLs {
		println(targetURL)
		links := linkedFrom[targetURL]
		sort.Strings(links)
		for _, l := range links {
			println("	", l)
		}
	}
}
