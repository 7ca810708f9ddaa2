package reports

import (
	"io"
	"net/http"
	"sort"

	"github.com/foomo/grabber/vo"
)

// reportBrokenLinks lists listings that are gone and the index pages that
// still link them.
func reportBrokenLinks(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("dead listings")
	broken := map[string][]string{}
	// collect dead listings
	for _, res := range status.Results {
		if filter != nil && !filter(res) {
			continue
		}
		if res.Kind == vo.PageKindListing && (res.Code == http.StatusNotFound || res.Code == http.StatusGone) {
			broken[res.TargetURL] = []string{}
		}
	}
	// see where they link from
	for _, res := range status.Results {
		if res.Kind != vo.PageKindIndex {
			continue
		}
		for l := range res.Links {
			if from, ok := broken[l]; ok {
				broken[l] = append(from, res.TargetURL)
			}
		}
	}
	// spit it out
	brokenKeys := make([]string, 0, len(broken))
	for k, links := range broken {
		sort.Strings(links)
		brokenKeys = append(brokenKeys, k)
	}
	sort.Strings(brokenKeys)
	for _, brokenKey := range brokenKeys {
		println(brokenKey, " (", len(broken[brokenKey]), "):")
		for i, from := range broken[brokenKey] {
			if i > 19 {
				println("	...")
				break
			}
			println("	", from)
		}
	}
}
