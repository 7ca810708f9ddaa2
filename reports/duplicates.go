package reports

import (
	"io"
	"sort"
	"strings"

	"github.com/foomo/grabber/vo"
)

// fingerprint joins the field values of a listing in field name order.
func fingerprint(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + fields[name]
	}
	return strings.Join(parts, ", ")
}

// reportDuplicates finds listings published more than once, under the same
// title or with identical field values.
func reportDuplicates(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	titles := duplications{}
	h1s := duplications{}
	listings := duplications{}
	missingTitles := uniqueList{}
	printh("duplicate listings")
	for _, r := range status.Results {
		if r.Kind != vo.PageKindListing || r.Error != "" || (filter != nil && !filter(r)) {
			continue
		}
		finalURL := r.FinalURL()
		if r.Structure.Title != "" {
			titles.add(r.Structure.Title, finalURL)
		} else {
			missingTitles.add(finalURL)
		}
		if r.Structure.H1 != "" {
			h1s.add(r.Structure.H1, finalURL)
		}
		if len(r.Fields) > 0 {
			listings.add(fingerprint(r.Fields), finalURL)
		}
	}
	printDuplicates := func(title string, d duplications) {
		if len(d) > 0 {
			printh(title)
			d.printlnDuplications(w)
		}
	}
	printDuplicates("duplicate titles", titles)
	printDuplicates("duplicate h1", h1s)
	printDuplicates("duplicate field values", listings)

	if len(missingTitles) > 0 {
		printh("missing titles")
		sort.Strings(missingTitles)
		for _, l := range missingTitles {
			println("	", l)
		}
	}
}
