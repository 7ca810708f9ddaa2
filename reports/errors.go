package reports

import (
	"io"
	"sort"

	"github.com/foomo/grabber/vo"
)

// reportErrors groups failed requests by status code, requests that never got
// a response are listed under code 0 with their error.
func reportErrors(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("errors")
	errorBuckets := map[int]map[string]vo.ScrapeResult{}
	codes := sort.IntSlice{}
	for _, res := range status.Results {
		if filter != nil && !filter(res) {
			continue
		}
		if res.Code >= 400 || res.Error != "" {
			_, mapOK := errorBuckets[res.Code]
			if !mapOK {
				codes = append(codes, res.Code)
				errorBuckets[res.Code] = map[string]vo.ScrapeResult{}
			}
			errorBuckets[res.Code][res.TargetURL] = res
		}
	}
	sort.Sort(codes)
	for _, code := range codes {
		println(code, ":")
		urls := make([]string, 0, len(errorBuckets[code]))
		for targetURL := range errorBuckets[code] {
			urls = append(urls, targetURL)
		}
		sort.Strings(urls)
		for _, targetURL := range urls {
			if errMsg := errorBuckets[code][targetURL].Error; errMsg != "" {
				println("	", targetURL, errMsg)
				continue
			}
			println("	", targetURL)
		}
	}
}
