package reports

import (
	"io"
	"sort"

	"github.com/foomo/grabber/vo"
)

func reportValidations(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("validations")
	targetURLs := []string{}
	groups := map[string]int{}
	for _, r := range status.Results {
		if filter != nil && !filter(r) {
			continue
		}
		if len(r.Validations) > 0 {
			targetURLs = append(targetURLs, r.TargetURL)
			for group, count := range r.Validations.CountByGroup() {
				groups[group] += count
			}
		}
	}
	sort.Strings(targetURLs)
	for _, targetURL := range targetURLs {
		println(targetURL)
		for _, v := range status.Results[targetURL].Validations {
			println("	", v.Group, v.Level, v.Message)
		}
	}
	groupNames := make([]string, 0, len(groups))
	for group := range groups {
		groupNames = append(groupNames, group)
	}
	sort.Strings(groupNames)
	printh("validations per group")
	for _, group := range groupNames {
		println(group, groups[group])
	}
}
