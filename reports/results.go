package reports

import (
	"io"
	"sort"

	"github.com/foomo/grabber/vo"
	"gopkg.in/yaml.v3"
)

// reportResults dumps every result as yaml, sorted by url.
func reportResults(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("results", len(status.Results))
	targetURLs := make([]string, 0, len(status.Results))
	for targetURL, res := range status.Results {
		if filter != nil && !filter(res) {
			continue
		}
		targetURLs = append(targetURLs, targetURL)
	}
	sort.Strings(targetURLs)
	for _, targetURL := range targetURLs {
		res := status.Results[targetURL]
		yamlBytes, errYaml := yaml.Marshal(res)
		if errYaml != nil {
			println("could not print", res.TargetURL, errYaml)
			continue
		}
		println("---")
		println(string(yamlBytes))
	}
}
