package grabber

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/foomo/grabber/reports"
	"github.com/foomo/grabber/vo"
)

func line(writer io.Writer) {
	fmt.Fprintln(writer, "------------------------------------------------------------------------")
}

func headline(writer io.Writer, v ...interface{}) {
	line(writer)
	v = append([]interface{}{"~"}, v...)
	fmt.Fprintln(writer, v...)
	line(writer)
}

// PrintStatus writes a console summary of a crawl.
func PrintStatus(writer io.Writer, status vo.Status) {
	headline(writer,
		"Status:", status.Site,
		" jobs: ", len(status.Jobs),
		", results: ", len(status.Results),
		", listings: ", len(status.Listings()),
	)
	headline(writer,
		" scrape window: ", status.ScrapeWindowRequests, status.ScrapeWindowSeconds,
		", scrape speed: ", status.ScrapeSpeed, "requests/s",
	)
	headline(writer,
		" scrape average: ", status.ScrapeTotalRequests, status.ScrapeTotalSeconds,
		", scrape speed: ", status.ScrapeSpeedAverage, "requests/s",
	)

	reports.ReportSummaryBody(status, writer, nil)

	headline(writer, "currently scanning")
	active := []string{}
	for targetURL, isActive := range status.Jobs {
		if isActive {
			active = append(active, targetURL)
		}
	}
	sort.Strings(active)
	for _, targetURL := range active {
		fmt.Fprintln(writer, targetURL)
	}

	notFoundKeys := []string{}
	errorKeys := []string{}
	for targetURL, result := range status.Results {
		switch {
		case result.Code == http.StatusNotFound:
			notFoundKeys = append(notFoundKeys, targetURL)
		case result.Code >= 500, result.Error != "":
			errorKeys = append(errorKeys, targetURL)
		}
	}
	sort.Strings(errorKeys)
	sort.Strings(notFoundKeys)

	headline(writer, "bad errors")
	for _, targetURL := range errorKeys {
		result := status.Results[targetURL]
		fmt.Fprintln(writer, result.Code, result.Status, result.TargetURL, result.Error)
	}
	headline(writer, "dead listings")
	for _, targetURL := range notFoundKeys {
		fmt.Fprintln(writer, targetURL)
	}
}
