package reports

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/grabber/vo"
)

type scrapeResultFilter func(res vo.ScrapeResult) bool
type reporter func(status vo.Status, w io.Writer, filter scrapeResultFilter)

func GetReportHandlerMenuHTML(basePath string) string {
	return `
	<p>Grabber report menu</p>
	<ul>
		<li><a href="` + basePath + `/summary">summary of status codes and performance per site</a></li>
		<li><a href="` + basePath + `/results">all plain results (this can be a very long doc)</a></li>
		<li><a href="` + basePath + `/list">list of all jobs / results</a></li>
		<li><a href="` + basePath + `/highscore">highscore - all results sorted by request duration</a></li>
		<li><a href="` + basePath + `/broken-links">dead listings and the index pages linking them</a></li>
		<li><a href="` + basePath + `/duplicates">duplicate titles and listings</a></li>
		<li><a href="` + basePath + `/redirects">redirects</a></li>
		<li><a href="` + basePath + `/validations">validations - missing fields and pages without listings</a></li>
		<li><a href="` + basePath + `/errors">errors - calls that failed or returned error status codes</a></li>
		<li><a href="` + basePath + `/links">links - index pages every listing was found on</a></li>
	</ul>
	<p>query parameters</p>
	<table>
		<tr>
			<td>url paramter</td>
			<td>function</td>
			<td>examples</td>
		</tr>
		<tr>
			<td>status</td>
			<td>show only given statuses in given order</td>
			<td>?status=complete,running</td>
		</tr>
		<tr>
			<td>url</td>
			<td>filter only for that one url</td>
			<td>?url=http...</td>
		</tr>
		<tr>
			<td>prefix</td>
			<td>filter all urls with given prefix</td>
			<td>?prefix=http...</td>
		</tr>
		<tr>
			<td>kind</td>
			<td>filter by page kind</td>
			<td>?kind=listing</td>
		</tr>
	</table>
	`
}

func getReporter(path string) reporter {
	switch {
	case strings.HasPrefix(path, "duplicates"):
		return reportDuplicates
	case strings.HasPrefix(path, "broken-links"):
		return reportBrokenLinks
	case strings.HasPrefix(path, "results"):
		return reportResults
	case strings.HasPrefix(path, "list"):
		return reportList
	case strings.HasPrefix(path, "highscore"):
		return reportHighscore
	case strings.HasPrefix(path, "summary"):
		return reportSummary
	case strings.HasPrefix(path, "errors"):
		return reportErrors
	case strings.HasPrefix(path, "validations"):
		return reportValidations
	case strings.HasPrefix(path, "redirects"):
		return reportRedirects
	case strings.HasPrefix(path, "links"):
		return reportLinks
	default:
		return nil
	}
}

// getFilter combines the url, prefix and kind query parameters.
func getFilter(query url.Values) scrapeResultFilter {
	filters := []scrapeResultFilter{}
	if u := query.Get("url"); u != "" {
		filters = append(filters, func(res vo.ScrapeResult) bool {
			return res.TargetURL == u
		})
	}
	if prefix := query.Get("prefix"); prefix != "" {
		filters = append(filters, func(res vo.ScrapeResult) bool {
			return strings.HasPrefix(res.TargetURL, prefix)
		})
	}
	if kind := query.Get("kind"); kind != "" {
		filters = append(filters, func(res vo.ScrapeResult) bool {
			return string(res.Kind) == kind
		})
	}
	if len(filters) == 0 {
		return nil
	}
	return func(res vo.ScrapeResult) bool {
		for _, f := range filters {
			if !f(res) {
				return false
			}
		}
		return true
	}
}

func GetReportHandler(basePath string) func(
	w http.ResponseWriter, r *http.Request,
	completeStatus, runningStatus *vo.Status,
) {
	return func(
		w http.ResponseWriter, r *http.Request,
		completeStatus, runningStatus *vo.Status,
	) {
		path := strings.TrimPrefix(r.URL.Path, basePath+"/")
		rep := getReporter(path)
		if rep == nil {
			http.NotFound(w, r)
			return
		}
		rawStatuses := strings.Split(r.URL.Query().Get("status"), ",")
		statuses := []string{}
		for _, rawStatus := range rawStatuses {
			rawStatus = strings.TrimSpace(rawStatus)
			switch rawStatus {
			case statusComplete, statusRunning:
				statuses = append(statuses, rawStatus)
			}
		}
		if len(statuses) == 0 {
			statuses = []string{statusRunning, statusComplete}
		}
		report(rep, w, getFilter(r.URL.Query()), statuses, completeStatus, runningStatus)
	}
}

const (
	statusRunning  string = "running"
	statusComplete string = "complete"
)

func report(
	r reporter, w io.Writer, filter scrapeResultFilter,
	statuses []string, completeStatus, runningStatus *vo.Status,
) {
	_, println, _ := printers(w)
	for _, statusName := range statuses {
		var status *vo.Status
		switch statusName {
		case statusRunning:
			status = runningStatus
		case statusComplete:
			status = completeStatus
		}
		if status != nil {
			println("STATUS", statusName)
			println("=============================================================================")
			r(*status, w, filter)
			println()
			println()
		} else {
			println("STATUS", statusName, "is nil")
		}
	}
}

func printers(w io.Writer) (printh func(header ...interface{}), println func(a ...interface{}), printsep func()) {
	printsep = func() {
		fmt.Fprintln(w, "-----------------------------------------------------------------------------")
	}
	println = func(a ...interface{}) { fmt.Fprintln(w, a...) }
	printh = func(header ...interface{}) {
		println()
		println(header...)
		printsep()
	}
	return
}

type duplications map[string][]string

func (d duplications) add(value, url string) {
	existingURLs, ok := d[value]
	if ok {
		for _, existingURL := range existingURLs {
			if existingURL == url {
				return
			}
		}
	}
	d[value] = append(d[value], url)
}

func (d duplications) printlnDuplications(w io.Writer) {
	_, println, _ := printers(w)
	values := make([]string, len(d))
	i := 0
	for value := range d {
		values[i] = value
		i++
	}
	sort.Strings(values)
	for _, value := range values {
		urls := d[value]
		sort.Strings(urls)
		if len(urls) > 1 {
			println(value)
			for _, url := range urls {
				println("	", url)
			}
		}
	}
}

type uniqueList []string

func (ul *uniqueList) add(v string) {
	for _, ev := range *ul {
		if ev == v {
			return
		}
	}
	*ul = append(*ul, v)
}

func reportList(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("results", len(status.Results))
	results := []string{}
	for _, res := range status.Results {
		if filter != nil && !filter(res) {
			continue
		}
		results = append(results, strconv.Itoa(res.Code)+" "+string(res.Kind)+" "+res.TargetURL)
	}
	sort.Strings(results)
	for i, r := range results {
		println(i, r)
	}
	printh("open jobs")
	jobs := []string{}
	for url, active := range status.Jobs {
		if !active {
			jobs = append(jobs, url)
		}
	}
	sort.Strings(jobs)
	for i, url := range jobs {
		println(i, url)
	}
}

func reportSummary(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, _, _ := printers(w)
	printh("summary", status.Site)
	ReportSummaryBody(status, w, filter)
}

// ReportSummaryBody prints status code counts and the duration buckets of
// every site.
func ReportSummaryBody(status vo.Status, w io.Writer, filter scrapeResultFilter) {
	printh, println, _ := printers(w)
	printh("status codes")
	statusMap := map[int]int{}
	results := map[string]vo.ScrapeResult{}
	for targetURL, r := range status.Results {
		if filter != nil && !filter(r) {
			continue
		}
		statusMap[r.Code]++
		results[targetURL] = r
	}
	codes := sort.IntSlice{}
	for code := range statusMap {
		codes = append(codes, code)
	}
	sort.Sort(codes)
	for _, code := range codes {
		println(code, statusMap[code])
	}
	printh("performance buckets")
	siteBucketListStatus(w, results)
}

func siteBucketListStatus(
	writer io.Writer,
	results map[string]vo.ScrapeResult,
) {
	sites := map[string]int{}
	first := time.Time{}
	last := time.Time{}
	for _, r := range results {
		sites[r.Site]++
		if first.IsZero() || r.Time.Before(first) {
			first = r.Time
		}
		if r.Time.After(last) {
			last = r.Time
		}
	}
	siteNames := make([]string, 0, len(sites))
	for site := range sites {
		siteNames = append(siteNames, site)
	}
	sort.Strings(siteNames)
	bucketList := vo.GetBucketList()
	for _, siteName := range siteNames {
		fmt.Fprintln(writer, "site: "+siteName)
		counts := map[string]int{}
		for _, result := range results {
			if result.Site != siteName {
				continue
			}
			if bucket, ok := bucketList.Bucket(result.Duration); ok {
				counts[bucket.Name]++
			}
		}
		for _, bucket := range bucketList {
			bucketI := counts[bucket.Name]
			fmt.Fprintln(
				writer,
				bucketI,
				"	",
				math.Round(float64(bucketI)/float64(sites[siteName])*100),
				"%	(", bucket.From, "=>", bucket.To, ")",
				bucket.Name,
			)
		}
	}
	if len(results) > 0 {
		fmt.Fprintln(writer, "=>", first.Format(time.RFC3339), last.Format(time.RFC3339), last.Sub(first))
	}
}
