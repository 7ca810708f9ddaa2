package grabber

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/grabber/vo"
)

const defaultPageSize = 50

var ErrInvalidQuery = errors.New("invalid query")

// Service exposes filtered and paged views of the running crawl.
type Service struct {
	Grabber *Grabber
}

func NewService(g *Grabber) *Service {
	return &Service{
		Grabber: g,
	}
}

func filter(resultMap map[string]vo.ScrapeResult, filterChain filterChain) {
	for targetURL, scrapeResult := range resultMap {
		for _, filterFunc := range filterChain {
			if !filterFunc(scrapeResult) {
				delete(resultMap, targetURL)
				break
			}
		}
	}
}

type filterFunc func(result vo.ScrapeResult) bool
type filterChain []filterFunc

type Filters struct {
	// Prefix is a path prefix relative to the base url of the site
	Prefix string
	Kind   vo.PageKind
	Status []int
	Errors []string
	MinDur time.Duration
	MaxDur time.Duration
}

type StatusStats struct {
	Code  int
	Count int
}

type FilterOptions struct {
	Status []StatusStats
	MinDur time.Duration
	MaxDur time.Duration
}

func getFilterChain(filters Filters) filterChain {
	chain := filterChain{}
	if filters.Prefix != "" {
		chain = append(chain, func(result vo.ScrapeResult) bool {
			return strings.HasPrefix(result.TargetURL, filters.Prefix)
		})
	}
	if filters.Kind != "" {
		chain = append(chain, func(result vo.ScrapeResult) bool {
			return result.Kind == filters.Kind
		})
	}
	if len(filters.Status) > 0 {
		chain = append(chain, func(result vo.ScrapeResult) bool {
			for _, status := range filters.Status {
				if result.Code == status {
					return true
				}
			}
			return false
		})
	}
	if len(filters.Errors) > 0 {
		chain = append(chain, func(result vo.ScrapeResult) bool {
			for _, e := range filters.Errors {
				if strings.Contains(result.Error, e) {
					return true
				}
			}
			return false
		})
	}
	if filters.MaxDur > 0 {
		chain = append(chain, func(result vo.ScrapeResult) bool {
			return result.Duration < filters.MaxDur
		})
	}
	if filters.MinDur > 0 {
		chain = append(chain, func(result vo.ScrapeResult) bool {
			return result.Duration > filters.MinDur
		})
	}
	return chain
}

func getFilterOptions(resultMap map[string]vo.ScrapeResult) FilterOptions {
	statusMap := map[int]int{}
	minDur := time.Duration(0)
	maxDur := time.Duration(0)
	first := true
	for _, result := range resultMap {
		statusMap[result.Code]++
		if result.Duration > maxDur {
			maxDur = result.Duration
		}
		if first || result.Duration < minDur {
			minDur = result.Duration
			first = false
		}
	}
	statusStats := []StatusStats{}
	for code, count := range statusMap {
		statusStats = append(statusStats, StatusStats{
			Code:  code,
			Count: count,
		})
	}
	sort.Slice(statusStats, func(i, j int) bool {
		return statusStats[i].Code < statusStats[j].Code
	})
	return FilterOptions{
		Status: statusStats,
		MinDur: minDur,
		MaxDur: maxDur,
	}
}

// GetResults filters the current results, sorts them by url and returns the
// requested zero based page.
func (s *Service) GetResults(
	filters Filters,
	page int,
	pageSize int,
) (filterOptions FilterOptions, results []vo.ScrapeResult, numPages int) {
	status := s.Grabber.GetStatus()
	resultMap := status.Results

	filterOptions = getFilterOptions(resultMap)
	if filters.Prefix != "" {
		if site, ok := s.Grabber.Config().Site(status.Site); ok {
			filters.Prefix = site.BaseURL + filters.Prefix
		}
	}
	filter(resultMap, getFilterChain(filters))

	urls := make([]string, 0, len(resultMap))
	for u := range resultMap {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	results = make([]vo.ScrapeResult, len(urls))
	for index, u := range urls {
		results[index] = resultMap[u]
	}

	if pageSize < 1 {
		pageSize = 1
	}
	numPages = (len(results) + pageSize - 1) / pageSize
	start := page * pageSize
	end := start + pageSize
	if start < 0 {
		start = 0
	}
	if end > len(results) {
		end = len(results)
	}
	if end <= start {
		return filterOptions, []vo.ScrapeResult{}, numPages
	}
	return filterOptions, results[start:end], numPages
}

func (s *Service) GetStatus() ServiceStatus {
	grabberStatus := s.Grabber.GetStatus()
	open := 0
	pending := 0
	for _, active := range grabberStatus.Jobs {
		if active {
			pending++
		} else {
			open++
		}
	}
	return ServiceStatus{
		Site:    grabberStatus.Site,
		Done:    len(grabberStatus.Results),
		Open:    open,
		Pending: pending,
	}
}

// Handler serves the service as json below basePath:
//
//	<basePath>/status
//	<basePath>/results?prefix=&kind=&status=200,404&errors=&mindur=&maxdur=&page=&pagesize=
func (s *Service) Handler(basePath string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(basePath+"/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.GetStatus())
	})
	mux.HandleFunc(basePath+"/results", func(w http.ResponseWriter, r *http.Request) {
		filters, page, pageSize, errQuery := parseResultsQuery(r.URL.Query())
		if errQuery != nil {
			http.Error(w, errQuery.Error(), http.StatusBadRequest)
			return
		}
		filterOptions, results, numPages := s.GetResults(filters, page, pageSize)
		writeJSON(w, ResultsPage{
			FilterOptions: filterOptions,
			Results:       results,
			Page:          page,
			NumPages:      numPages,
		})
	})
	return mux
}

func parseResultsQuery(query url.Values) (filters Filters, page, pageSize int, err error) {
	filters = Filters{
		Prefix: query.Get("prefix"),
		Kind:   vo.PageKind(query.Get("kind")),
	}
	for _, rawStatus := range splitList(query.Get("status")) {
		code, errAtoi := strconv.Atoi(rawStatus)
		if errAtoi != nil {
			return filters, 0, 0, fmt.Errorf("%w: status %q", ErrInvalidQuery, rawStatus)
		}
		filters.Status = append(filters.Status, code)
	}
	filters.Errors = splitList(query.Get("errors"))
	if filters.MinDur, err = parseDuration(query, "mindur"); err != nil {
		return filters, 0, 0, err
	}
	if filters.MaxDur, err = parseDuration(query, "maxdur"); err != nil {
		return filters, 0, 0, err
	}
	if page, err = parseInt(query, "page", 0); err != nil {
		return filters, 0, 0, err
	}
	if pageSize, err = parseInt(query, "pagesize", defaultPageSize); err != nil {
		return filters, 0, 0, err
	}
	return filters, page, pageSize, nil
}

func splitList(raw string) []string {
	values := []string{}
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func parseDuration(query url.Values, name string) (time.Duration, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	d, errParse := time.ParseDuration(raw)
	if errParse != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidQuery, name, raw)
	}
	return d, nil
}

func parseInt(query url.Values, name string, fallback int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return fallback, nil
	}
	i, errAtoi := strconv.Atoi(raw)
	if errAtoi != nil || i < 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidQuery, name, raw)
	}
	return i, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
