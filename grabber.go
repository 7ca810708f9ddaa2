package grabber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/foomo/grabber/config"
	"github.com/foomo/grabber/decoder"
	"github.com/foomo/grabber/vo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrStartPage       = errors.New("could not scrape start page")
	ErrRobotsForbidden = errors.New("robots.txt does not allow access to the start path (you can either ignore robots or try as a different user agent)")
	ErrUnknownSite     = errors.New("unknown site")
)

// Grabber crawls the configured sites one after another. Pages of a site are
// fetched concurrently through a pool of clients.
type Grabber struct {
	conf     *config.Config
	decoder  *decoder.Decoder
	logger   *zap.Logger
	metrics  *metrics
	pool     *clientPool
	limiters map[string]*rate.Limiter

	mu             sync.Mutex
	site           string
	results        map[string]vo.ScrapeResult
	jobs           map[string]bool
	completeStatus *vo.Status
}

func NewGrabber(conf *config.Config, logger *zap.Logger) (g *Grabber, err error) {
	if conf == nil {
		return nil, errors.New("config must not be nil")
	}
	if errValidate := conf.Validate(); errValidate != nil {
		return nil, errValidate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g = &Grabber{
		conf:     conf,
		decoder:  decoder.New(conf.Decoder.Config, decoder.WithLogger(logger.Named("decoder"))),
		logger:   logger,
		metrics:  newMetrics(),
		pool:     newClientPool(conf.Concurrency, conf.Timeout, conf.Agents, conf.UseCookies),
		limiters: map[string]*rate.Limiter{},
		results:  map[string]vo.ScrapeResult{},
		jobs:     map[string]bool{},
	}
	return g, nil
}

// SiteFunc is called with the listings of every site grabbed without error.
type SiteFunc func(site config.Site, listings []vo.Listing) error

// GrabAll grabs every configured site in order, see GrabSites.
func (g *Grabber) GrabAll(ctx context.Context, onSite SiteFunc) (listings map[string][]vo.Listing, err error) {
	return g.GrabSites(ctx, g.conf.Sites, onSite)
}

// GrabSites grabs the given sites in order. Sites are never fetched in
// parallel. A failing site is logged and the remaining sites are still
// grabbed, the returned error joins all site and onSite errors. onSite may be
// nil.
func (g *Grabber) GrabSites(ctx context.Context, sites []config.Site, onSite SiteFunc) (listings map[string][]vo.Listing, err error) {
	listings = map[string][]vo.Listing{}
	errs := []error{}
	for _, site := range sites {
		if errCtx := ctx.Err(); errCtx != nil {
			errs = append(errs, errCtx)
			break
		}
		siteListings, errGrab := g.Grab(ctx, site)
		if errGrab != nil {
			g.logger.Error("could not grab site", zap.String("site", site.Name), zap.Error(errGrab))
			errs = append(errs, fmt.Errorf("%s: %w", site.Name, errGrab))
			continue
		}
		listings[site.Name] = siteListings
		if onSite != nil {
			if errSite := onSite(site, siteListings); errSite != nil {
				errs = append(errs, fmt.Errorf("%s: %w", site.Name, errSite))
			}
		}
	}
	return listings, errors.Join(errs...)
}

// GrabSite grabs a configured site by name.
func (g *Grabber) GrabSite(ctx context.Context, name string) ([]vo.Listing, error) {
	site, ok := g.conf.Site(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, name)
	}
	return g.Grab(ctx, site)
}

// Grab scrapes the start page of a site, all further index pages up to the
// detected last page and then every listing linked from them.
func (g *Grabber) Grab(ctx context.Context, site config.Site) (listings []vo.Listing, err error) {
	startURL, errStart := site.StartURL()
	if errStart != nil {
		return nil, errStart
	}
	ext, errExtractor := newExtractor(site)
	if errExtractor != nil {
		return nil, errExtractor
	}
	logger := g.logger.With(zap.String("site", site.Name))
	g.restart(site.Name)

	var rules *robotsRules
	if !g.conf.IgnoreRobots {
		robotsData, errRobots := g.getRobotsData(ctx, startURL)
		if errRobots != nil {
			return nil, fmt.Errorf("could not load robots.txt: %w", errRobots)
		}
		rules = newRobotsRules(robotsData, g.conf.Agents)
		if !rules.Test(startURL.Path) {
			return nil, fmt.Errorf("%w: %s", ErrRobotsForbidden, startURL.Path)
		}
	}

	started := time.Now()
	logger.Info("grabbing site", zap.String("start", startURL.String()))
	first := g.scrapeAll(ctx, ext, vo.PageKindIndex, []string{startURL.String()}, rules)[0]
	if first.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrStartPage, first.TargetURL, first.Error)
	}
	if first.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrStartPage, first.TargetURL, first.Status)
	}

	lastPage := first.LastPage
	if site.MaxPages > 0 && lastPage > site.MaxPages {
		lastPage = site.MaxPages
	}
	logger.Info("found last page", zap.Int("lastPage", first.LastPage), zap.Int("pages", lastPage))
	pageURLs := []string{}
	for page := 2; page <= lastPage; page++ {
		pageURLs = append(pageURLs, pageURL(startURL, site.PageParam, page))
	}
	indexResults := append([]vo.ScrapeResult{first}, g.scrapeAll(ctx, ext, vo.PageKindIndex, pageURLs, rules)...)

	listingURLs := collectListingURLs(indexResults)
	logger.Info("scraping listings", zap.Int("listings", len(listingURLs)))
	g.scrapeAll(ctx, ext, vo.PageKindListing, listingURLs, rules)
	if errCtx := ctx.Err(); errCtx != nil {
		return nil, errCtx
	}

	status := g.complete()
	listings = status.Listings()
	g.metrics.listings.WithLabelValues(site.Name).Add(float64(len(listings)))
	logger.Info(
		"grabbed site",
		zap.Int("pages", len(status.Results)),
		zap.Int("listings", len(listings)),
		zap.Duration("duration", time.Since(started)),
	)
	return listings, nil
}

// GetStatus returns a snapshot of the running crawl.
func (g *Grabber) GetStatus() vo.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	resultsCopy := make(map[string]vo.ScrapeResult, len(g.results))
	for targetURL, result := range g.results {
		resultsCopy[targetURL] = result
	}
	jobsCopy := make(map[string]bool, len(g.jobs))
	for targetURL, active := range g.jobs {
		jobsCopy[targetURL] = active
	}
	status := vo.Status{
		Site:    g.site,
		Results: resultsCopy,
		Jobs:    jobsCopy,
	}
	scrapeSpeed(&status, time.Now(), time.Minute)
	return status
}

// CompleteStatus returns the status of the last finished site, nil before
// any site completed.
func (g *Grabber) CompleteStatus() *vo.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completeStatus
}

func (g *Grabber) Config() *config.Config {
	return g.conf
}

func (g *Grabber) restart(site string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.site = site
	g.results = map[string]vo.ScrapeResult{}
	g.jobs = map[string]bool{}
	g.metrics.progressOpen.Set(0)
	g.metrics.progressComplete.Set(0)
}

func (g *Grabber) complete() vo.Status {
	status := g.GetStatus()
	g.mu.Lock()
	g.completeStatus = &status
	g.mu.Unlock()
	return status
}

// addJobs registers open jobs, urls with a result or a job already are
// skipped and not returned.
func (g *Grabber) addJobs(targetURLs []string) (added []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	added = []string{}
	for _, targetURL := range targetURLs {
		_, existingResultOK := g.results[targetURL]
		_, existingJobOK := g.jobs[targetURL]
		if !existingResultOK && !existingJobOK {
			g.jobs[targetURL] = false
			added = append(added, targetURL)
		}
	}
	g.metrics.progressOpen.Set(float64(len(g.jobs)))
	return added
}

func (g *Grabber) startJob(targetURL string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.jobs[targetURL] = true
}

func (g *Grabber) done(result vo.ScrapeResult) vo.ScrapeResult {
	statusCodeAsString := strconv.Itoa(result.Code)
	g.metrics.statusCodes.WithLabelValues(statusCodeAsString).Inc()
	g.metrics.scrapes.WithLabelValues(result.Site, string(result.Kind), statusCodeAsString).Inc()
	g.metrics.scrapeDurations.WithLabelValues(result.Site).Observe(result.Duration.Seconds())
	g.metrics.scrapesTotal.Inc()
	trackFieldMisses(g.metrics, result)

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.jobs, result.TargetURL)
	g.results[result.TargetURL] = result
	g.metrics.progressOpen.Set(float64(len(g.jobs)))
	g.metrics.progressComplete.Set(float64(len(g.results)))
	return result
}

// scrapeSpeed fills the request rates of a status from its result times.
func scrapeSpeed(status *vo.Status, now time.Time, scrapeWindow time.Duration) {
	first := now.Unix()
	scrapeWindowFirst := now.Unix()
	for _, r := range status.Results {
		status.ScrapeTotalRequests++
		if first > r.Time.Unix() {
			first = r.Time.Unix()
		}
		if now.Sub(r.Time) < scrapeWindow {
			if scrapeWindowFirst > r.Time.Unix() {
				scrapeWindowFirst = r.Time.Unix()
			}
			status.ScrapeWindowRequests++
		}
	}
	status.ScrapeWindowSeconds = now.Unix() - scrapeWindowFirst
	status.ScrapeTotalSeconds = now.Unix() - first
	if status.ScrapeWindowSeconds > 0 {
		status.ScrapeSpeed = float64(status.ScrapeWindowRequests) / float64(status.ScrapeWindowSeconds)
	}
	if status.ScrapeTotalSeconds > 0 {
		status.ScrapeSpeedAverage = float64(status.ScrapeTotalRequests) / float64(status.ScrapeTotalSeconds)
	}
}

// pageURL sets the page parameter on the start url.
func pageURL(startURL *url.URL, pageParam string, page int) string {
	u := *startURL
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// collectListingURLs gathers the listing links of all index pages, sorted.
func collectListingURLs(indexResults []vo.ScrapeResult) []string {
	unique := map[string]bool{}
	for _, r := range indexResults {
		for link := range r.Links {
			unique[link] = true
		}
	}
	listingURLs := make([]string, 0, len(unique))
	for link := range unique {
		listingURLs = append(listingURLs, link)
	}
	sort.Strings(listingURLs)
	return listingURLs
}
