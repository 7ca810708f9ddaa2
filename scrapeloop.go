package grabber

import (
	"context"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/foomo/grabber/vo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type poolClient struct {
	agents []string
	client *http.Client
}

// agent picks a random user agent for the next request.
func (pc *poolClient) agent() string {
	if len(pc.agents) == 0 {
		return ""
	}
	return pc.agents[rand.IntN(len(pc.agents))]
}

type clientPool struct {
	agents  []string
	clients chan *poolClient
}

func newClientPool(concurrency int, timeout time.Duration, agents []string, useCookies bool) *clientPool {
	clients := make(chan *poolClient, concurrency)
	for i := 0; i < concurrency; i++ {
		client := &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
		if useCookies {
			cookieJar, _ := cookiejar.New(nil)
			client.Jar = cookieJar
		}
		clients <- &poolClient{
			agents: agents,
			client: client,
		}
	}
	return &clientPool{
		agents:  agents,
		clients: clients,
	}
}

func (cp *clientPool) acquire(ctx context.Context) (*poolClient, error) {
	select {
	case pc := <-cp.clients:
		return pc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (cp *clientPool) release(pc *poolClient) {
	cp.clients <- pc
}

// limiterFor returns the request rate limiter of a host.
func (g *Grabber) limiterFor(host string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.limiters[host]; ok {
		return l
	}
	limit := rate.Inf
	if g.conf.RequestsPerSecond > 0 {
		limit = rate.Limit(g.conf.RequestsPerSecond)
	}
	l := rate.NewLimiter(limit, 1)
	g.limiters[host] = l
	return l
}

// scrapeAll scrapes the given urls with at most conf.Concurrency requests in
// flight. Urls that were scraped or queued before are skipped. Results are
// returned in the order of the urls that were actually scraped.
func (g *Grabber) scrapeAll(
	ctx context.Context,
	ext *extractor,
	kind vo.PageKind,
	targetURLs []string,
	rules *robotsRules,
) []vo.ScrapeResult {
	targetURLs = g.addJobs(targetURLs)
	results := make([]vo.ScrapeResult, len(targetURLs))
	group := errgroup.Group{}
	group.SetLimit(g.conf.Concurrency)
	for i, targetURL := range targetURLs {
		group.Go(func() error {
			results[i] = g.done(g.scrapeJob(ctx, ext, kind, targetURL, rules))
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (g *Grabber) scrapeJob(
	ctx context.Context,
	ext *extractor,
	kind vo.PageKind,
	targetURL string,
	rules *robotsRules,
) vo.ScrapeResult {
	failed := func(err error) vo.ScrapeResult {
		return vo.ScrapeResult{
			TargetURL: targetURL,
			Site:      ext.site.Name,
			Kind:      kind,
			Error:     err.Error(),
			Time:      time.Now(),
		}
	}
	u, errParse := url.Parse(targetURL)
	if errParse != nil {
		return failed(errParse)
	}
	pc, errAcquire := g.pool.acquire(ctx)
	if errAcquire != nil {
		return failed(errAcquire)
	}
	defer g.pool.release(pc)
	if errWait := g.limiterFor(u.Host).Wait(ctx); errWait != nil {
		return failed(errWait)
	}
	g.startJob(targetURL)
	return g.scrape(ctx, pc, ext, kind, targetURL, rules)
}
