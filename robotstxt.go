package grabber

import (
	"context"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// robotsRules allows a path only when every configured agent may fetch it,
// since requests rotate through the agents. A nil rule set allows everything.
type robotsRules struct {
	data   *robotstxt.RobotsData
	agents []string
}

func newRobotsRules(data *robotstxt.RobotsData, agents []string) *robotsRules {
	return &robotsRules{
		data:   data,
		agents: agents,
	}
}

func (rr *robotsRules) Test(path string) bool {
	if rr == nil || rr.data == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	if len(rr.agents) == 0 {
		return rr.data.TestAgent(path, "*")
	}
	for _, agent := range rr.agents {
		if !rr.data.TestAgent(path, agent) {
			return false
		}
	}
	return true
}

func (g *Grabber) getRobotsData(ctx context.Context, siteURL *url.URL) (data *robotstxt.RobotsData, err error) {
	robotsURL := url.URL{Scheme: siteURL.Scheme, Host: siteURL.Host, User: siteURL.User, Path: "/robots.txt"}
	req, errRequest := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if errRequest != nil {
		return nil, errRequest
	}
	pc, errAcquire := g.pool.acquire(ctx)
	if errAcquire != nil {
		return nil, errAcquire
	}
	defer g.pool.release(pc)
	req.Header.Set("User-Agent", pc.agent())
	if errWait := g.limiterFor(siteURL.Host).Wait(ctx); errWait != nil {
		return nil, errWait
	}
	resp, errGet := pc.client.Do(req)
	if errGet != nil {
		return nil, errGet
	}
	defer resp.Body.Close()
	return robotstxt.FromResponse(resp)
}
