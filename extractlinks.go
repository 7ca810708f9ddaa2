package grabber

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/grabber/config"
	"github.com/foomo/grabber/vo"
)

// normalizeLink resolves a link against the page it was found on and drops
// the fragment. Links to the same host keep the credentials of the page.
func normalizeLink(pageURL *url.URL, linkURL string) (normalizedLink *url.URL, err error) {
	// let us ditch anchors
	linkURL, _, _ = strings.Cut(strings.TrimSpace(linkURL), "#")
	link, errParseLink := url.Parse(linkURL)
	if errParseLink != nil {
		return nil, errParseLink
	}
	normalizedLink = pageURL.ResolveReference(link)
	normalizedLink.Fragment = ""
	if normalizedLink.User == nil && normalizedLink.Host == pageURL.Host {
		normalizedLink.User = pageURL.User
	}
	return normalizedLink, nil
}

// extractListingLinks collects the listing links of an index page. External
// links and links robots.txt forbids are skipped.
func extractListingLinks(
	doc *goquery.Document,
	listings config.Listings,
	pageURL *url.URL,
	rules *robotsRules,
) (links vo.LinkList) {
	links = vo.LinkList{}
	doc.Find(listings.Selector).Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr(listings.Attr)
		if !exists || strings.TrimSpace(href) == "" {
			return
		}
		linkU, errParseLinkU := normalizeLink(pageURL, href)
		if errParseLinkU != nil {
			return
		}
		if linkU.Host != pageURL.Host || linkU.Scheme != pageURL.Scheme {
			// ignoring external links
			return
		}
		if !rules.Test(linkU.Path) {
			// robots say no
			return
		}
		links[linkU.String()]++
	})
	return links
}
