package grabber

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/foomo/grabber/decoder"
	"github.com/foomo/grabber/vo"
	"go.uber.org/zap"
)

const maxRedirects = 10

var (
	ErrNoBody          = errors.New("no body")
	ErrNotHTML         = errors.New("not an html document")
	ErrTooManyRedirect = errors.New("stopped after 10 redirects")
)

func (g *Grabber) scrape(
	ctx context.Context,
	pc *poolClient,
	ext *extractor,
	kind vo.PageKind,
	targetURL string,
	rules *robotsRules,
) (result vo.ScrapeResult) {
	result = vo.ScrapeResult{
		TargetURL: targetURL,
		Site:      ext.site.Name,
		Kind:      kind,
	}
	start := time.Now()
	defer func() {
		result.Time = time.Now()
	}()

	req, errRequest := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if errRequest != nil {
		result.Error = errRequest.Error()
		return
	}
	for name, value := range g.conf.Headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("User-Agent", pc.agent())

	client := *pc.client
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		code := 0
		if req.Response != nil {
			code = req.Response.StatusCode
		}
		result.Redirects = append(result.Redirects, vo.Redirect{URL: req.URL.String(), Code: code})
		if len(via) >= maxRedirects {
			return ErrTooManyRedirect
		}
		return nil
	}
	resp, errGet := client.Do(req)
	if errGet != nil {
		result.Duration = time.Since(start)
		result.Error = errGet.Error()
		return
	}
	defer resp.Body.Close()
	result.Code = resp.StatusCode
	result.Status = resp.Status
	result.ContentType = resp.Header.Get("Content-Type")

	bodyBytes, errReadAll := io.ReadAll(resp.Body)
	result.Duration = time.Since(start)
	if errReadAll != nil {
		result.Error = errReadAll.Error()
		return
	}
	result.Length = len(bodyBytes)
	if resp.StatusCode != http.StatusOK {
		return
	}
	if len(bodyBytes) == 0 {
		result.Error = ErrNoBody.Error()
		return
	}
	if !strings.Contains(result.ContentType, "html") {
		result.Error = fmt.Sprintf("%s: %s", ErrNotHTML, result.ContentType)
		return
	}

	rawDoc, errRawDoc := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if errRawDoc != nil {
		result.Error = errRawDoc.Error()
		return
	}
	result.Structure = extractStructure(rawDoc)

	decoded, errDecode := g.decoder.HTML(string(bodyBytes), decoder.Options{})
	if errDecode != nil {
		result.Error = errDecode.Error()
		return
	}
	if g.conf.Decoder.Dump {
		g.dump(ext.site.Name, targetURL, decoded)
	}
	doc, errDoc := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if errDoc != nil {
		result.Error = errDoc.Error()
		return
	}

	switch kind {
	case vo.PageKindIndex:
		follow := g.conf.IgnoreRobots || !strings.Contains(result.Structure.Robots, "nofollow")
		if follow {
			result.Links = extractListingLinks(doc, ext.site.Listings, resp.Request.URL, rules)
		}
		if len(result.Links) == 0 {
			result.Validations.Warning("listings", "no listing links found for selector "+ext.site.Listings.Selector)
		}
		lastPage, lastPageOK := ext.lastPage(doc)
		if !lastPageOK {
			lastPage = 1
			if ext.site.MaxPages > 0 {
				lastPage = ext.site.MaxPages
			}
			result.Validations.Warning("lastpage", fmt.Sprintf("last page not found, assuming %d", lastPage))
		}
		result.LastPage = lastPage
	case vo.PageKindListing:
		result.Fields, result.Validations = ext.fields(doc)
	}
	return
}

// dump writes the decoded html of a page to its own file in the dump dir.
func (g *Grabber) dump(site, targetURL, decoded string) {
	filename := filepath.Join(g.conf.Decoder.DumpDir, dumpName(site, targetURL))
	if errDump := g.decoder.DumpTo(filename, decoded); errDump != nil {
		g.logger.Warn("could not dump decoded html", zap.String("file", filename), zap.Error(errDump))
	}
}

func dumpName(site, targetURL string) string {
	return fmt.Sprintf("%s-%016x.html", site, xxhash.Sum64String(targetURL))
}
