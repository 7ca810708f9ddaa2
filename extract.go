package grabber

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/grabber/config"
	"github.com/foomo/grabber/vo"
)

const joinSeparator = " | "

var (
	digitsPattern     = regexp.MustCompile(`(\d+)`)
	nonDigitsPattern  = regexp.MustCompile(`\D+`)
	totalAdsPattern   = regexp.MustCompile(`din\s*(\d+)`)
	adsPerPagePattern = regexp.MustCompile(`(\d+)-(\d+)`)
	zeroWidthReplacer = strings.NewReplacer("\u200d", "", "\u200b", "", "\u200c", "", "\ufeff", "")
)

// extractStructure reads page meta data from the raw document, the decoded
// document no longer carries meta and link tags.
func extractStructure(doc *goquery.Document) (s vo.Structure) {
	description, _ := doc.Find("meta[name=description]").First().Attr("content")
	robots, _ := doc.Find("meta[name=robots]").First().Attr("content")
	canonical, _ := doc.Find("link[rel=canonical]").First().Attr("href")
	return vo.Structure{
		Title:       cleanText(doc.Find("title").First().Text()),
		Description: strings.TrimSpace(description),
		Robots:      robots,
		Canonical:   canonical,
		H1:          cleanText(doc.Find("h1").First().Text()),
	}
}

type fieldExtractor struct {
	config.Field
	pattern *regexp.Regexp
}

// extractor holds the compiled extraction rules of a site.
type extractor struct {
	site            config.Site
	fieldExtractors []fieldExtractor
	lastPagePattern *regexp.Regexp
}

func newExtractor(site config.Site) (e *extractor, err error) {
	e = &extractor{site: site}
	if site.LastPage.Pattern != "" {
		e.lastPagePattern, err = regexp.Compile(site.LastPage.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", config.ErrInvalidPattern, err.Error())
		}
	}
	for _, f := range site.Fields {
		fe := fieldExtractor{Field: f}
		if f.Pattern != "" {
			fe.pattern, err = regexp.Compile(f.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", config.ErrInvalidPattern, err.Error())
			}
		}
		e.fieldExtractors = append(e.fieldExtractors, fe)
	}
	return e, nil
}

// fields extracts every configured field of a listing page. Fields without a
// value fall back to their default and are reported as a warning.
func (e *extractor) fields(doc *goquery.Document) (values map[string]string, validations vo.Validations) {
	values = make(map[string]string, len(e.fieldExtractors))
	validations = vo.Validations{}
	for _, fe := range e.fieldExtractors {
		candidates := []string{}
		doc.Find(fe.Selector).Each(func(i int, s *goquery.Selection) {
			if v, ok := fe.value(selectionValue(s, fe.Attr)); ok {
				candidates = append(candidates, v)
			}
		})
		value, ok := reduce(fe.Reduce, fe.Index, candidates)
		if !ok {
			value = fe.Default
			validations.Warning(fe.Name, fmt.Sprintf("no value for selector %q, using default %q", fe.Selector, fe.Default))
		}
		values[fe.Name] = value
	}
	return values, validations
}

// value turns the raw text of a node into a field value.
func (fe fieldExtractor) value(raw string) (v string, ok bool) {
	v = raw
	for _, strip := range fe.Strip {
		v = strings.ReplaceAll(v, strip, "")
	}
	if fe.pattern != nil {
		match := fe.pattern.FindStringSubmatch(v)
		if match == nil {
			return "", false
		}
		v = match[0]
		if len(match) > 1 {
			v = match[1]
		}
	}
	if fe.Numeric {
		v = nonDigitsPattern.ReplaceAllString(v, "")
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func reduce(mode string, index int, candidates []string) (value string, ok bool) {
	if len(candidates) == 0 {
		return "", false
	}
	switch mode {
	case config.ReduceLast:
		return candidates[len(candidates)-1], true
	case config.ReduceIndex:
		if index < 0 || index >= len(candidates) {
			return "", false
		}
		return candidates[index], true
	case config.ReduceMax, config.ReduceMin:
		value = candidates[0]
		for _, c := range candidates[1:] {
			if less(value, c) == (mode == config.ReduceMax) {
				value = c
			}
		}
		return value, true
	case config.ReduceJoin:
		return strings.Join(candidates, joinSeparator), true
	default:
		return candidates[0], true
	}
}

// less compares numerically when both values are numbers.
func less(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}

// lastPage finds the number of the last index page.
func (e *extractor) lastPage(doc *goquery.Document) (lastPage int, ok bool) {
	lp := e.site.LastPage
	if lp.Selector == "" {
		return 0, false
	}
	values := []string{}
	doc.Find(lp.Selector).Each(func(i int, s *goquery.Selection) {
		values = append(values, selectionValue(s, lp.Attr))
	})
	if lp.Mode == config.LastPageModeRatio {
		totalPattern := totalAdsPattern
		if e.lastPagePattern != nil {
			totalPattern = e.lastPagePattern
		}
		return lastPageFromRatio(values, totalPattern)
	}
	pattern := digitsPattern
	if e.lastPagePattern != nil {
		pattern = e.lastPagePattern
	}
	return lastPageFromMax(values, pattern)
}

// lastPageFromMax takes the highest number captured by pattern.
func lastPageFromMax(values []string, pattern *regexp.Regexp) (lastPage int, ok bool) {
	for _, v := range values {
		for _, match := range pattern.FindAllStringSubmatch(v, -1) {
			number := match[0]
			if len(match) > 1 {
				number = match[1]
			}
			page, errAtoi := strconv.Atoi(number)
			if errAtoi == nil && page > lastPage {
				lastPage = page
				ok = true
			}
		}
	}
	return lastPage, ok
}

// lastPageFromRatio reads counters like "1-36 din 120" and divides the total
// by the page size.
func lastPageFromRatio(values []string, totalPattern *regexp.Regexp) (lastPage int, ok bool) {
	total := 0
	perPage := 0
	for _, v := range values {
		if match := totalPattern.FindStringSubmatch(v); len(match) > 1 {
			total, _ = strconv.Atoi(match[1])
		}
		if match := adsPerPagePattern.FindStringSubmatch(v); match != nil {
			perPage, _ = strconv.Atoi(match[2])
		}
	}
	if total <= 0 || perPage <= 0 {
		return 0, false
	}
	return int(math.Ceil(float64(total) / float64(perPage))), true
}

func selectionValue(s *goquery.Selection, attr string) string {
	if attr == "" {
		return cleanText(s.Text())
	}
	v, _ := s.Attr(attr)
	return cleanText(v)
}

func cleanText(text string) string {
	return strings.TrimSpace(zeroWidthReplacer.Replace(text))
}
