package grabber

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/grabber/config"
	"github.com/foomo/grabber/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocHTML = `
<html>
<head>
	<title>Apartament 3 camere, Floreasca</title>
	<meta name="description" content="  Apartament luminos  ">
	<meta name="robots" content="noindex,nofollow">
	<link rel="canonical" href="https://www.storia.ro/ro/oferta/123">
</head>
<body>
<h1>Apartament&#x200d; 3 camere</h1>
<ul class="facts">
	<li>3 camere</li>
	<li>Suprafata 82 m²</li>
	<li>Etaj 4 / 8</li>
</ul>
<p class="price">185 000 €</p>
<p class="price">2 256 €/m²</p>
<nav><span>1-36 din 120</span></nav>
<nav class="pages"><a href="?page=2">2</a><a href="?page=14">14</a><a href="?page=3">3</a></nav>
</body>
</html>
`

func getDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, errDoc := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, errDoc)
	return doc
}

func newTestExtractor(t *testing.T, site config.Site) *extractor {
	t.Helper()
	e, errExtractor := newExtractor(site)
	require.NoError(t, errExtractor)
	return e
}

func TestExtractStructure(t *testing.T) {
	s := extractStructure(getDoc(t, testDocHTML))
	assert.Equal(t, vo.Structure{
		Title:       "Apartament 3 camere, Floreasca",
		Description: "Apartament luminos",
		Robots:      "noindex,nofollow",
		Canonical:   "https://www.storia.ro/ro/oferta/123",
		H1:          "Apartament 3 camere",
	}, s)
	assert.Equal(t, vo.Structure{}, extractStructure(getDoc(t, "")))
}

func TestExtractFields(t *testing.T) {
	e := newTestExtractor(t, config.Site{Fields: []config.Field{
		{Name: "title", Selector: "h1", Reduce: config.ReduceFirst},
		{Name: "rooms", Selector: ".facts li", Pattern: `(\d+) camere`, Reduce: config.ReduceFirst},
		{Name: "surface", Selector: ".facts li", Pattern: `(\d+)\s*m²`, Numeric: true, Reduce: config.ReduceFirst},
		{Name: "floor", Selector: ".facts li", Reduce: config.ReduceIndex, Index: 2, Strip: []string{"Etaj "}},
		{Name: "price", Selector: ".price", Numeric: true, Reduce: config.ReduceMax},
		{Name: "pricePerSqm", Selector: ".price", Pattern: `[\d\s]+€/m²`, Numeric: true, Reduce: config.ReduceMin},
		{Name: "facts", Selector: ".facts li", Reduce: config.ReduceJoin},
		{Name: "lastFact", Selector: ".facts li", Reduce: config.ReduceLast},
		{Name: "balcony", Selector: ".balcony", Default: "no", Reduce: config.ReduceFirst},
		{Name: "missingIndex", Selector: ".facts li", Reduce: config.ReduceIndex, Index: 7},
	}})
	values, validations := e.fields(getDoc(t, testDocHTML))
	assert.Equal(t, map[string]string{
		"title":        "Apartament 3 camere",
		"rooms":        "3",
		"surface":      "82",
		"floor":        "4 / 8",
		"price":        "185000",
		"pricePerSqm":  "2256",
		"facts":        "3 camere | Suprafata 82 m² | Etaj 4 / 8",
		"lastFact":     "Etaj 4 / 8",
		"balcony":      "no",
		"missingIndex": "",
	}, values)
	require.Len(t, validations, 2)
	assert.Equal(t, "balcony", validations[0].Group)
	assert.Equal(t, vo.ValidationLevelWarning, validations[0].Level)
	assert.Equal(t, "missingIndex", validations[1].Group)
}

func TestExtractFieldAttr(t *testing.T) {
	e := newTestExtractor(t, config.Site{Fields: []config.Field{
		{Name: "canonical", Selector: "link[rel=canonical]", Attr: "href", Pattern: `oferta/(\d+)`},
	}})
	values, validations := e.fields(getDoc(t, testDocHTML))
	assert.Equal(t, "123", values["canonical"])
	assert.Empty(t, validations)
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		index      int
		candidates []string
		want       string
		wantOK     bool
	}{
		{name: "empty", mode: config.ReduceFirst, want: "", wantOK: false},
		{name: "first", mode: config.ReduceFirst, candidates: []string{"a", "b"}, want: "a", wantOK: true},
		{name: "unknown mode is first", mode: "", candidates: []string{"a", "b"}, want: "a", wantOK: true},
		{name: "last", mode: config.ReduceLast, candidates: []string{"a", "b"}, want: "b", wantOK: true},
		{name: "index", mode: config.ReduceIndex, index: 1, candidates: []string{"a", "b"}, want: "b", wantOK: true},
		{name: "index out of range", mode: config.ReduceIndex, index: 2, candidates: []string{"a", "b"}, wantOK: false},
		{name: "numeric max", mode: config.ReduceMax, candidates: []string{"9", "120000", "85"}, want: "120000", wantOK: true},
		{name: "numeric min", mode: config.ReduceMin, candidates: []string{"9", "120000", "85"}, want: "9", wantOK: true},
		{name: "text max", mode: config.ReduceMax, candidates: []string{"b", "c", "a"}, want: "c", wantOK: true},
		{name: "join", mode: config.ReduceJoin, candidates: []string{"a", "b"}, want: "a | b", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reduce(tt.mode, tt.index, tt.candidates)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastPage(t *testing.T) {
	doc := getDoc(t, testDocHTML)

	ratio := newTestExtractor(t, config.Site{LastPage: config.LastPage{Selector: "nav span", Mode: config.LastPageModeRatio}})
	lastPage, ok := ratio.lastPage(doc)
	assert.True(t, ok)
	assert.Equal(t, 4, lastPage)

	maxText := newTestExtractor(t, config.Site{LastPage: config.LastPage{Selector: ".pages a", Mode: config.LastPageModeMax}})
	lastPage, ok = maxText.lastPage(doc)
	assert.True(t, ok)
	assert.Equal(t, 14, lastPage)

	maxHref := newTestExtractor(t, config.Site{LastPage: config.LastPage{Selector: ".pages a", Attr: "href", Pattern: `\?page=(\d+)`, Mode: config.LastPageModeMax}})
	lastPage, ok = maxHref.lastPage(doc)
	assert.True(t, ok)
	assert.Equal(t, 14, lastPage)

	missing := newTestExtractor(t, config.Site{LastPage: config.LastPage{Selector: ".pagination", Mode: config.LastPageModeMax}})
	_, ok = missing.lastPage(doc)
	assert.False(t, ok)

	_, ok = newTestExtractor(t, config.Site{}).lastPage(doc)
	assert.False(t, ok)
}

func TestLastPageFromRatio(t *testing.T) {
	lastPage, ok := lastPageFromRatio([]string{"1-36", "din 120"}, totalAdsPattern)
	assert.True(t, ok)
	assert.Equal(t, 4, lastPage)

	_, ok = lastPageFromRatio([]string{"din 120"}, totalAdsPattern)
	assert.False(t, ok)
}

func TestNewExtractorInvalidPattern(t *testing.T) {
	_, errExtractor := newExtractor(config.Site{Fields: []config.Field{{Name: "x", Selector: "p", Pattern: "("}}})
	assert.ErrorIs(t, errExtractor, config.ErrInvalidPattern)
	_, errExtractor = newExtractor(config.Site{LastPage: config.LastPage{Pattern: "("}})
	assert.ErrorIs(t, errExtractor, config.ErrInvalidPattern)
}
