package decoder

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testListingHTML = `<!DOCTYPE html>
<html lang="ro">
<head>
	<title>Apartament 2 camere</title>
	<meta charset="utf-8">
	<link rel="stylesheet" href="/main.css">
	<style>.price { color: red }</style>
	<script>window.dataLayer = [];</script>
</head>
<body>
	<!-- listing card -->
	<div id="listing" class="card card--featured" style="margin: 0">
		<h1 title="Apartament">Apartament 2 camere</h1>
		<div class="price">
			<span>120 000 €</span>
			<span>1 850 €/m²</span>
		</div>
		<ul>
			<li>2 camere</li>
			<li>65 m2</li>
			<li>Etaj 3</li>
		</ul>
		<a href="/oferta/123" target="_blank" title="Detalii">Detalii</a>
		<picture><source srcset="a.webp"><img src="a.jpg"></picture>
		<svg><path d="M0 0"></path></svg>
		<lazy-image-container><img src="lazy.jpg"></lazy-image-container>
		<p>   </p>
	</div>
</body>
</html>`

func newTestDecoder() *Decoder {
	return New(DefaultConfig())
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "container-class", ClassName(nil, "container"))
	assert.Equal(t, "container-span-link-class", ClassName([]string{"container", "span"}, "link"))
}

func TestCategory(t *testing.T) {
	d := newTestDecoder()
	assert.Equal(t, "container", d.Category("div"))
	assert.Equal(t, "link", d.Category("a"))
	assert.Equal(t, DefaultCategory, d.Category("h1"))
	assert.Equal(t, DefaultCategory, d.Category("lazy-image-container"))
}

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "ancestry derived classes",
			html: `<div><span><a href="/x">Go</a></span></div>`,
			want: `<div class="container-class"><span class="container-span-class"><a href="/x" class="container-span-link-class">Go</a></span></div>`,
		},
		{
			name: "existing class is replaced and id kept",
			html: `<p class="foo bar" id="x">t</p>`,
			want: `<p class="p-class" id="x">t</p>`,
		},
		{
			name: "ignored attributes are stripped",
			html: `<a title="x" target="_blank" style="color:red" href="/y">link</a>`,
			want: `<a href="/y" class="link-class">link</a>`,
		},
		{
			name: "removed subtree leaves an empty pair that is dropped",
			html: `<div><script><span/></script></div>`,
			want: ``,
		},
		{
			name: "comments are removed",
			html: `<div><!-- hidden -->x</div>`,
			want: `<div class="container-class">x</div>`,
		},
		{
			name: "siblings with equal ancestry share a class",
			html: `<div><div>a</div><div>b</div></div>`,
			want: `<div class="container-class"><div class="container-container-class">a</div><div class="container-container-class">b</div></div>`,
		},
		{
			name: "whitespace between tags is dropped",
			html: "<ul>\n  <li> One </li>\n  <li>Two  words</li>\n</ul>",
			want: `<ul class="ul-class"><li class="ul-li-class"> One </li><li class="ul-li-class">Two words</li></ul>`,
		},
		{
			name: "whitespace around regex meta characters is dropped",
			html: `<p>Price: 100 . 000 (negotiable)</p>`,
			want: `<p class="p-class">Price: 100.000(negotiable)</p>`,
		},
		{
			name: "blank elements are dropped",
			html: `<div><p> </p><p>x</p></div>`,
			want: `<div class="container-class"><p class="container-p-class">x</p></div>`,
		},
		{
			name: "void elements survive",
			html: `<div><img src="a.png"></div>`,
			want: `<div class="container-class"><img src="a.png" class="container-img-class"/></div>`,
		},
		{
			name: "full documents keep their skeleton",
			html: `<!DOCTYPE html><html><head><title>T</title><meta charset="utf-8"></head><body><div>Hi</div></body></html>`,
			want: `<!DOCTYPE html><html class="default-class"><head class="default-default-class"><title class="default-default-default-class">T</title></head><body class="default-default-class"><div class="default-default-container-class">Hi</div></body></html>`,
		},
		{
			name: "unclosed tags are tolerated",
			html: `<div><p>one<p>two</div>`,
			want: `<div class="container-class"><p class="container-p-class">one</p><p class="container-p-class">two</p></div>`,
		},
	}
	d := newTestDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.HTML(tt.html, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTMLListingDocument(t *testing.T) {
	d := newTestDecoder()
	got, err := d.HTML(testListingHTML, Options{})
	require.NoError(t, err)

	for _, gone := range []string{"script", "style", "meta", "<link", "svg", "picture", "source", "lazy", "<!--", "title=", "target=", "style=", "card--featured"} {
		assert.NotContains(t, got, gone)
	}
	assert.Contains(t, got, `<h1 class="default-default-container-default-class">Apartament 2 camere</h1>`)
	assert.Contains(t, got, `<span class="default-default-container-container-span-class">120 000 €</span>`)
	assert.Contains(t, got, `<a href="/oferta/123" class="default-default-container-link-class">Detalii</a>`)
	assert.Contains(t, got, `<div id="listing" class="default-default-container-class">`)
	assert.NotContains(t, got, "\n")
	assert.Equal(t, strings.TrimSpace(got), got)
}

func TestDeterminism(t *testing.T) {
	d := newTestDecoder()
	first, err := d.HTML(testListingHTML, Options{})
	require.NoError(t, err)
	second, err := d.HTML(testListingHTML, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	firstJSON, err := d.JSON(testListingHTML)
	require.NoError(t, err)
	secondJSON, err := New(DefaultConfig()).JSON(testListingHTML)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestConcurrentUse(t *testing.T) {
	d := newTestDecoder()
	want, err := d.HTML(testListingHTML, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = d.HTML(testListingHTML, Options{})
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestEmptyInput(t *testing.T) {
	d := newTestDecoder()

	_, err := d.HTML("", Options{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = d.HTML("", Options{Beautify: true, Dump: true})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = d.JSON("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = d.Tree("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCustomConfig(t *testing.T) {
	d := New(Config{
		TagMap:           map[string]string{"h1": "heading"},
		Remove:           []string{"span"},
		IgnoreAttributes: []string{"data-id"},
	})
	got, err := d.HTML(`<div data-id="7" title="kept"><h1>T</h1><span>gone</span></div>`, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<div title="kept" class="default-class"><h1 class="default-heading-class">T</h1></div>`, got)
}

func TestConfigIsCopied(t *testing.T) {
	conf := DefaultConfig()
	d := New(conf)
	conf.TagMap["div"] = "changed"
	assert.Equal(t, "container", d.Category("div"))
}

func TestBeautify(t *testing.T) {
	d := newTestDecoder()
	got, err := d.HTML(`<div><p>Hi <b>there</b></p><br></div>`, Options{Beautify: true})
	require.NoError(t, err)
	want := `<div class="container-class">
 <p class="container-p-class">
  Hi
  <b class="container-p-default-class">
   there
  </b>
 </p>
 <br class="container-default-class"/>
</div>
`
	assert.Equal(t, want, got)
}

func TestDump(t *testing.T) {
	dumpFile := filepath.Join(t.TempDir(), "dump.html")
	d := New(Config{DumpFile: dumpFile})

	got, err := d.HTML(`<p>one</p>`, Options{Dump: true})
	require.NoError(t, err)
	dumped, err := os.ReadFile(dumpFile)
	require.NoError(t, err)
	assert.Equal(t, got, string(dumped))

	got, err = d.HTML(`<p>two</p>`, Options{Dump: true})
	require.NoError(t, err)
	dumped, err = os.ReadFile(dumpFile)
	require.NoError(t, err)
	assert.Equal(t, got, string(dumped), "dump is overwritten")
}

func TestDumpFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	d := New(Config{DumpFile: filepath.Join(blocker, "dump.html")}, WithLogger(zap.New(core)))

	got, err := d.HTML(`<p>x</p>`, Options{Dump: true})
	require.NoError(t, err)
	assert.Equal(t, `<p class="p-class">x</p>`, got)
	assert.Equal(t, 1, logs.FilterMessage("could not dump decoded html").Len())
}
