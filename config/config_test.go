package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	confComplex = `
---
concurrency: 2
requestspersecond: 0.5
timeout: 30s
agents:
  - grabber-test
headers:
  Accept-Language: ro-RO
output: out
addr: ":3001"
decoder:
  tagmap:
    div: box
  remove:
    - script
  dump: true
  dumpdir: tmp/dumps
log:
  level: debug
  file:
    enabled: true
    path: grabber.log
sites:
  - name: storia
    baseurl: https://www.storia.ro/
    start: /ro/rezultate/vanzare/apartament/bucuresti
    maxpages: 3
    lastpage:
      selector: "[data-cy=pagination] li"
      pattern: 'din\s*(\d+)'
      mode: ratio
    listings:
      selector: "a[data-cy=listing-item-link]"
    fields:
      - name: price
        selector: "[data-cy=adPageHeaderPrice]"
        pattern: '(\d+)'
        numeric: true
      - name: rooms
        selector: ".container-p-class"
        reduce: index
        index: 1
        default: "1"
...
`
	confMinimal = `
---
sites:
  - name: korter
    baseurl: https://korter.ro
    listings:
      selector: a
...
`
)

func TestLoad(t *testing.T) {
	cnf, errCnf := Load([]byte(confComplex))
	require.NoError(t, errCnf)
	assert.Equal(t, 2, cnf.Concurrency)
	assert.Equal(t, 0.5, cnf.RequestsPerSecond)
	assert.Equal(t, time.Second*30, cnf.Timeout)
	assert.Equal(t, []string{"grabber-test"}, cnf.Agents)
	assert.Equal(t, "ro-RO", cnf.Headers["Accept-Language"])
	assert.Equal(t, "out", cnf.Output)
	assert.Equal(t, map[string]string{"div": "box"}, cnf.Decoder.TagMap)
	assert.Equal(t, []string{"script"}, cnf.Decoder.Remove)
	assert.True(t, cnf.Decoder.Dump)
	assert.Equal(t, "tmp/dumps", cnf.Decoder.DumpDir)
	assert.Equal(t, "debug", cnf.Log.Level)
	assert.True(t, cnf.Log.Console.Enabled)
	assert.True(t, cnf.Log.File.Enabled)
	assert.Equal(t, 100, cnf.Log.File.MaxSize)

	require.Len(t, cnf.Sites, 1)
	site := cnf.Sites[0]
	assert.Equal(t, "https://www.storia.ro", site.BaseURL)
	assert.Equal(t, "page", site.PageParam)
	assert.Equal(t, LastPageModeRatio, site.LastPage.Mode)
	assert.Equal(t, "href", site.Listings.Attr)
	assert.Equal(t, []string{"price", "rooms"}, site.FieldNames())
	assert.Equal(t, ReduceFirst, site.Fields[0].Reduce)
	assert.Equal(t, ReduceIndex, site.Fields[1].Reduce)
	assert.Equal(t, 1, site.Fields[1].Index)

	startURL, errStart := site.StartURL()
	require.NoError(t, errStart)
	assert.Equal(t, "https://www.storia.ro/ro/rezultate/vanzare/apartament/bucuresti", startURL.String())
}

func TestLoadMinimal(t *testing.T) {
	cnf, errCnf := Load([]byte(confMinimal))
	require.NoError(t, errCnf)
	assert.Equal(t, 4, cnf.Concurrency)
	assert.Equal(t, time.Second*10, cnf.Timeout)
	assert.NotEmpty(t, cnf.Agents)
	assert.Empty(t, cnf.Decoder.TagMap)
	assert.Equal(t, "dumps", cnf.Decoder.DumpDir)

	site, ok := cnf.Site("korter")
	require.True(t, ok)
	assert.Equal(t, "/", site.Start)
	assert.Equal(t, LastPageModeMax, site.LastPage.Mode)
	startURL, errStart := site.StartURL()
	require.NoError(t, errStart)
	assert.Equal(t, "https://korter.ro/", startURL.String())

	_, ok = cnf.Site("storia")
	assert.False(t, ok)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{name: "no sites", yaml: "concurrency: 1", err: ErrNoSites},
		{name: "concurrency", yaml: "concurrency: 0\nsites: [{name: a, baseurl: 'http://a', listings: {selector: a}}]", err: ErrInvalidConcurrency},
		{name: "rate", yaml: "requestspersecond: -1\nsites: [{name: a, baseurl: 'http://a', listings: {selector: a}}]", err: ErrInvalidRate},
		{name: "site name", yaml: "sites: [{baseurl: 'http://a', listings: {selector: a}}]", err: ErrNoSiteName},
		{name: "duplicate site", yaml: "sites: [{name: a, baseurl: 'http://a', listings: {selector: a}}, {name: a, baseurl: 'http://b', listings: {selector: a}}]", err: ErrDuplicateSite},
		{name: "base url", yaml: "sites: [{name: a, listings: {selector: a}}]", err: ErrNoBaseURL},
		{name: "listing selector", yaml: "sites: [{name: a, baseurl: 'http://a'}]", err: ErrNoListingSelector},
		{name: "last page mode", yaml: "sites: [{name: a, baseurl: 'http://a', listings: {selector: a}, lastpage: {mode: sum}}]", err: ErrInvalidLastPageMode},
		{name: "field name", yaml: "sites: [{name: a, baseurl: 'http://a', listings: {selector: a}, fields: [{selector: b}]}]", err: ErrNoFieldName},
		{name: "duplicate field", yaml: "sites: [{name: a, baseurl: 'http://a', listings: {selector: a}, fields: [{name: f, selector: b}, {name: f, selector: c}]}]", err: ErrDuplicateField},
		{name: "field selector", yaml: "sites: [{name: a, baseurl: 'http://a', listings: {selector: a}, fields: [{name: f}]}]", err: ErrNoFieldSelector},
		{name: "reduce", yaml: "sites: [{name: a, baseurl: 'http://a', listings: {selector: a}, fields: [{name: f, selector: b, reduce: avg}]}]", err: ErrInvalidReduce},
		{name: "pattern", yaml: "sites: [{name: a, baseurl: 'http://a', listings: {selector: a}, fields: [{name: f, selector: b, pattern: '(\\d+'}]}]", err: ErrInvalidPattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errCnf := Load([]byte(tt.yaml))
			assert.ErrorIs(t, errCnf, tt.err)
		})
	}
}

func TestGet(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "grabber.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(confMinimal), 0o644))
	cnf, errCnf := Get(filename)
	require.NoError(t, errCnf)
	assert.Len(t, cnf.Sites, 1)

	_, errCnf = Get(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, errCnf)
}
