package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/foomo/grabber/decoder"
	"gopkg.in/yaml.v3"
)

const (
	ReduceFirst = "first"
	ReduceLast  = "last"
	ReduceIndex = "index"
	ReduceMax   = "max"
	ReduceMin   = "min"
	ReduceJoin  = "join"

	// LastPageModeMax takes the highest number found in the matched nodes.
	LastPageModeMax = "max"
	// LastPageModeRatio reads "1-36 din 120" like counters and divides.
	LastPageModeRatio = "ratio"
)

type Config struct {
	Concurrency       int
	RequestsPerSecond float64
	Timeout           time.Duration
	Agents            []string
	Headers           map[string]string
	IgnoreRobots      bool
	UseCookies        bool
	Output            string
	Addr              string
	Decoder           Decoder
	Log               Log
	Sites             []Site
}

// Decoder carries the normalization tables. Tables left empty fall back to
// the decoder defaults, a given table replaces its default entirely.
type Decoder struct {
	decoder.Config `yaml:",inline"`
	Dump           bool
	DumpDir        string
}

type Log struct {
	Level   string
	Console LogConsole
	File    LogFile
}

type LogConsole struct {
	Enabled bool
	Level   string
	Format  string
}

type LogFile struct {
	Enabled    bool
	Level      string
	Format     string
	Path       string
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Compress   bool
}

type Site struct {
	Name      string
	BaseURL   string
	Start     string
	PageParam string
	MaxPages  int
	LastPage  LastPage
	Listings  Listings
	Fields    []Field
}

type LastPage struct {
	Selector string
	Attr     string
	Pattern  string
	Mode     string
}

type Listings struct {
	Selector string
	Attr     string
}

type Field struct {
	Name     string
	Selector string
	Attr     string
	Pattern  string
	Reduce   string
	Index    int
	Numeric  bool
	Default  string
	Strip    []string
}

// StartURL resolves the start path of a site against its base url.
func (s Site) StartURL() (*url.URL, error) {
	base, errBase := url.Parse(s.BaseURL)
	if errBase != nil {
		return nil, errBase
	}
	start, errStart := url.Parse(s.Start)
	if errStart != nil {
		return nil, errStart
	}
	return base.ResolveReference(start), nil
}

// FieldNames lists the field names in configuration order.
func (s Site) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func defaults() *Config {
	return &Config{
		Concurrency:       4,
		RequestsPerSecond: 2,
		Timeout:           time.Second * 10,
		Agents: []string{
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		},
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		Output: "exported",
		Decoder: Decoder{
			DumpDir: "dumps",
		},
		Log: Log{
			Level: "info",
			Console: LogConsole{
				Enabled: true,
				Format:  "console",
			},
			File: LogFile{
				Format:     "json",
				MaxSize:    100,
				MaxAge:     7,
				MaxBackups: 3,
			},
		},
	}
}

// Load parses a yaml configuration, fills in defaults and validates it.
func Load(yamlBytes []byte) (conf *Config, err error) {
	conf = defaults()
	errUnmarshal := yaml.Unmarshal(yamlBytes, conf)
	if errUnmarshal != nil {
		return nil, errUnmarshal
	}
	for i := range conf.Sites {
		conf.Sites[i].normalize()
	}
	errValidate := conf.Validate()
	if errValidate != nil {
		return nil, errValidate
	}
	return conf, nil
}

// Get loads the configuration from a file.
func Get(filename string) (conf *Config, err error) {
	yamlBytes, errRead := os.ReadFile(filename)
	if errRead != nil {
		return nil, errRead
	}
	return Load(yamlBytes)
}

// Site looks up a site by name.
func (c *Config) Site(name string) (site Site, ok bool) {
	for _, s := range c.Sites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

func (s *Site) normalize() {
	s.BaseURL = strings.TrimSuffix(s.BaseURL, "/")
	if s.Start == "" {
		s.Start = "/"
	}
	if s.PageParam == "" {
		s.PageParam = "page"
	}
	if s.Listings.Attr == "" {
		s.Listings.Attr = "href"
	}
	if s.LastPage.Mode == "" {
		s.LastPage.Mode = LastPageModeMax
	}
	for i := range s.Fields {
		if s.Fields[i].Reduce == "" {
			s.Fields[i].Reduce = ReduceFirst
		}
	}
}

func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	if len(c.Sites) == 0 {
		return ErrNoSites
	}
	siteNames := map[string]bool{}
	for _, s := range c.Sites {
		if s.Name == "" {
			return ErrNoSiteName
		}
		if siteNames[s.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateSite, s.Name)
		}
		siteNames[s.Name] = true
		if errSite := s.validate(); errSite != nil {
			return fmt.Errorf("site %s: %w", s.Name, errSite)
		}
	}
	return nil
}

func (s Site) validate() error {
	if s.BaseURL == "" {
		return ErrNoBaseURL
	}
	if _, errStart := s.StartURL(); errStart != nil {
		return errStart
	}
	if s.Listings.Selector == "" {
		return ErrNoListingSelector
	}
	switch s.LastPage.Mode {
	case LastPageModeMax, LastPageModeRatio:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLastPageMode, s.LastPage.Mode)
	}
	if errPattern := validatePattern(s.LastPage.Pattern); errPattern != nil {
		return errPattern
	}
	fieldNames := map[string]bool{}
	for _, f := range s.Fields {
		if f.Name == "" {
			return ErrNoFieldName
		}
		if fieldNames[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		fieldNames[f.Name] = true
		if f.Selector == "" {
			return fmt.Errorf("%w: %s", ErrNoFieldSelector, f.Name)
		}
		switch f.Reduce {
		case ReduceFirst, ReduceLast, ReduceIndex, ReduceMax, ReduceMin, ReduceJoin:
		default:
			return fmt.Errorf("%w: %q for field %s", ErrInvalidReduce, f.Reduce, f.Name)
		}
		if errPattern := validatePattern(f.Pattern); errPattern != nil {
			return fmt.Errorf("field %s: %w", f.Name, errPattern)
		}
	}
	return nil
}

func validatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if _, errCompile := regexp.Compile(pattern); errCompile != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPattern, errCompile.Error())
	}
	return nil
}
