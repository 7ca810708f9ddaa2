package decoder

// DefaultCategory is used for every tag missing from the tag map.
const DefaultCategory = "default"

// DefaultDumpFile is where HTML dumps land unless configured otherwise.
const DefaultDumpFile = "dump.html"

// Config holds the tables driving a normalization pass. A Config is treated as
// read only once handed to New.
type Config struct {
	TagMap           map[string]string
	Remove           []string
	IgnoreAttributes []string
	DumpFile         string
}

// DefaultConfig returns a fresh copy of the built-in tables.
func DefaultConfig() Config {
	return Config{
		TagMap: map[string]string{
			"div":     "container",
			"p":       "p",
			"span":    "span",
			"ul":      "ul",
			"li":      "li",
			"ol":      "ol",
			"table":   "table",
			"tr":      "tr",
			"td":      "td",
			"th":      "th",
			"a":       "link",
			"img":     "img",
			"section": "section",
		},
		Remove: []string{
			"script",
			"style",
			"meta",
			"link",
			"svg",
			"iframe",
			"embed",
			"object",
			"noscript",
			"audio",
			"video",
			"track",
			"area",
			"map",
			"canvas",
			"applet",
			"param",
			"source",
			"base",
			"picture",
			"lazy-image-container",
		},
		IgnoreAttributes: []string{"title", "target", "style"},
		DumpFile:         DefaultDumpFile,
	}
}

// withDefaults fills every empty table with its built-in counterpart.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.TagMap) == 0 {
		c.TagMap = def.TagMap
	}
	if len(c.Remove) == 0 {
		c.Remove = def.Remove
	}
	if len(c.IgnoreAttributes) == 0 {
		c.IgnoreAttributes = def.IgnoreAttributes
	}
	if c.DumpFile == "" {
		c.DumpFile = def.DumpFile
	}
	return c
}
