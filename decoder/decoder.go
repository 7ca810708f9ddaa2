// Package decoder rewrites arbitrary HTML into a canonical tree where every
// element carries a single class name derived from its tag and the tags of
// its ancestors. Site extractors select against those class names, so the
// naming scheme must stay stable: changing it breaks every extractor config.
package decoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrInvalidInput is returned by every entry point when no HTML is given.
var ErrInvalidInput = errors.New("html content is not provided")

// Options control the string rendering of a normalized document.
type Options struct {
	// Beautify renders one node per line instead of minifying.
	Beautify bool
	// Dump writes the result to the configured dump file. Failures are
	// logged and never fail the call.
	Dump bool
}

// Option configures a Decoder.
type Option func(d *Decoder)

// WithLogger sets the logger used for dump failures and debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Decoder normalizes HTML documents. It keeps no per call state and is safe
// for concurrent use.
type Decoder struct {
	tagMap   map[string]string
	remove   map[string]bool
	ignore   map[string]bool
	dumpFile string
	logger   *zap.Logger
}

// New builds a Decoder from conf. Empty tables in conf fall back to the
// built-in defaults. The tables are copied, later changes to conf have no
// effect on the Decoder.
func New(conf Config, opts ...Option) *Decoder {
	conf = conf.withDefaults()
	d := &Decoder{
		tagMap:   make(map[string]string, len(conf.TagMap)),
		remove:   make(map[string]bool, len(conf.Remove)),
		ignore:   make(map[string]bool, len(conf.IgnoreAttributes)),
		dumpFile: conf.DumpFile,
		logger:   zap.NewNop(),
	}
	for tag, category := range conf.TagMap {
		d.tagMap[strings.ToLower(tag)] = category
	}
	for _, tag := range conf.Remove {
		d.remove[strings.ToLower(tag)] = true
	}
	for _, attr := range conf.IgnoreAttributes {
		d.ignore[strings.ToLower(attr)] = true
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Category resolves the category token for a tag name.
func (d *Decoder) Category(tag string) string {
	if category, ok := d.tagMap[tag]; ok {
		return category
	}
	return DefaultCategory
}

// ClassName joins the ancestor categories and the node's own category into
// the synthetic class name, e.g. container-span-link-class.
func ClassName(ancestors []string, category string) string {
	parts := make([]string, 0, len(ancestors)+1)
	parts = append(parts, ancestors...)
	parts = append(parts, category)
	return strings.Join(parts, "-") + "-class"
}

// HTML normalizes src and renders it as a minified (or beautified) string.
func (d *Decoder) HTML(src string, opts Options) (string, error) {
	doc, _, err := d.normalize(src)
	if err != nil {
		return "", err
	}
	var result string
	if opts.Beautify {
		result = prettify(doc)
	} else {
		var buf bytes.Buffer
		if errRender := html.Render(&buf, doc); errRender != nil {
			return "", fmt.Errorf("could not render normalized html: %w", errRender)
		}
		result = Minify(buf.String())
	}
	if opts.Dump {
		if errDump := d.DumpTo(d.dumpFile, result); errDump != nil {
			d.logger.Warn("could not dump decoded html", zap.String("file", d.dumpFile), zap.Error(errDump))
		}
	}
	d.logger.Debug("decoded html", zap.Int("in", len(src)), zap.Int("out", len(result)))
	return result, nil
}

// Tree normalizes src and returns the surviving root elements.
func (d *Decoder) Tree(src string) ([]*Node, error) {
	_, roots, err := d.normalize(src)
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// JSON normalizes src and returns the tree as an indented JSON array.
func (d *Decoder) JSON(src string) (string, error) {
	roots, err := d.Tree(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if errEncode := enc.Encode(roots); errEncode != nil {
		return "", fmt.Errorf("could not encode html tree: %w", errEncode)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DumpTo replaces the file at path with content. The content goes to a
// temporary file first, so concurrent dumps end up last-write-wins instead of
// interleaved.
func (d *Decoder) DumpTo(path, content string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
			return errMkdir
		}
	}
	tmp, errCreate := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if errCreate != nil {
		return errCreate
	}
	_, errWrite := tmp.WriteString(content)
	errClose := tmp.Close()
	if err := errors.Join(errWrite, errClose); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if errChmod := os.Chmod(tmp.Name(), 0o644); errChmod != nil {
		os.Remove(tmp.Name())
		return errChmod
	}
	if errRename := os.Rename(tmp.Name(), path); errRename != nil {
		os.Remove(tmp.Name())
		return errRename
	}
	return nil
}

func (d *Decoder) normalize(src string) (doc *html.Node, roots []*Node, err error) {
	if src == "" {
		return nil, nil, ErrInvalidInput
	}
	doc, errParse := parse(src)
	if errParse != nil {
		return nil, nil, fmt.Errorf("could not parse html: %w", errParse)
	}
	removeComments(doc)
	roots = d.rewrite(doc)
	return doc, roots, nil
}

func removeComments(root *html.Node) {
	var comments []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.CommentNode {
			comments = append(comments, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(root)
	for _, n := range comments {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

type frame struct {
	node      *html.Node
	ancestors []string
	parent    *Node
}

// rewrite walks the element tree pre-order with an explicit stack, drops
// removed subtrees, assigns synthetic classes and strips ignored attributes.
// It returns the JSON records of the surviving root elements.
func (d *Decoder) rewrite(doc *html.Node) []*Node {
	roots := []*Node{}
	stack := pushChildren(nil, doc, nil, nil)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		if d.remove[n.Data] {
			n.Parent.RemoveChild(n)
			continue
		}
		category := d.Category(n.Data)
		className := ClassName(f.ancestors, category)
		d.rewriteAttributes(n, className)

		record := &Node{
			Tag:        n.Data,
			Class:      []string{className},
			Attributes: attributes(n),
			Children:   []*Node{},
		}
		if f.parent == nil {
			roots = append(roots, record)
		} else {
			f.parent.Children = append(f.parent.Children, record)
		}
		// full slice expression so siblings never share a backing array
		ancestors := append(f.ancestors[:len(f.ancestors):len(f.ancestors)], category)
		stack = pushChildren(stack, n, ancestors, record)
	}
	return roots
}

// pushChildren pushes the element children of n in reverse, so they pop in
// document order.
func pushChildren(stack []frame, n *html.Node, ancestors []string, parent *Node) []frame {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: children[i], ancestors: ancestors, parent: parent})
	}
	return stack
}

func (d *Decoder) rewriteAttributes(n *html.Node, className string) {
	attrs := n.Attr[:0]
	classSet := false
	for _, a := range n.Attr {
		if a.Namespace == "" {
			if a.Key == "class" {
				if classSet {
					continue
				}
				a.Val = className
				classSet = true
			} else if d.ignore[a.Key] {
				continue
			}
		}
		attrs = append(attrs, a)
	}
	if !classSet {
		attrs = append(attrs, html.Attribute{Key: "class", Val: className})
	}
	n.Attr = attrs
}
