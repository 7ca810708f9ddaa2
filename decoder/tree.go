package decoder

import (
	"bytes"
	"encoding/json"

	"golang.org/x/net/html"
)

// Node is the JSON record of a surviving element.
type Node struct {
	Tag        string     `json:"tag"`
	Class      []string   `json:"class"`
	Attributes Attributes `json:"attributes"`
	Children   []*Node    `json:"children"`
}

// Attribute is a single key value pair of an element.
type Attribute struct {
	Key   string
	Value string
}

// Attributes keep the document order of an element's attributes and marshal
// to a JSON object in that order. The class value is written as a one
// element list.
type Attributes []Attribute

// Get returns the value for key.
func (a Attributes) Get(key string) (value string, ok bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// MarshalJSON implements json.Marshaler.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, attr.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		// class has the same list shape as the class of the record
		if attr.Key == "class" {
			buf.WriteByte('[')
		}
		if err := writeJSONString(&buf, attr.Value); err != nil {
			return nil, err
		}
		if attr.Key == "class" {
			buf.WriteByte(']')
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

func attributes(n *html.Node) Attributes {
	attrs := make(Attributes, 0, len(n.Attr))
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		attrs = append(attrs, Attribute{Key: key, Value: a.Val})
	}
	return attrs
}
