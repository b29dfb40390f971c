// Package ooxml provides the shared WordprocessingML primitives used by the
// document backends: namespace tables, hardened XML parsing, snippet
// matching, formatting extraction, and run construction.
package ooxml

import "github.com/beevik/etree"

// Canonical OOXML namespace URIs, keyed by their conventional prefixes.
var Namespaces = map[string]string{
	"w":  "http://schemas.openxmlformats.org/wordprocessingml/2006/main",
	"r":  "http://schemas.openxmlformats.org/officeDocument/2006/relationships",
	"wp": "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing",
}

// URIToPrefix is the reverse of Namespaces.
var URIToPrefix = func() map[string]string {
	m := make(map[string]string, len(Namespaces))
	for prefix, uri := range Namespaces {
		m[uri] = prefix
	}
	return m
}()

// NewDocument returns an empty etree document configured for parsing
// untrusted bytes: strict well-formedness checks, no custom entity table,
// and no DTD or external resource resolution (encoding/xml, which etree
// wraps, never fetches external entities). All XML parsing in this
// repository must go through here.
func NewDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		Permissive:    false,
		ValidateInput: true,
		Entity:        nil,
	}
	return doc
}

// ParseBytes parses raw XML bytes with the hardened settings and returns
// the document.
func ParseBytes(data []byte) (*etree.Document, error) {
	doc := NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return doc, nil
}
