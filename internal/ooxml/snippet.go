package ooxml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

var errEmptySnippet = errors.New("snippet is empty")

// ParseSnippet parses an OOXML snippet string into an element. Snippets
// that use a namespace prefix without redeclaring it, or that have more
// than one top-level element, are wrapped in a declaring fragment first;
// the first child is returned.
func ParseSnippet(snippet string) (*etree.Element, error) {
	if strings.TrimSpace(snippet) == "" {
		return nil, errEmptySnippet
	}

	doc := NewDocument()
	if err := doc.ReadFromString(snippet); err == nil && doc.Root() != nil {
		return doc.Root(), nil
	}

	wrapped := fmt.Sprintf(
		`<frag xmlns:w=%q xmlns:r=%q xmlns:wp=%q>%s</frag>`,
		Namespaces["w"], Namespaces["r"], Namespaces["wp"], snippet,
	)
	doc = NewDocument()
	if err := doc.ReadFromString(wrapped); err != nil {
		return nil, fmt.Errorf("parse snippet: %w", err)
	}
	children := doc.Root().ChildElements()
	if len(children) == 0 {
		return nil, errEmptySnippet
	}
	return children[0], nil
}

// FindSnippetInBody returns the XPath of every element in body that is
// structurally equal to the parsed snippet. Zero results means not found,
// more than one means the snippet is ambiguous; the caller decides how to
// surface that.
func FindSnippetInBody(body *etree.Element, snippet string) ([]string, error) {
	snippetElem, err := ParseSnippet(snippet)
	if err != nil {
		return nil, err
	}

	var matches []string
	walkElements(body, func(elem *etree.Element) {
		if elem.Tag != snippetElem.Tag {
			return
		}
		if elementsStructurallyEqual(elem, snippetElem) {
			matches = append(matches, BuildXPath(elem, body))
		}
	})
	return matches, nil
}

// elementsStructurallyEqual recursively compares two elements: tag,
// attributes (excluding namespace declarations), whitespace-normalized
// text, and all child elements in order. A shallow text-only comparison
// would false-positive on differently structured elements with the same
// visible text.
func elementsStructurallyEqual(a, b *etree.Element) bool {
	if a.Tag != b.Tag || a.Space != b.Space {
		return false
	}
	if !attrsEqual(a, b) {
		return false
	}
	if strings.TrimSpace(a.Text()) != strings.TrimSpace(b.Text()) {
		return false
	}

	aChildren := a.ChildElements()
	bChildren := b.ChildElements()
	if len(aChildren) != len(bChildren) {
		return false
	}
	for i := range aChildren {
		if !elementsStructurallyEqual(aChildren[i], bChildren[i]) {
			return false
		}
	}
	return true
}

func attrsEqual(a, b *etree.Element) bool {
	aAttrs := significantAttrs(a)
	bAttrs := significantAttrs(b)
	if len(aAttrs) != len(bAttrs) {
		return false
	}
	for k, v := range aAttrs {
		if bAttrs[k] != v {
			return false
		}
	}
	return true
}

// significantAttrs returns the element's attributes minus xmlns
// declarations, which vary with tree context and carry no meaning for
// structural comparison.
func significantAttrs(elem *etree.Element) map[string]string {
	attrs := make(map[string]string, len(elem.Attr))
	for _, a := range elem.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		key := a.Key
		if a.Space != "" {
			key = a.Space + ":" + a.Key
		}
		attrs[key] = a.Value
	}
	return attrs
}

func walkElements(elem *etree.Element, visit func(*etree.Element)) {
	for _, child := range elem.ChildElements() {
		visit(child)
		walkElements(child, visit)
	}
}

// BuildXPath produces the absolute, positionally indexed path locating
// elem relative to root (e.g. "./w:tbl[2]/w:tr[3]/w:tc[2]"). This is the
// canonical string reference every component uses for a located element.
func BuildXPath(elem *etree.Element, root *etree.Element) string {
	var parts []string
	for current := elem; current != nil && current != root; current = current.Parent() {
		step := current.FullTag()
		if parent := current.Parent(); parent != nil {
			same := 0
			pos := 0
			for _, sibling := range parent.ChildElements() {
				if sibling.Tag == current.Tag && sibling.Space == current.Space {
					same++
					if sibling == current {
						pos = same
					}
				}
			}
			if same > 1 {
				step = fmt.Sprintf("%s[%d]", step, pos)
			}
		}
		parts = append(parts, step)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "./" + strings.Join(parts, "/")
}
