package ooxml

import (
	"fmt"
	"regexp"

	"github.com/beevik/etree"
)

// allowedElements lists the wordprocessingml local names that may appear in
// caller-supplied insertion markup. Not exhaustive for the format, but it
// covers everything that legitimately appears in run- and paragraph-level
// insertion XML.
var allowedElements = map[string]bool{
	// Paragraph-level
	"p": true, "pPr": true, "pStyle": true, "jc": true, "spacing": true,
	"ind": true, "numPr": true, "ilvl": true, "numId": true, "pBdr": true,
	"tabs": true, "tab": true, "rPr": true,
	// Run-level
	"r": true, "rFonts": true, "sz": true, "szCs": true, "b": true,
	"bCs": true, "i": true, "iCs": true, "u": true, "strike": true,
	"dstrike": true, "color": true, "highlight": true, "vertAlign": true,
	"lang": true, "t": true, "br": true, "cr": true, "sym": true,
	// Run property extras
	"caps": true, "smallCaps": true, "vanish": true, "kern": true,
	"position": true, "shd": true, "effect": true, "em": true,
	// Table-level (for context)
	"tbl": true, "tblPr": true, "tblGrid": true, "gridCol": true,
	"tr": true, "trPr": true, "tc": true, "tcPr": true, "tblW": true,
	"tblBorders": true, "tblStyle": true, "tblLook": true, "tcW": true,
	"tcBorders": true, "vAlign": true, "gridSpan": true, "vMerge": true,
	// Bookmarks / content controls
	"bookmarkStart": true, "bookmarkEnd": true, "sdt": true,
	"sdtPr": true, "sdtContent": true,
	// Drawing (allowed but not deeply validated)
	"drawing": true,
}

// allowedAttrs lists the attribute local names that may appear in
// caller-supplied insertion markup.
var allowedAttrs = map[string]bool{
	"val": true, "ascii": true, "hAnsi": true, "cs": true,
	"eastAsia": true, "hint": true, "fill": true, "themeFill": true,
	"color": true, "space": true, "id": true, "name": true, "w": true,
	"type": true, "sz": true, "pos": true, "leader": true,
	"firstLine": true, "hanging": true, "left": true, "right": true,
	"before": true, "after": true, "line": true, "lineRule": true,
	"char": true, "firstRow": true, "lastRow": true, "firstColumn": true,
	"lastColumn": true, "noHBand": true, "noVBand": true,
}

var allowedPrefixes = map[string]bool{
	"": true, "w": true, "r": true, "wp": true, "xml": true,
}

// CheckWellFormed verifies that markup is well-formed XML using only
// allow-listed OOXML element and attribute names. Returns nil on success.
func CheckWellFormed(markup string) error {
	wrapped := fmt.Sprintf(
		`<frag xmlns:w=%q xmlns:r=%q xmlns:wp=%q>%s</frag>`,
		Namespaces["w"], Namespaces["r"], Namespaces["wp"], markup,
	)
	doc := NewDocument()
	if err := doc.ReadFromString(wrapped); err != nil {
		return fmt.Errorf("XML syntax error: %w", err)
	}

	var walk func(elem *etree.Element) error
	walk = func(elem *etree.Element) error {
		for _, child := range elem.ChildElements() {
			if !allowedPrefixes[child.Space] {
				return fmt.Errorf("unknown namespace prefix: %s", child.Space)
			}
			if !allowedElements[child.Tag] {
				return fmt.Errorf("disallowed element: %s", child.Tag)
			}
			for _, a := range child.Attr {
				if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
					continue
				}
				if !allowedPrefixes[a.Space] {
					return fmt.Errorf("unknown namespace prefix on attribute: %s", a.Space)
				}
				if !allowedAttrs[a.Key] {
					return fmt.Errorf("disallowed attribute: %s", a.Key)
				}
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(doc.Root())
}

// targetXPathRE matches the only XPath shape this system ever produces or
// accepts: relative steps of prefixed element names with optional
// positional predicates. No functions, axes, or attribute tests; anything
// else is rejected before evaluation to block expression injection.
var targetXPathRE = regexp.MustCompile(
	`^\./(?:w|r|wp):[A-Za-z][A-Za-z0-9]*(?:\[[0-9]+\])?` +
		`(?:/(?:w|r|wp):[A-Za-z][A-Za-z0-9]*(?:\[[0-9]+\])?)*$`)

// ValidTargetXPath reports whether xpath passes the safety allow-list.
func ValidTargetXPath(xpath string) bool {
	return targetXPathRE.MatchString(xpath)
}

// ResolveXPath validates xpath against the safety allow-list and then
// evaluates it against root. Returns an error when the path is unsafe or
// matches nothing.
func ResolveXPath(root *etree.Element, xpath string) (*etree.Element, error) {
	if !ValidTargetXPath(xpath) {
		return nil, fmt.Errorf("xpath %q does not match the allowed positional-path form", xpath)
	}
	elem := root.FindElement(xpath)
	if elem == nil {
		return nil, fmt.Errorf("xpath %q did not match any element", xpath)
	}
	return elem, nil
}
