package ooxml

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func parseBody(t *testing.T, bodyXML string) *etree.Element {
	t.Helper()
	doc, err := ParseBytes([]byte(bodyXML))
	if err != nil {
		t.Fatalf("parse body fixture: %v", err)
	}
	return doc.Root()
}

const twoTableBody = `<w:body xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:p><w:r><w:t>Intro</w:t></w:r></w:p>
  <w:tbl>
    <w:tr>
      <w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc>
      <w:tc><w:p/></w:tc>
    </w:tr>
  </w:tbl>
  <w:tbl>
    <w:tr>
      <w:tc><w:p><w:r><w:t>Date</w:t></w:r></w:p></w:tc>
      <w:tc><w:p/></w:tc>
    </w:tr>
  </w:tbl>
</w:body>`

func TestFindSnippetInBody_UniqueMatch(t *testing.T) {
	body := parseBody(t, twoTableBody)
	matches, err := FindSnippetInBody(body, `<w:tc><w:p><w:r><w:t>Date</w:t></w:r></w:p></w:tc>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(matches), matches)
	}
	if matches[0] != "./w:tbl[2]/w:tr/w:tc[1]" {
		t.Errorf("unexpected xpath %q", matches[0])
	}
}

func TestFindSnippetInBody_AmbiguousReturnsAll(t *testing.T) {
	body := parseBody(t, twoTableBody)
	// The empty answer cell appears in both tables.
	matches, err := FindSnippetInBody(body, `<w:tc><w:p/></w:tc>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(matches), matches)
	}
}

func TestFindSnippetInBody_NoMatch(t *testing.T) {
	body := parseBody(t, twoTableBody)
	matches, err := FindSnippetInBody(body, `<w:p><w:r><w:t>nowhere</w:t></w:r></w:p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func TestFindSnippetInBody_WhitespaceNormalizedText(t *testing.T) {
	body := parseBody(t, twoTableBody)
	matches, err := FindSnippetInBody(body, "<w:t>\n  Intro\n</w:t>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected trimmed text to match, got %v", matches)
	}
}

func TestParseSnippet_UndeclaredPrefixAccepted(t *testing.T) {
	elem, err := ParseSnippet(`<w:r><w:t>hi</w:t></w:r>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elem.Tag != "r" || elem.Space != "w" {
		t.Errorf("expected w:r root, got %s:%s", elem.Space, elem.Tag)
	}
}

func TestParseSnippet_EmptyIsError(t *testing.T) {
	if _, err := ParseSnippet("   "); err == nil {
		t.Fatal("expected error for blank snippet")
	}
}

func TestBuildXPath_PredicatesOnlyWhenSiblingsRepeat(t *testing.T) {
	body := parseBody(t, twoTableBody)

	// Second table, its only row, first cell.
	tbl := body.ChildElements()[2]
	tc := tbl.ChildElements()[0].ChildElements()[0]

	xpath := BuildXPath(tc, body)
	if xpath != "./w:tbl[2]/w:tr/w:tc[1]" {
		t.Errorf("unexpected xpath %q", xpath)
	}
	if strings.Contains(xpath, "w:tr[") {
		t.Errorf("single-child step should carry no predicate: %q", xpath)
	}
}

func TestBuildXPath_RoundTripsThroughResolve(t *testing.T) {
	body := parseBody(t, twoTableBody)

	var cells []*etree.Element
	walkElements(body, func(e *etree.Element) {
		if e.Tag == "tc" {
			cells = append(cells, e)
		}
	})
	if len(cells) != 4 {
		t.Fatalf("fixture should have 4 cells, got %d", len(cells))
	}

	for _, cell := range cells {
		xpath := BuildXPath(cell, body)
		resolved, err := ResolveXPath(body, xpath)
		if err != nil {
			t.Fatalf("resolve %q: %v", xpath, err)
		}
		if resolved != cell {
			t.Errorf("xpath %q resolved to a different element", xpath)
		}
	}
}
