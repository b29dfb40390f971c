package ooxml

import (
	"strings"
	"testing"
)

func TestCheckWellFormed_AcceptsRunMarkup(t *testing.T) {
	err := CheckWellFormed(`<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve"> ok </w:t></w:r>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckWellFormed_AcceptsParagraphWithBreaks(t *testing.T) {
	err := CheckWellFormed(`<w:p><w:r><w:t>a</w:t><w:br/><w:t>b</w:t></w:r></w:p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckWellFormed_RejectsSyntaxError(t *testing.T) {
	err := CheckWellFormed(`<w:r><w:t>unclosed`)
	if err == nil || !strings.Contains(err.Error(), "XML syntax error") {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestCheckWellFormed_NamesDisallowedElement(t *testing.T) {
	err := CheckWellFormed(`<w:r><w:script>x</w:script></w:r>`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "disallowed element: script") {
		t.Errorf("error should name the element, got %v", err)
	}
}

func TestCheckWellFormed_NamesDisallowedAttribute(t *testing.T) {
	err := CheckWellFormed(`<w:r onload="x"><w:t>hi</w:t></w:r>`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "disallowed attribute: onload") {
		t.Errorf("error should name the attribute, got %v", err)
	}
}

func TestCheckWellFormed_RejectsUnknownPrefix(t *testing.T) {
	err := CheckWellFormed(`<m:oMath xmlns:m="urn:x"><m:r/></m:oMath>`)
	if err == nil {
		t.Fatal("expected error for unknown prefix")
	}
}

func TestValidTargetXPath(t *testing.T) {
	valid := []string{
		"./w:p",
		"./w:p[12]",
		"./w:tbl[2]/w:tr[3]/w:tc[1]",
		"./w:tbl/w:tr/w:tc/w:p[2]",
	}
	for _, x := range valid {
		if !ValidTargetXPath(x) {
			t.Errorf("expected %q to be valid", x)
		}
	}

	invalid := []string{
		"",
		"w:p",
		"/w:body/w:p",
		"./w:p/../w:tbl",
		"./w:p[last()]",
		"./w:p[@id='x']",
		"./p",
		"./w:p//w:r",
		"./x:p",
	}
	for _, x := range invalid {
		if ValidTargetXPath(x) {
			t.Errorf("expected %q to be rejected", x)
		}
	}
}

func TestResolveXPath_UnsafePathNeverEvaluated(t *testing.T) {
	body := parseBody(t, twoTableBody)
	if _, err := ResolveXPath(body, "./w:p[@weird='1']"); err == nil {
		t.Fatal("expected unsafe path to be rejected")
	}
}

func TestResolveXPath_MissingElement(t *testing.T) {
	body := parseBody(t, twoTableBody)
	if _, err := ResolveXPath(body, "./w:tbl[9]"); err == nil {
		t.Fatal("expected error for non-matching path")
	}
}
