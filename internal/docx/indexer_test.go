package docx

import (
	"strings"
	"testing"

	"github.com/dgallion1/formfill/internal/ooxml"
)

func TestExtractStructureCompact_AssignsStableIDs(t *testing.T) {
	file := makeDocx(t, formBody)
	compact, err := ExtractStructureCompact(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []string{"P1", "P2", "T1-R1-C1", "T1-R1-C2", "T1-R2-C1", "T1-R2-C2"} {
		if _, ok := compact.IDToXPath[id]; !ok {
			t.Errorf("missing ID %s in map: %v", id, compact.IDToXPath)
		}
	}
	if len(compact.IDToXPath) != 6 {
		t.Errorf("expected 6 IDs, got %d", len(compact.IDToXPath))
	}
}

func TestExtractStructureCompact_MarksAnswerTargets(t *testing.T) {
	file := makeDocx(t, formBody)
	compact, err := ExtractStructureCompact(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, line := range strings.Split(compact.CompactText, "\n") {
		switch {
		case strings.HasPrefix(line, "T1-R1-C2:"), strings.HasPrefix(line, "T1-R2-C2:"):
			if !strings.Contains(line, "← answer target") {
				t.Errorf("expected answer target marker on %q", line)
			}
		case strings.HasPrefix(line, "T1-R1-C1:"), strings.HasPrefix(line, "P1:"):
			if strings.Contains(line, "← answer target") {
				t.Errorf("question cell wrongly marked: %q", line)
			}
		}
	}
}

func TestExtractStructureCompact_FormattingHints(t *testing.T) {
	file := makeDocx(t, formBody)
	compact, err := ExtractStructureCompact(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var headingLine, placeholderLine string
	for _, line := range strings.Split(compact.CompactText, "\n") {
		if strings.HasPrefix(line, "P1:") {
			headingLine = line
		}
		if strings.HasPrefix(line, "T1-R2-C2:") {
			placeholderLine = line
		}
	}
	if !strings.Contains(headingLine, "bold") {
		t.Errorf("expected bold hint on heading: %q", headingLine)
	}
	if !strings.Contains(placeholderLine, "placeholder") {
		t.Errorf("expected placeholder hint: %q", placeholderLine)
	}
}

func TestExtractStructureCompact_XPathsResolve(t *testing.T) {
	file := makeDocx(t, formBody)
	compact, err := ExtractStructureCompact(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, body, err := parseBody(file)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	for id, xpath := range compact.IDToXPath {
		if _, err := ooxml.ResolveXPath(body, xpath); err != nil {
			t.Errorf("ID %s xpath %q does not resolve: %v", id, xpath, err)
		}
	}
}

func TestExtractStructureCompact_ComplexElementRawXML(t *testing.T) {
	body := `
<w:p><w:r><w:t>before</w:t></w:r></w:p>
<w:p><w:sdt><w:sdtPr/><w:sdtContent><w:r><w:t>dropdown</w:t></w:r></w:sdtContent></w:sdt></w:p>`
	file := makeDocx(t, body)
	compact, err := ExtractStructureCompact(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(compact.ComplexElements) != 1 || compact.ComplexElements[0] != "P2" {
		t.Fatalf("expected P2 complex, got %v", compact.ComplexElements)
	}
	if !strings.Contains(compact.CompactText, "P2: COMPLEX(sdt):") {
		t.Errorf("expected raw-XML complex line, got %s", compact.CompactText)
	}
	// Complex IDs must still be addressable.
	if _, ok := compact.IDToXPath["P2"]; !ok {
		t.Error("complex element missing from ID map")
	}
}
