package xlsx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/dgallion1/formfill/internal/fill"
)

const sheet1XML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>
<row r="1">
<c r="A1" t="s" s="1"><v>0</v></c>
<c r="B1"/>
</row>
<row r="2">
<c r="A2" t="inlineStr"><is><t>Department:</t></is></c>
<c r="B2" t="str"><v>Engineering</v></c>
</row>
<row r="4">
<c r="A4" t="inlineStr"><is><t>Notes</t></is></c>
</row>
</sheetData>
<mergeCells count="1"><mergeCell ref="A4:B4"/></mergeCells>
</worksheet>`

const sharedStringsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="1" uniqueCount="1">
<si><t>Name:</t></si>
</sst>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<fonts count="2"><font/><font><b/></font></fonts>
<fills count="1"><fill><patternFill patternType="none"/></fill></fills>
<cellXfs count="2">
<xf fontId="0" fillId="0"/>
<xf fontId="1" fillId="0"/>
</cellXfs>
</styleSheet>`

// makeXlsx zips a single-sheet workbook fixture: a bold "Name:" label with
// an empty answer cell, a filled Department row, and a merged Notes row.
func makeXlsx(t *testing.T) []byte {
	t.Helper()
	return makeXlsxWithSheet(t, sheet1XML)
}

func makeXlsxWithSheet(t *testing.T, sheetXML string) []byte {
	t.Helper()
	entries := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Intake" sheetId="1" r:id="rId1"/></sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`,
		"xl/worksheets/sheet1.xml": sheetXML,
		"xl/sharedStrings.xml":     sharedStringsXML,
		"xl/styles.xml":            stylesXML,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractStructureCompact_AssignsCellIDs(t *testing.T) {
	compact, err := ExtractStructureCompact(makeXlsx(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(compact.CompactText, `=== Sheet 1: "Intake" ===`) {
		t.Errorf("missing sheet header:\n%s", compact.CompactText)
	}
	for _, want := range []string{
		`S1-R1-C1: "Name:" [bold]`,
		`S1-R1-C2: "" [empty] ← answer target`,
		`S1-R2-C2: "Engineering"`,
		`S1-R4-C1: "Notes" [merged: A4:B4]`,
	} {
		if !strings.Contains(compact.CompactText, want) {
			t.Errorf("missing line %q in:\n%s", want, compact.CompactText)
		}
	}

	// Cell IDs are their own paths.
	if compact.IDToXPath["S1-R1-C2"] != "S1-R1-C2" {
		t.Errorf("ID map should be the identity, got %q", compact.IDToXPath["S1-R1-C2"])
	}
	if len(compact.ComplexElements) != 0 {
		t.Errorf("spreadsheets have no complex elements, got %v", compact.ComplexElements)
	}
}

func TestOpenWorkbook_RejectsEntityReferences(t *testing.T) {
	sheetXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<!DOCTYPE worksheet [<!ENTITY leak "resolved">]>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>&leak;</t></is></c></row>
</sheetData>
</worksheet>`
	file := makeXlsxWithSheet(t, sheetXML)
	if _, err := ExtractStructureCompact(file); err == nil {
		t.Fatal("expected sheet part with entity references to be rejected")
	}
}

func TestWriteAnswers_RoundTrip(t *testing.T) {
	file := makeXlsx(t)
	out, err := WriteAnswers(file, []fill.AnswerPayload{
		{PairID: "name", XPath: "S1-R1-C2", AnswerText: "Jane Doe"},
		// Row 3 is not materialized in the sheet XML.
		{PairID: "extra", XPath: "S1-R3-C2", AnswerText: "created row"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	report, err := VerifyOutput(out, []fill.ExpectedAnswer{
		{PairID: "name", XPath: "S1-R1-C2", ExpectedText: "Jane Doe"},
		{PairID: "extra", XPath: "S1-R3-C2", ExpectedText: "created row"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	for _, r := range report.ContentResults {
		if r.Status != fill.ContentMatched {
			t.Errorf("answer %s failed round trip: %+v", r.PairID, r)
		}
	}
	if report.Summary.Matched != 2 {
		t.Errorf("bad summary %+v", report.Summary)
	}
}

func TestWriteAnswers_SharedStringsUntouched(t *testing.T) {
	file := makeXlsx(t)
	out, err := WriteAnswers(file, []fill.AnswerPayload{
		{PairID: "name", XPath: "S1-R1-C1", AnswerText: "Full name:"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("reopen archive: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "xl/sharedStrings.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open shared strings: %v", err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != sharedStringsXML {
			t.Error("inline-string write must not rewrite the shared string table")
		}
	}

	report, err := VerifyOutput(out, []fill.ExpectedAnswer{
		{PairID: "name", XPath: "S1-R1-C1", ExpectedText: "Full name:"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.ContentResults[0].Status != fill.ContentMatched {
		t.Errorf("overwritten shared-string cell should read back, got %+v", report.ContentResults[0])
	}
}

func TestWriteAnswers_BatchValidation(t *testing.T) {
	file := makeXlsx(t)
	_, err := WriteAnswers(file, []fill.AnswerPayload{
		{PairID: "good", XPath: "S1-R1-C2", AnswerText: "fine"},
		{PairID: "xml", XPath: "S1-R1-C2", AnswerText: "x", InsertionXML: "<w:r/>"},
		{PairID: "bad-id", XPath: "B2", AnswerText: "y"},
		{PairID: "bad-sheet", XPath: "S9-R1-C1", AnswerText: "z"},
	})
	if err == nil {
		t.Fatal("expected batch rejection")
	}

	msg := err.Error()
	if !strings.Contains(msg, "3 invalid answer(s)") {
		t.Errorf("expected all failures counted, got %v", msg)
	}
	if !strings.Contains(msg, "not supported for spreadsheets") {
		t.Errorf("insertion_xml rejection missing: %v", msg)
	}
	if !strings.Contains(msg, "invalid cell ID") {
		t.Errorf("grammar rejection missing: %v", msg)
	}
	if !strings.Contains(msg, "sheet index 9 out of range") {
		t.Errorf("bounds rejection missing: %v", msg)
	}
}

func TestValidateLocations_CellStates(t *testing.T) {
	file := makeXlsx(t)
	results, err := ValidateLocations(file, []fill.LocationSnippet{
		{PairID: "existing", Snippet: "S1-R1-C1"},
		{PairID: "unmaterialized", Snippet: "S1-R9-C9"},
		{PairID: "bad-sheet", Snippet: "S9-R1-C1"},
		{PairID: "bad-format", Snippet: "R1C1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r := results[0]; r.Status != fill.LocationMatched || r.Context != "Name:" {
		t.Errorf("existing cell should match with its text, got %+v", r)
	}
	// Cells absent from the XML are still writable.
	if r := results[1]; r.Status != fill.LocationMatched || r.Context != "" {
		t.Errorf("unmaterialized cell should still match, got %+v", r)
	}
	if results[2].Status != fill.LocationNotFound {
		t.Errorf("out-of-range sheet should be not_found, got %+v", results[2])
	}
	if r := results[3]; r.Status != fill.LocationNotFound || !strings.Contains(r.Context, "invalid cell ID") {
		t.Errorf("bad grammar should be not_found with reason, got %+v", r)
	}
}

func TestListFormFields_AdjacentCellPattern(t *testing.T) {
	fields, err := ListFormFields(makeXlsx(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Name: (empty B1) and Notes (no B4) qualify; Department: does not.
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d: %+v", len(fields), fields)
	}
	if fields[0].Label != "Name:" || fields[0].Location != "S1-R1-C2" {
		t.Errorf("unexpected first field %+v", fields[0])
	}
	if fields[0].FieldType != "adjacent_cell" {
		t.Errorf("unexpected field type %q", fields[0].FieldType)
	}
	if fields[1].Label != "Notes" || fields[1].Location != "S1-R4-C2" {
		t.Errorf("unexpected second field %+v", fields[1])
	}
}

func TestVerifyOutput_MismatchReportsActual(t *testing.T) {
	report, err := VerifyOutput(makeXlsx(t), []fill.ExpectedAnswer{
		{PairID: "dept", XPath: "S1-R2-C2", ExpectedText: "Marketing"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	r := report.ContentResults[0]
	if r.Status != fill.ContentMismatched || r.Actual != "Engineering" {
		t.Errorf("expected mismatch with actual text, got %+v", r)
	}
}

func TestParseA1_RoundTrip(t *testing.T) {
	cases := []struct {
		ref      string
		row, col int
	}{
		{"A1", 1, 1},
		{"B2", 2, 2},
		{"Z10", 10, 26},
		{"AA3", 3, 27},
		{"AZ7", 7, 52},
	}
	for _, c := range cases {
		row, col, ok := parseA1(c.ref)
		if !ok || row != c.row || col != c.col {
			t.Errorf("parseA1(%q) = (%d, %d, %v), want (%d, %d)", c.ref, row, col, ok, c.row, c.col)
		}
		if got := a1Ref(c.row, c.col); got != c.ref {
			t.Errorf("a1Ref(%d, %d) = %q, want %q", c.row, c.col, got, c.ref)
		}
	}
	if _, _, ok := parseA1("1A"); ok {
		t.Error("parseA1 accepted a malformed reference")
	}
}

func TestIsCellID(t *testing.T) {
	for _, valid := range []string{"S1-R1-C1", "S12-R40-C3", " S1-R2-C2 "} {
		if !IsCellID(valid) {
			t.Errorf("IsCellID(%q) = false", valid)
		}
	}
	for _, invalid := range []string{"T1-R1-C1", "S1-R1", "B2", ""} {
		if IsCellID(invalid) {
			t.Errorf("IsCellID(%q) = true", invalid)
		}
	}
}
