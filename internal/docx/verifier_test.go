package docx

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/formfill/internal/fill"
)

func TestVerifyOutput_WriteThenVerifyRoundTrip(t *testing.T) {
	file := makeDocx(t, formBody)
	xpath := cellXPath(t, file, "T1-R1-C2")
	out, err := WriteAnswers(file, []fill.AnswerPayload{
		{PairID: "q1", XPath: xpath, AnswerText: "Jane Doe"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	report, err := VerifyOutput(out, []fill.ExpectedAnswer{
		{PairID: "q1", XPath: xpath, ExpectedText: "Jane Doe", Confidence: fill.ConfidenceKnown},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if len(report.StructuralIssues) != 0 {
		t.Errorf("unexpected structural issues: %v", report.StructuralIssues)
	}
	if report.ContentResults[0].Status != fill.ContentMatched {
		t.Errorf("expected matched, got %+v", report.ContentResults[0])
	}
	if report.Summary.Matched != 1 || report.Summary.Total != 1 {
		t.Errorf("bad summary %+v", report.Summary)
	}
	if report.Summary.ConfidenceKnown != 1 {
		t.Errorf("confidence counts not echoed: %+v", report.Summary)
	}
}

func TestVerifyOutput_RepeatRunsAgree(t *testing.T) {
	file := makeDocx(t, formBody)
	xpath := cellXPath(t, file, "T1-R1-C2")
	out, err := WriteAnswers(file, []fill.AnswerPayload{
		{PairID: "q1", XPath: xpath, AnswerText: "Jane Doe"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	expected := []fill.ExpectedAnswer{
		{PairID: "q1", XPath: xpath, ExpectedText: "Jane Doe", Confidence: fill.ConfidenceKnown},
		{PairID: "date", XPath: "T1-R2-C2", ExpectedText: "2024-01-01", Confidence: fill.ConfidenceUncertain},
		{PairID: "gone", XPath: "./w:tbl[9]/w:tr[1]/w:tc[1]", ExpectedText: "x"},
	}
	first, err := VerifyOutput(out, expected)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	second, err := VerifyOutput(out, expected)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("verification is not repeatable:\n first:  %+v\n second: %+v", first, second)
	}
}

func TestVerifyOutput_MultiLineRoundTrip(t *testing.T) {
	file := makeDocx(t, formBody)
	xpath := cellXPath(t, file, "T1-R1-C2")
	out, err := WriteAnswers(file, []fill.AnswerPayload{
		{PairID: "addr", XPath: xpath, AnswerText: `12 High St\nSpringfield`},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	// The expected text carries the same literal backslash-n the agent sent.
	report, err := VerifyOutput(out, []fill.ExpectedAnswer{
		{PairID: "addr", XPath: xpath, ExpectedText: `12 High St\nSpringfield`},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.ContentResults[0].Status != fill.ContentMatched {
		t.Errorf("multi-line answer failed round trip: %+v", report.ContentResults[0])
	}
}

func TestVerifyOutput_CaseInsensitiveSubstring(t *testing.T) {
	file := makeDocx(t, formBody)
	report, err := VerifyOutput(file, []fill.ExpectedAnswer{
		{PairID: "q1", XPath: cellXPath(t, file, "T1-R2-C1"), ExpectedText: "START DATE"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.ContentResults[0].Status != fill.ContentMatched {
		t.Errorf("expected case-insensitive match, got %+v", report.ContentResults[0])
	}
}

func TestVerifyOutput_MismatchReportsActual(t *testing.T) {
	file := makeDocx(t, formBody)
	report, err := VerifyOutput(file, []fill.ExpectedAnswer{
		{PairID: "q1", XPath: cellXPath(t, file, "T1-R2-C1"), ExpectedText: "wrong value"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	r := report.ContentResults[0]
	if r.Status != fill.ContentMismatched {
		t.Fatalf("expected mismatched, got %s", r.Status)
	}
	if !strings.Contains(r.Actual, "Start date:") {
		t.Errorf("actual text should be reported, got %q", r.Actual)
	}
}

func TestVerifyOutput_MissingTarget(t *testing.T) {
	file := makeDocx(t, formBody)
	report, err := VerifyOutput(file, []fill.ExpectedAnswer{
		{PairID: "gone", XPath: "./w:tbl[5]/w:tr[1]/w:tc[1]", ExpectedText: "x"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.ContentResults[0].Status != fill.ContentMissing {
		t.Errorf("expected missing, got %+v", report.ContentResults[0])
	}
}

func TestVerifyOutput_ElementIDExpectations(t *testing.T) {
	file := makeDocx(t, formBody)
	report, err := VerifyOutput(file, []fill.ExpectedAnswer{
		{PairID: "q1", XPath: "T1-R2-C1", ExpectedText: "Start date"},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.ContentResults[0].Status != fill.ContentMatched {
		t.Errorf("element ID expectation should resolve, got %+v", report.ContentResults[0])
	}
}

func TestVerifyOutput_StructuralIssuesDetected(t *testing.T) {
	body := `
<w:tbl>
  <w:tr>
    <w:tc><w:r><w:t>bare run</w:t></w:r></w:tc>
  </w:tr>
</w:tbl>`
	file := makeDocx(t, body)
	report, err := VerifyOutput(file, nil)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(report.StructuralIssues) != 2 {
		t.Fatalf("expected bare-run and no-paragraph issues, got %v", report.StructuralIssues)
	}
	if report.Summary.StructuralIssues != 2 {
		t.Errorf("summary should count structural issues: %+v", report.Summary)
	}
}

func TestVerifyOutput_UncertainConfidenceNote(t *testing.T) {
	file := makeDocx(t, formBody)
	report, err := VerifyOutput(file, []fill.ExpectedAnswer{
		{PairID: "q1", XPath: cellXPath(t, file, "T1-R2-C1"), ExpectedText: "Start date", Confidence: fill.ConfidenceUncertain},
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(report.Summary.ConfidenceNote, "manual review needed") {
		t.Errorf("expected review note, got %q", report.Summary.ConfidenceNote)
	}
}
