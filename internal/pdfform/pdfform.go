// Package pdfform is the PDF backend. Documents with an interactive
// AcroForm are indexed and filled through their text fields; flat documents
// fall back to detecting likely fill-in lines from extracted page text.
// Either way the backend assigns sequential F{n} IDs, validates field
// references, and verifies output. Only interactive forms are writable.
package pdfform

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/dgallion1/formfill/internal/fill"
)

// ErrWriteUnsupported is returned for write attempts on PDFs without an
// interactive form.
var ErrWriteUnsupported = errors.New(
	"PDF has no interactive form fields to fill: fill the source document in its original format, or convert the PDF to .docx first")

// fieldIDRE matches the sequential IDs assigned by ExtractStructureCompact.
var fieldIDRE = regexp.MustCompile(`^F\d+$`)

// fillLineRE matches underscore fill-lines and dotted leaders on a text
// line, the visual convention for "write your answer here".
var fillLineRE = regexp.MustCompile(`_{3,}|\.{5,}`)

// field is one detected fill-in location. value is empty on fill-line
// fields; only interactive form fields carry one.
type field struct {
	id    string
	page  int
	label string
	value string
}

// IsFieldID reports whether a location string uses the F{n} grammar.
func IsFieldID(s string) bool {
	return fieldIDRE.MatchString(strings.TrimSpace(s))
}

// documentFields indexes the document, preferring AcroForm fields over
// fill-line detection. The bool reports which path was taken.
func documentFields(fileBytes []byte) ([]field, bool, error) {
	if af, err := acroFields(fileBytes); err == nil && len(af) > 0 {
		return fieldsFromAcro(af), true, nil
	}
	texts, err := pageTexts(fileBytes)
	if err != nil {
		return nil, false, err
	}
	return collectFields(texts), false, nil
}

// pageTexts extracts the plain text of every page, 1-indexed at slice
// position 0.
func pageTexts(fileBytes []byte) ([]string, error) {
	r, err := pdflib.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var texts []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// collectFields scans page text for fill-lines and assigns F-IDs in page
// order. The label is the text on the line with the fill-line stripped,
// falling back to the preceding non-blank line.
func collectFields(texts []string) []field {
	var fields []field
	counter := 0
	for pageIdx, text := range texts {
		lines := strings.Split(text, "\n")
		for lineIdx, line := range lines {
			if !fillLineRE.MatchString(line) {
				continue
			}
			counter++
			label := strings.TrimSpace(fillLineRE.ReplaceAllString(line, ""))
			if label == "" {
				label = precedingLine(lines, lineIdx)
			}
			fields = append(fields, field{
				id:    fmt.Sprintf("F%d", counter),
				page:  pageIdx + 1,
				label: label,
			})
		}
	}
	return fields
}

func precedingLine(lines []string, idx int) string {
	for i := idx - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}

// ExtractStructureCompact indexes the document's fields. The ID map is the
// identity, matching the spreadsheet backend.
func ExtractStructureCompact(fileBytes []byte) (fill.CompactStructure, error) {
	fields, _, err := documentFields(fileBytes)
	if err != nil {
		return fill.CompactStructure{}, err
	}

	if len(fields) == 0 {
		return fill.CompactStructure{
			CompactText:     "No fillable form fields found. This PDF may be a flat/scanned document.",
			IDToXPath:       map[string]string{},
			ComplexElements: []string{},
		}, nil
	}

	idToXPath := make(map[string]string, len(fields))
	lines := []string{fmt.Sprintf("=== PDF Form: %d field(s) across %d page(s) ===",
		len(fields), pageCount(fields))}

	currentPage := 0
	for _, f := range fields {
		idToXPath[f.id] = f.id
		if f.page != currentPage {
			currentPage = f.page
			lines = append(lines, "", fmt.Sprintf("Page %d:", currentPage))
		}
		line := fmt.Sprintf("[%s] (text)", f.id)
		if f.label != "" {
			line = fmt.Sprintf("[%s] %q (text)", f.id, f.label)
		}
		if f.value != "" {
			line += fmt.Sprintf(" -- current: %q", f.value)
		} else {
			line += " -- empty ← answer target"
		}
		lines = append(lines, line)
	}

	return fill.CompactStructure{
		CompactText:     strings.Join(lines, "\n"),
		IDToXPath:       idToXPath,
		ComplexElements: []string{},
	}, nil
}

func pageCount(fields []field) int {
	seen := make(map[int]bool)
	for _, f := range fields {
		seen[f.page] = true
	}
	return len(seen)
}

// ValidateLocations checks each F-ID against a fresh field index. A bad
// location never aborts the batch.
func ValidateLocations(fileBytes []byte, locations []fill.LocationSnippet) ([]fill.ValidatedLocation, error) {
	fields, _, err := documentFields(fileBytes)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]field, len(fields))
	for _, f := range fields {
		byID[f.id] = f
	}

	results := make([]fill.ValidatedLocation, 0, len(locations))
	for _, loc := range locations {
		id := strings.TrimSpace(loc.Snippet)
		f, ok := byID[id]
		if !IsFieldID(id) || !ok {
			results = append(results, fill.ValidatedLocation{
				PairID:  loc.PairID,
				Status:  fill.LocationNotFound,
				Context: fmt.Sprintf("unknown field ID %q: expected F{n} from extract_structure_compact", id),
			})
			continue
		}
		results = append(results, fill.ValidatedLocation{
			PairID:  loc.PairID,
			Status:  fill.LocationMatched,
			XPath:   f.id,
			Context: f.label,
		})
	}
	return results, nil
}

// WriteAnswers fills the document's interactive form fields and returns
// the rewritten PDF. The whole batch is validated before the fill runs, so
// an invalid answer leaves the document untouched. Flat documents cannot
// be written.
func WriteAnswers(fileBytes []byte, answers []fill.AnswerPayload) ([]byte, error) {
	af, err := acroFields(fileBytes)
	if err != nil || len(af) == 0 {
		return nil, ErrWriteUnsupported
	}
	updates, err := planFieldUpdates(af, answers)
	if err != nil {
		return nil, err
	}
	payload, err := fillPayload(updates)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(fileBytes), bytes.NewReader(payload), &out, nil); err != nil {
		return nil, fmt.Errorf("fill form fields: %w", err)
	}
	return out.Bytes(), nil
}

// VerifyOutput checks each expectation against the field it names. On
// interactive forms the comparison reads the field value; on flat
// documents it searches the text of the page the fill-line sits on.
func VerifyOutput(fileBytes []byte, expected []fill.ExpectedAnswer) (fill.VerificationReport, error) {
	if af, err := acroFields(fileBytes); err == nil && len(af) > 0 {
		return verifyAcroFields(fieldsFromAcro(af), expected), nil
	}

	texts, err := pageTexts(fileBytes)
	if err != nil {
		return fill.VerificationReport{}, err
	}
	byID := make(map[string]field)
	for _, f := range collectFields(texts) {
		byID[f.id] = f
	}

	results := make([]fill.ContentResult, 0, len(expected))
	for _, e := range expected {
		f, ok := byID[strings.TrimSpace(e.XPath)]
		if !ok {
			// Field may have been consumed by the fill; search all pages.
			results = append(results, verifyAgainstText(e, strings.Join(texts, "\n")))
			continue
		}
		results = append(results, verifyAgainstText(e, texts[f.page-1]))
	}

	return fill.VerificationReport{
		StructuralIssues: []string{},
		ContentResults:   results,
		Summary:          fill.BuildSummary(results, expected, 0),
	}, nil
}

func verifyAcroFields(fields []field, expected []fill.ExpectedAnswer) fill.VerificationReport {
	byID := make(map[string]field, len(fields))
	var all []string
	for _, f := range fields {
		byID[f.id] = f
		all = append(all, f.value)
	}

	results := make([]fill.ContentResult, 0, len(expected))
	for _, e := range expected {
		f, ok := byID[strings.TrimSpace(e.XPath)]
		if !ok {
			results = append(results, verifyAgainstText(e, strings.Join(all, "\n")))
			continue
		}
		r := verifyAgainstText(e, f.value)
		if r.Status != fill.ContentMatched {
			r.Actual = f.value
		}
		results = append(results, r)
	}

	return fill.VerificationReport{
		StructuralIssues: []string{},
		ContentResults:   results,
		Summary:          fill.BuildSummary(results, expected, 0),
	}
}

func verifyAgainstText(e fill.ExpectedAnswer, text string) fill.ContentResult {
	status := fill.ContentMissing
	if strings.Contains(strings.ToLower(text), strings.ToLower(e.ExpectedText)) {
		status = fill.ContentMatched
	}
	return fill.ContentResult{
		PairID:   e.PairID,
		Status:   status,
		Expected: e.ExpectedText,
	}
}

// ListFormFields exposes the detected fields in form-field shape.
func ListFormFields(fileBytes []byte) ([]fill.FormField, error) {
	fields, acro, err := documentFields(fileBytes)
	if err != nil {
		return nil, err
	}
	fieldType := "fill_line"
	if acro {
		fieldType = "form_field"
	}
	out := make([]fill.FormField, 0, len(fields))
	for i, f := range fields {
		out = append(out, fill.FormField{
			FieldID:      fmt.Sprintf("field_%d", i+1),
			Label:        f.label,
			FieldType:    fieldType,
			CurrentValue: f.value,
			Location:     f.id,
		})
	}
	return out, nil
}
