// Package fill defines the shared data model passed between the API layer
// and the document backends: answer payloads, location results, and
// verification reports.
package fill

import "fmt"

// FileType identifies which backend handles a document.
type FileType string

const (
	FileTypeWord  FileType = "word"
	FileTypeExcel FileType = "excel"
	FileTypePDF   FileType = "pdf"
)

// ParseFileType validates a file_type string.
func ParseFileType(s string) (FileType, error) {
	switch FileType(s) {
	case FileTypeWord, FileTypeExcel, FileTypePDF:
		return FileType(s), nil
	}
	return "", fmt.Errorf("invalid file_type %q: valid values are 'word', 'excel', 'pdf'", s)
}

// InsertionMode selects how the write engine applies an answer. The set is
// closed; dispatch is an exhaustive switch, not a registry.
type InsertionMode string

const (
	ModeReplaceContent     InsertionMode = "replace_content"
	ModeAppend             InsertionMode = "append"
	ModeReplacePlaceholder InsertionMode = "replace_placeholder"
)

// ParseInsertionMode validates a mode string. An empty string defaults to
// replace_content, the overwhelmingly common case.
func ParseInsertionMode(s string) (InsertionMode, error) {
	if s == "" {
		return ModeReplaceContent, nil
	}
	switch InsertionMode(s) {
	case ModeReplaceContent, ModeAppend, ModeReplacePlaceholder:
		return InsertionMode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q: valid values are 'replace_content', 'append', 'replace_placeholder'", s)
}

// AnswerType selects how build_insertion_xml treats the answer content.
type AnswerType string

const (
	AnswerPlainText  AnswerType = "plain_text"
	AnswerStructured AnswerType = "structured"
	AnswerMarkdown   AnswerType = "markdown"
)

// ParseAnswerType validates an answer_type string.
func ParseAnswerType(s string) (AnswerType, error) {
	switch AnswerType(s) {
	case AnswerPlainText, AnswerStructured, AnswerMarkdown:
		return AnswerType(s), nil
	}
	return "", fmt.Errorf("invalid answer_type %q: valid values are 'plain_text', 'structured', 'markdown'", s)
}

// LocationStatus is the outcome of resolving one location.
type LocationStatus string

const (
	LocationMatched   LocationStatus = "matched"
	LocationNotFound  LocationStatus = "not_found"
	LocationAmbiguous LocationStatus = "ambiguous"
)

// ContentStatus is the outcome of one verification expectation.
type ContentStatus string

const (
	ContentMatched    ContentStatus = "matched"
	ContentMismatched ContentStatus = "mismatched"
	ContentMissing    ContentStatus = "missing"
)

// Confidence is opaque agent metadata echoed back in aggregate counts; no
// logic branches on it.
type Confidence string

const (
	ConfidenceKnown     Confidence = "known"
	ConfidenceUncertain Confidence = "uncertain"
	ConfidenceUnknown   Confidence = "unknown"
)

// CompactStructure is the indexed representation a backend produces from
// one pass over a document.
type CompactStructure struct {
	CompactText     string            `json:"compact_text"`
	IDToXPath       map[string]string `json:"id_to_xpath"`
	ComplexElements []string          `json:"complex_elements"`
}

// LocationSnippet is one location to resolve: either a stable element ID
// (T1-R2-C2, P5) or a raw OOXML snippet.
type LocationSnippet struct {
	PairID  string `json:"pair_id"`
	Snippet string `json:"snippet"`
}

// ValidatedLocation is the per-location result of validate_locations.
type ValidatedLocation struct {
	PairID  string         `json:"pair_id"`
	Status  LocationStatus `json:"status"`
	XPath   string         `json:"xpath,omitempty"`
	Context string         `json:"context,omitempty"`
}

// AnswerPayload is one unit of work for the write engine. Exactly one of
// AnswerText and InsertionXML must be supplied.
type AnswerPayload struct {
	PairID       string        `json:"pair_id"`
	XPath        string        `json:"xpath"`
	Mode         InsertionMode `json:"mode"`
	AnswerText   string        `json:"answer_text,omitempty"`
	InsertionXML string        `json:"insertion_xml,omitempty"`
	Confidence   Confidence    `json:"confidence,omitempty"`
}

// ExpectedAnswer is one verification expectation.
type ExpectedAnswer struct {
	PairID       string     `json:"pair_id"`
	XPath        string     `json:"xpath"`
	ExpectedText string     `json:"expected_text"`
	Confidence   Confidence `json:"confidence,omitempty"`
}

// ContentResult is the per-expectation verification outcome.
type ContentResult struct {
	PairID   string        `json:"pair_id"`
	Status   ContentStatus `json:"status"`
	Expected string        `json:"expected"`
	Actual   string        `json:"actual"`
}

// VerificationSummary aggregates a verification run.
type VerificationSummary struct {
	Total               int    `json:"total"`
	Matched             int    `json:"matched"`
	Mismatched          int    `json:"mismatched"`
	Missing             int    `json:"missing"`
	StructuralIssues    int    `json:"structural_issues"`
	ConfidenceKnown     int    `json:"confidence_known"`
	ConfidenceUncertain int    `json:"confidence_uncertain"`
	ConfidenceUnknown   int    `json:"confidence_unknown"`
	ConfidenceNote      string `json:"confidence_note,omitempty"`
}

// VerificationReport is the full output of verify_output.
type VerificationReport struct {
	StructuralIssues []string            `json:"structural_issues"`
	ContentResults   []ContentResult     `json:"content_results"`
	Summary          VerificationSummary `json:"summary"`
}

// FormField is one fillable target detected by code heuristics. Location,
// when set, is the element or cell ID of the writable target.
type FormField struct {
	FieldID      string `json:"field_id"`
	Label        string `json:"label"`
	FieldType    string `json:"field_type"`
	CurrentValue string `json:"current_value,omitempty"`
	Location     string `json:"location,omitempty"`
}

// Preview is the dry-run result for one answer: what would be written
// where, without mutating the document.
type Preview struct {
	PairID      string `json:"pair_id"`
	XPath       string `json:"xpath"`
	CurrentText string `json:"current_text"`
	WouldWrite  string `json:"would_write"`
	Mode        string `json:"mode,omitempty"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
}

// BuildSummary computes the aggregate verification summary from content
// results and the expectations' confidence tags.
func BuildSummary(results []ContentResult, expected []ExpectedAnswer, structuralIssues int) VerificationSummary {
	s := VerificationSummary{
		Total:            len(expected),
		StructuralIssues: structuralIssues,
	}
	for _, r := range results {
		switch r.Status {
		case ContentMatched:
			s.Matched++
		case ContentMismatched:
			s.Mismatched++
		case ContentMissing:
			s.Missing++
		}
	}
	for _, e := range expected {
		switch e.Confidence {
		case ConfidenceKnown:
			s.ConfidenceKnown++
		case ConfidenceUncertain:
			s.ConfidenceUncertain++
		case ConfidenceUnknown:
			s.ConfidenceUnknown++
		}
	}
	s.ConfidenceNote = confidenceNote(s)
	return s
}

func confidenceNote(s VerificationSummary) string {
	var parts []string
	if s.ConfidenceKnown > 0 {
		parts = append(parts, fmt.Sprintf("%d known", s.ConfidenceKnown))
	}
	if s.ConfidenceUncertain > 0 {
		parts = append(parts, fmt.Sprintf("%d uncertain", s.ConfidenceUncertain))
	}
	if s.ConfidenceUnknown > 0 {
		parts = append(parts, fmt.Sprintf("%d unknown", s.ConfidenceUnknown))
	}
	note := ""
	for i, p := range parts {
		if i > 0 {
			note += ", "
		}
		note += p
	}
	if s.ConfidenceUncertain > 0 || s.ConfidenceUnknown > 0 {
		note += " - manual review needed"
	}
	return note
}
