package api

import (
	"fmt"
	"strings"

	"github.com/dgallion1/formfill/internal/docx"
	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/pdfform"
	"github.com/dgallion1/formfill/internal/xlsx"
)

// answerInput is the wire shape of one answer. Word answers use xpath;
// spreadsheet and PDF answers may use the relaxed cell_id/field_id and
// value aliases. An answer carrying only pair_id has its location resolved
// by re-extraction.
type answerInput struct {
	PairID       string `json:"pair_id"`
	XPath        string `json:"xpath,omitempty"`
	CellID       string `json:"cell_id,omitempty"`
	FieldID      string `json:"field_id,omitempty"`
	Mode         string `json:"mode,omitempty"`
	AnswerText   string `json:"answer_text,omitempty"`
	Value        string `json:"value,omitempty"`
	InsertionXML string `json:"insertion_xml,omitempty"`
	Confidence   string `json:"confidence,omitempty"`
}

func (a answerInput) location() string {
	for _, loc := range []string{a.XPath, a.CellID, a.FieldID} {
		if strings.TrimSpace(loc) != "" {
			return strings.TrimSpace(loc)
		}
	}
	return ""
}

func (a answerInput) text() string {
	if a.AnswerText != "" {
		return a.AnswerText
	}
	return a.Value
}

// buildAnswerPayloads converts wire answers into engine payloads,
// resolving missing locations from pair IDs via compact re-extraction.
// When an answer carries both a pair_id and an explicit location that
// disagree, the resolved location wins and a warning is returned.
func buildAnswerPayloads(fileBytes []byte, ft fill.FileType, answers []answerInput) ([]fill.AnswerPayload, []string, error) {
	// Resolution, cross-checking, and ID-as-location translation all need
	// the ID map.
	needsMap := false
	for _, a := range answers {
		if a.PairID != "" || (ft == fill.FileTypeWord && docx.IsElementID(a.location())) {
			needsMap = true
			break
		}
	}

	var idToXPath map[string]string
	if needsMap {
		compact, err := extractCompact(fileBytes, ft)
		if err != nil {
			return nil, nil, err
		}
		idToXPath = compact.IDToXPath
	}

	payloads := make([]fill.AnswerPayload, 0, len(answers))
	var warnings []string
	for i, a := range answers {
		mode, err := fill.ParseInsertionMode(a.Mode)
		if err != nil {
			return nil, nil, fmt.Errorf("answers[%d]: %v", i, err)
		}

		loc := a.location()
		// Word targets need a real path; an element ID given as the
		// location is translated the same way pair IDs are.
		if ft == fill.FileTypeWord && docx.IsElementID(loc) {
			if xpath, ok := idToXPath[loc]; ok {
				loc = xpath
			}
		}
		resolved := idToXPath[a.PairID]
		switch {
		case loc == "" && resolved == "":
			return nil, nil, fmt.Errorf(
				"answers[%d] ('%s'): no xpath given and pair_id does not match any element ID from extract_structure_compact", i, a.PairID)
		case loc == "":
			loc = resolved
		case resolved != "" && resolved != loc:
			warnings = append(warnings, fmt.Sprintf(
				"pair_id '%s': agent xpath '%s' differs from resolved xpath '%s' -- using resolved (pair_id is authority)",
				a.PairID, loc, resolved))
			loc = resolved
		}

		payloads = append(payloads, fill.AnswerPayload{
			PairID:       a.PairID,
			XPath:        loc,
			Mode:         mode,
			AnswerText:   a.text(),
			InsertionXML: a.InsertionXML,
			Confidence:   fill.Confidence(a.Confidence),
		})
	}
	return payloads, warnings, nil
}

// extractCompact dispatches compact extraction to the backend for ft.
func extractCompact(fileBytes []byte, ft fill.FileType) (fill.CompactStructure, error) {
	switch ft {
	case fill.FileTypeWord:
		return docx.ExtractStructureCompact(fileBytes)
	case fill.FileTypeExcel:
		return xlsx.ExtractStructureCompact(fileBytes)
	case fill.FileTypePDF:
		return pdfform.ExtractStructureCompact(fileBytes)
	}
	return fill.CompactStructure{}, fmt.Errorf("unsupported file type %q", ft)
}
