package docx

import (
	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/ooxml"
)

// InsertionResult is the outcome of build_insertion_xml. Invalid input is
// reported as data rather than an error so the agent can read the problem
// and retry.
type InsertionResult struct {
	InsertionXML string `json:"insertion_xml"`
	Valid        bool   `json:"valid"`
	Error        string `json:"error,omitempty"`
}

// BuildInsertionXML produces insertion markup for an answer.
//
// plain_text wraps the answer in a run inheriting formatting from the
// target context. markdown additionally converts inline emphasis and line
// breaks to formatted runs. structured validates agent-supplied OOXML
// against the element allow-list and passes it through.
func BuildInsertionXML(answerText, targetContextXML string, answerType fill.AnswerType) InsertionResult {
	switch answerType {
	case fill.AnswerStructured:
		if err := ooxml.CheckWellFormed(answerText); err != nil {
			return InsertionResult{Error: err.Error()}
		}
		return InsertionResult{InsertionXML: answerText, Valid: true}

	case fill.AnswerMarkdown:
		formatting, err := ooxml.ExtractFormattingXML(targetContextXML)
		if err != nil {
			return InsertionResult{Error: err.Error()}
		}
		xml, err := buildMarkdownXML(answerText, formatting)
		if err != nil {
			return InsertionResult{Error: err.Error()}
		}
		return InsertionResult{InsertionXML: xml, Valid: true}

	default: // plain_text
		formatting, err := ooxml.ExtractFormattingXML(targetContextXML)
		if err != nil {
			return InsertionResult{Error: err.Error()}
		}
		xml, err := ooxml.BuildRunXML(answerText, formatting)
		if err != nil {
			return InsertionResult{Error: err.Error()}
		}
		return InsertionResult{InsertionXML: xml, Valid: true}
	}
}
