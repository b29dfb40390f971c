package docx

import (
	"fmt"
	"strings"

	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/ooxml"
)

// PreviewAnswers resolves each answer's target and reports what would be
// written where, without mutating the document. The agent reviews the
// preview to catch right-answer-wrong-cell mistakes before committing.
func PreviewAnswers(fileBytes []byte, answers []fill.AnswerPayload) ([]fill.Preview, error) {
	_, body, err := parseBody(fileBytes)
	if err != nil {
		return nil, err
	}

	previews := make([]fill.Preview, 0, len(answers))
	for _, a := range answers {
		target, err := ooxml.ResolveXPath(body, a.XPath)
		if err != nil {
			previews = append(previews, fill.Preview{
				PairID:     a.PairID,
				XPath:      a.XPath,
				WouldWrite: describeWrite(a),
				Status:     "error",
				Message:    "xpath did not match any element",
			})
			continue
		}

		current := elementText(target)
		p := fill.Preview{
			PairID:      a.PairID,
			XPath:       a.XPath,
			CurrentText: current,
			WouldWrite:  describeWrite(a),
			Mode:        string(a.Mode),
			Status:      "ok",
		}
		if strings.TrimSpace(current) != "" {
			p.Status = "warning"
			preview := current
			if len(preview) > 60 {
				preview = truncateRunes(preview, 60) + "..."
			}
			p.Message = fmt.Sprintf("target already contains: '%s'", preview)
		}
		previews = append(previews, p)
	}
	return previews, nil
}

func describeWrite(a fill.AnswerPayload) string {
	if a.AnswerText != "" {
		return a.AnswerText
	}
	if a.InsertionXML != "" {
		return fmt.Sprintf("[pre-built XML: %d chars]", len(a.InsertionXML))
	}
	return "[empty]"
}
