package docx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/ooxml"
)

var (
	placeholderBracketRE = regexp.MustCompile(`\[Enter[^\]]*\]`)
	placeholderLineRE    = regexp.MustCompile(`_{3,}`)
)

// writePlan is one validated answer, ready to apply: the resolved target
// and the insertion content built during validation.
type writePlan struct {
	answer  fill.AnswerPayload
	target  *etree.Element
	content *etree.Element
}

// WriteAnswers inserts a batch of answers into the document and returns
// the modified .docx bytes.
//
// The batch is processed in two phases: every answer is validated (target
// resolves, exactly one of answer_text/insertion_xml supplied, markup
// well-formed and allow-listed, placeholder present for
// replace_placeholder) before any mutation happens. A single invalid
// answer rejects the whole batch with every problem listed, leaving the
// document untouched; a partially applied batch cannot be retried safely.
func WriteAnswers(fileBytes []byte, answers []fill.AnswerPayload) ([]byte, error) {
	doc, body, err := parseBody(fileBytes)
	if err != nil {
		return nil, err
	}

	// Phase 1: validate everything, collect every failure.
	plans := make([]writePlan, 0, len(answers))
	var problems []string
	fail := func(i int, a fill.AnswerPayload, format string, args ...any) {
		problems = append(problems,
			fmt.Sprintf("answer '%s' (index %d): %s", a.PairID, i, fmt.Sprintf(format, args...)))
	}

	for i, a := range answers {
		// Whitespace-only answers are writable (they come out as
		// xml:space="preserve" runs), so only a truly absent field counts
		// as "not provided".
		hasText := a.AnswerText != ""
		hasXML := strings.TrimSpace(a.InsertionXML) != ""
		switch {
		case hasText && hasXML:
			fail(i, a, "both answer_text and insertion_xml provided -- use one, not both")
			continue
		case !hasText && !hasXML:
			fail(i, a, "neither answer_text nor insertion_xml provided -- use answer_text for plain text, insertion_xml for structured OOXML")
			continue
		}

		if a.XPath == "" {
			fail(i, a, "missing xpath -- resolve the location first via validate_locations")
			continue
		}
		target, err := ooxml.ResolveXPath(body, a.XPath)
		if err != nil {
			fail(i, a, "%v", err)
			continue
		}

		var content *etree.Element
		if hasXML {
			if err := ooxml.CheckWellFormed(a.InsertionXML); err != nil {
				fail(i, a, "insertion_xml rejected: %v", err)
				continue
			}
			content, err = ooxml.ParseSnippet(a.InsertionXML)
			if err != nil {
				fail(i, a, "insertion_xml rejected: %v", err)
				continue
			}
		} else {
			// Fast path: inherit formatting from the target.
			content = ooxml.BuildRunElement(a.AnswerText, ooxml.ExtractFormatting(target))
		}

		if a.Mode == fill.ModeReplacePlaceholder && !hasPlaceholder(target) {
			fail(i, a, "mode is replace_placeholder but the target contains no placeholder pattern")
			continue
		}

		plans = append(plans, writePlan{answer: a, target: target, content: content})
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("write_answers validation failed (%d invalid answer(s)):\n%s",
			len(problems), strings.Join(problems, "\n"))
	}

	// Phase 2: apply in caller order, then serialize once.
	for _, plan := range plans {
		switch plan.answer.Mode {
		case fill.ModeAppend:
			applyAppend(plan.target, plan.content)
		case fill.ModeReplacePlaceholder:
			applyReplacePlaceholder(plan.target, plan.content)
		default: // replace_content
			applyReplaceContent(plan.target, plan.content)
		}
	}

	modifiedXML, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize document.xml: %w", err)
	}
	return repackage(fileBytes, modifiedXML)
}

// applyReplaceContent clears the target's content and inserts the new
// element. Structural property children (w:pPr, w:tcPr) are kept. A bare
// run going into a table cell is wrapped in a paragraph first; runs may
// never be direct children of a cell.
func applyReplaceContent(target, content *etree.Element) {
	for _, child := range target.ChildElements() {
		if child.Tag == "pPr" || child.Tag == "tcPr" {
			continue
		}
		target.RemoveChild(child)
	}
	target.SetText("")

	insertContent(target, content)
}

// applyAppend inserts the new content after the target's existing
// children.
func applyAppend(target, content *etree.Element) {
	insertContent(target, content)
}

// insertContent adds content to target while keeping the tree valid: a
// bare run going into a table cell is wrapped in a paragraph (runs may
// never be direct children of a cell), and a paragraph going into a
// paragraph is unwrapped into its runs (paragraphs do not nest).
func insertContent(target, content *etree.Element) {
	switch {
	case target.Tag == "tc" && content.Tag == "r":
		para := etree.NewElement("w:p")
		para.AddChild(content)
		target.AddChild(para)
	case target.Tag == "p" && content.Tag == "p":
		for _, child := range content.ChildElements() {
			if child.Tag == "pPr" {
				continue
			}
			target.AddChild(child)
		}
	default:
		target.AddChild(content)
	}
}

// applyReplacePlaceholder substitutes the first placeholder occurrence in
// the target's text with the new content's text, leaving surrounding
// content (e.g. a label in the same paragraph) untouched. Validation has
// already confirmed a placeholder exists.
func applyReplacePlaceholder(target, content *etree.Element) {
	newText := firstText(content)

	done := false
	walkTag(target, "t", func(t *etree.Element) {
		if done || t.Text() == "" {
			return
		}
		switch {
		case placeholderBracketRE.MatchString(t.Text()):
			setRunText(t, placeholderBracketRE.ReplaceAllString(t.Text(), newText))
			done = true
		case placeholderLineRE.MatchString(t.Text()):
			setRunText(t, placeholderLineRE.ReplaceAllString(t.Text(), newText))
			done = true
		}
	})
}

func setRunText(t *etree.Element, text string) {
	t.SetText(text)
	if len(text) > 0 && (text[0] == ' ' || text[len(text)-1] == ' ') {
		if t.SelectAttr("xml:space") == nil {
			t.CreateAttr("xml:space", "preserve")
		}
	}
}

func hasPlaceholder(target *etree.Element) bool {
	found := false
	walkTag(target, "t", func(t *etree.Element) {
		if placeholderBracketRE.MatchString(t.Text()) || placeholderLineRE.MatchString(t.Text()) {
			found = true
		}
	})
	return found
}

// firstText returns the text of the first w:t under elem.
func firstText(elem *etree.Element) string {
	if elem.Tag == "t" {
		return elem.Text()
	}
	if t := firstDescendantTag(elem, "t"); t != nil {
		return t.Text()
	}
	return ""
}
