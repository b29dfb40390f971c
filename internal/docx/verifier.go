package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/ooxml"
)

// VerifyOutput re-parses filled document bytes and checks them against the
// expectations. It always parses fresh; verification must prove the bytes
// that were persisted are correct, not some in-memory tree from the write
// call.
//
// Two independent checks run: a document-wide structural scan for known
// invariant violations, and a per-expectation content comparison. Content
// text is normalized the same way the write engine splits multi-line
// answers (line breaks become spaces, whitespace collapsed) and compared
// case-insensitively as a substring.
func VerifyOutput(fileBytes []byte, expected []fill.ExpectedAnswer) (fill.VerificationReport, error) {
	_, body, err := parseBody(fileBytes)
	if err != nil {
		return fill.VerificationReport{}, err
	}

	structural := checkStructuralIssues(body)

	// Build the ID map lazily: expectations may reference element IDs
	// instead of xpaths.
	var idToXPath map[string]string
	for _, e := range expected {
		if IsElementID(e.XPath) || (e.XPath == "" && IsElementID(e.PairID)) {
			compact, err := ExtractStructureCompact(fileBytes)
			if err != nil {
				return fill.VerificationReport{}, err
			}
			idToXPath = compact.IDToXPath
			break
		}
	}

	results := make([]fill.ContentResult, 0, len(expected))
	for _, e := range expected {
		results = append(results, verifyOne(body, e, idToXPath))
	}

	return fill.VerificationReport{
		StructuralIssues: structural,
		ContentResults:   results,
		Summary:          fill.BuildSummary(results, expected, len(structural)),
	}, nil
}

// checkStructuralIssues scans every table cell for invariant violations: a
// run directly under a cell (must be wrapped in a paragraph) and a cell
// with no paragraph child at all. The scan collects every violation, it
// never stops at the first.
func checkStructuralIssues(body *etree.Element) []string {
	var issues []string
	walkTag(body, "tc", func(tc *etree.Element) {
		for _, child := range tc.ChildElements() {
			if child.Tag == "r" {
				issues = append(issues, fmt.Sprintf(
					"bare w:r found directly under w:tc (context: %q)", contextShort(tc)))
			}
		}
		if len(childElementsByTag(tc, "p")) == 0 {
			issues = append(issues, fmt.Sprintf(
				"w:tc has no w:p child (context: %q)", contextShort(tc)))
		}
	})
	return issues
}

func contextShort(elem *etree.Element) string {
	return truncateRunes(elementText(elem), 50)
}

func verifyOne(body *etree.Element, e fill.ExpectedAnswer, idToXPath map[string]string) fill.ContentResult {
	result := fill.ContentResult{
		PairID:   e.PairID,
		Expected: e.ExpectedText,
		Status:   fill.ContentMissing,
	}

	target := resolveExpectationTarget(body, e, idToXPath)
	if target == nil {
		return result
	}

	actual := visibleText(target)
	result.Actual = actual
	if containsNormalized(actual, e.ExpectedText) {
		result.Status = fill.ContentMatched
	} else {
		result.Status = fill.ContentMismatched
	}
	return result
}

// resolveExpectationTarget locates an expectation's element the same way
// the location resolver would: element IDs through the fresh index, xpaths
// through the validated resolver.
func resolveExpectationTarget(body *etree.Element, e fill.ExpectedAnswer, idToXPath map[string]string) *etree.Element {
	ref := e.XPath
	if ref == "" && IsElementID(e.PairID) {
		ref = e.PairID
	}
	if IsElementID(ref) {
		xpath, ok := idToXPath[strings.TrimSpace(ref)]
		if !ok {
			return nil
		}
		ref = xpath
	}
	target, err := ooxml.ResolveXPath(body, ref)
	if err != nil {
		return nil
	}
	return target
}

// containsNormalized compares case-insensitively after collapsing
// whitespace on both sides, as a substring match. Expected text gets the
// same line-break treatment the write engine applies when splitting
// answers, so multi-line answers round-trip through write and verify.
func containsNormalized(actual, expected string) bool {
	expected = strings.ReplaceAll(expected, `\n`, "\n")
	a := strings.ToLower(normalizeSpace(actual))
	b := strings.ToLower(normalizeSpace(expected))
	return strings.Contains(a, b)
}
