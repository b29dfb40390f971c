package docx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/ooxml"
)

// elementIDRE matches the stable IDs assigned by ExtractStructureCompact.
var elementIDRE = regexp.MustCompile(`^(T\d+-R\d+-C\d+|P\d+)$`)

// tableCellIDRE captures the table/row/column parts of a cell ID.
var tableCellIDRE = regexp.MustCompile(`^T(\d+)-R(\d+)-C(\d+)$`)

// IsElementID reports whether a location string uses the stable element
// ID grammar rather than being a raw snippet.
func IsElementID(s string) bool {
	return elementIDRE.MatchString(strings.TrimSpace(s))
}

// ValidateLocations resolves each location against the document body.
// Element IDs take the fast path through a fresh compact index; raw OOXML
// snippets take the slow path through structural snippet matching. A bad
// location never aborts the batch; it reports not_found for that entry
// and the rest still resolve.
func ValidateLocations(fileBytes []byte, locations []fill.LocationSnippet) ([]fill.ValidatedLocation, error) {
	_, body, err := parseBody(fileBytes)
	if err != nil {
		return nil, err
	}

	// Build the ID map only when at least one location needs it.
	var idToXPath map[string]string
	for _, loc := range locations {
		if IsElementID(loc.Snippet) {
			compact, err := ExtractStructureCompact(fileBytes)
			if err != nil {
				return nil, err
			}
			idToXPath = compact.IDToXPath
			break
		}
	}

	results := make([]fill.ValidatedLocation, 0, len(locations))
	for _, loc := range locations {
		if IsElementID(loc.Snippet) {
			results = append(results, validateElementID(loc, idToXPath, body))
		} else {
			results = append(results, validateSnippet(loc, body))
		}
	}
	return results, nil
}

func validateElementID(loc fill.LocationSnippet, idToXPath map[string]string, body *etree.Element) fill.ValidatedLocation {
	id := strings.TrimSpace(loc.Snippet)
	xpath, ok := idToXPath[id]
	if !ok {
		return fill.ValidatedLocation{PairID: loc.PairID, Status: fill.LocationNotFound}
	}

	context := ""
	target, err := ooxml.ResolveXPath(body, xpath)
	if err == nil {
		context = contextText(target)
		if warning := questionCellWarning(id, target, idToXPath); warning != "" {
			if context != "" {
				context = warning + "\n" + context
			} else {
				context = warning
			}
		}
	}
	return fill.ValidatedLocation{
		PairID:  loc.PairID,
		Status:  fill.LocationMatched,
		XPath:   xpath,
		Context: context,
	}
}

func validateSnippet(loc fill.LocationSnippet, body *etree.Element) fill.ValidatedLocation {
	xpaths, err := ooxml.FindSnippetInBody(body, loc.Snippet)
	if err != nil {
		// Unparsable snippets report not_found, they never abort the batch.
		return fill.ValidatedLocation{PairID: loc.PairID, Status: fill.LocationNotFound}
	}

	switch len(xpaths) {
	case 0:
		return fill.ValidatedLocation{PairID: loc.PairID, Status: fill.LocationNotFound}
	case 1:
		context := ""
		if target, err := ooxml.ResolveXPath(body, xpaths[0]); err == nil {
			context = contextText(target)
		}
		return fill.ValidatedLocation{
			PairID:  loc.PairID,
			Status:  fill.LocationMatched,
			XPath:   xpaths[0],
			Context: context,
		}
	default:
		return fill.ValidatedLocation{
			PairID:  loc.PairID,
			Status:  fill.LocationAmbiguous,
			Context: fmt.Sprintf("Snippet matched %d locations: %s", len(xpaths), strings.Join(xpaths, ", ")),
		}
	}
}

// questionCellWarning flags a table cell that already contains text and
// does not look like an answer target: the agent probably picked the
// question cell. Suggests the next cell in the row when it exists. This
// is advisory only, never a hard block.
func questionCellWarning(id string, target *etree.Element, idToXPath map[string]string) string {
	m := tableCellIDRE.FindStringSubmatch(id)
	if m == nil {
		return ""
	}
	text := elementText(target)
	if isAnswerTarget(text) {
		return ""
	}

	preview := text
	if len(preview) > 60 {
		preview = truncateRunes(preview, 60) + "..."
	}
	msg := fmt.Sprintf(
		"WARNING: %s contains existing text: '%s' -- this looks like a question cell, not an answer target.",
		id, preview,
	)
	candidate := fmt.Sprintf("T%s-R%s-C%s", m[1], m[2], nextColumn(m[3]))
	if _, ok := idToXPath[candidate]; ok {
		msg += fmt.Sprintf(" Did you mean %s?", candidate)
	}
	return msg
}

func nextColumn(col string) string {
	n := 0
	fmt.Sscanf(col, "%d", &n)
	return fmt.Sprintf("%d", n+1)
}
