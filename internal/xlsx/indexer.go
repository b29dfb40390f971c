package xlsx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/fill"
)

// ExtractStructureCompact walks every sheet in workbook order and assigns
// each populated-row cell a stable S{s}-R{r}-C{c} ID. Cell IDs are their
// own location paths, so the ID map is the identity. Spreadsheets have no
// complex elements.
func ExtractStructureCompact(fileBytes []byte) (fill.CompactStructure, error) {
	wb, err := openWorkbook(fileBytes)
	if err != nil {
		return fill.CompactStructure{}, err
	}

	var lines []string
	idToXPath := make(map[string]string)
	for sIdx, s := range wb.sheets {
		lines = append(lines, fmt.Sprintf("=== Sheet %d: %q ===", sIdx+1, s.name))
		indexSheet(wb, s, sIdx+1, &lines, idToXPath)
	}

	return fill.CompactStructure{
		CompactText:     strings.Join(lines, "\n"),
		IDToXPath:       idToXPath,
		ComplexElements: []string{},
	}, nil
}

func indexSheet(wb *workbook, s sheet, sheetIdx int, lines *[]string, idToXPath map[string]string) {
	root := s.doc.Root()
	if root == nil {
		return
	}
	merged := mergedLookup(root)

	sheetData := childByTag(root, "sheetData")
	if sheetData == nil {
		return
	}
	for _, row := range childrenByTag(sheetData, "row") {
		for _, c := range childrenByTag(row, "c") {
			rowNum, colNum, ok := parseA1(attr(c, "r"))
			if !ok {
				continue
			}
			id := fmt.Sprintf("S%d-R%d-C%d", sheetIdx, rowNum, colNum)
			idToXPath[id] = id

			text := wb.cellText(c)
			hints := cellHints(wb, c, text)
			if rng, ok := merged[a1Ref(rowNum, colNum)]; ok {
				hints = append(hints, "merged: "+rng)
			}

			line := fmt.Sprintf("%s: %q", id, text)
			if len(hints) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(hints, ", "))
			}
			if strings.TrimSpace(text) == "" {
				line += " ← answer target"
			}
			*lines = append(*lines, line)
		}
	}
}

// cellHints reports skim-worthy properties of a cell: emptiness plus any
// bold, italic, or shading resolved through the style table.
func cellHints(wb *workbook, c *etree.Element, text string) []string {
	var hints []string
	if strings.TrimSpace(text) == "" {
		hints = append(hints, "empty")
	}
	styleID := atoiOr(attr(c, "s"), -1)
	if wb.styles.boldAt(styleID) {
		hints = append(hints, "bold")
	}
	if wb.styles.italicAt(styleID) {
		hints = append(hints, "italic")
	}
	if wb.styles.shadedAt(styleID) {
		hints = append(hints, "shaded")
	}
	return hints
}

// mergedLookup maps the top-left A1 reference of each multi-cell merged
// range to the range string.
func mergedLookup(sheetRoot *etree.Element) map[string]string {
	lookup := make(map[string]string)
	mc := childByTag(sheetRoot, "mergeCells")
	if mc == nil {
		return lookup
	}
	for _, m := range childrenByTag(mc, "mergeCell") {
		ref := attr(m, "ref")
		parts := strings.SplitN(ref, ":", 2)
		if len(parts) != 2 || parts[0] == parts[1] {
			continue
		}
		lookup[parts[0]] = ref
	}
	return lookup
}
