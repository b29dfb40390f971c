package xlsx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// cellIDRE matches the stable IDs assigned by ExtractStructureCompact:
// S{sheet}-R{row}-C{col}, all 1-indexed.
var cellIDRE = regexp.MustCompile(`^S(\d+)-R(\d+)-C(\d+)$`)

var a1RefRE = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)

// IsCellID reports whether a location string uses the cell ID grammar.
func IsCellID(s string) bool {
	return cellIDRE.MatchString(strings.TrimSpace(s))
}

// parseCellID splits a cell ID into 1-indexed sheet, row, and column.
func parseCellID(id string) (sheetIdx, row, col int, err error) {
	m := cellIDRE.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return 0, 0, 0, fmt.Errorf(
			"invalid cell ID %q: expected S{sheet}-R{row}-C{col} (e.g. S1-R2-C3)", id)
	}
	sheetIdx, _ = strconv.Atoi(m[1])
	row, _ = strconv.Atoi(m[2])
	col, _ = strconv.Atoi(m[3])
	return sheetIdx, row, col, nil
}

// parseA1 splits an A1-style reference into 1-indexed row and column.
func parseA1(ref string) (row, col int, ok bool) {
	m := a1RefRE.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return 0, 0, false
	}
	col = 0
	for _, ch := range m[1] {
		col = col*26 + int(ch-'A') + 1
	}
	row, _ = strconv.Atoi(m[2])
	return row, col, true
}

// a1Ref formats 1-indexed row and column as an A1-style reference.
func a1Ref(row, col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return fmt.Sprintf("%s%d", letters, row)
}
