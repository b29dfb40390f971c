package xlsx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/fill"
)

// VerifyOutput re-reads the workbook and checks each expected answer
// against the actual cell text. The archive format guarantees structure,
// so only content is verified; comparison is case-insensitive substring.
func VerifyOutput(fileBytes []byte, expected []fill.ExpectedAnswer) (fill.VerificationReport, error) {
	wb, err := openWorkbook(fileBytes)
	if err != nil {
		return fill.VerificationReport{}, err
	}

	results := make([]fill.ContentResult, 0, len(expected))
	for _, e := range expected {
		results = append(results, verifyOne(wb, e))
	}

	return fill.VerificationReport{
		StructuralIssues: []string{},
		ContentResults:   results,
		Summary:          fill.BuildSummary(results, expected, 0),
	}, nil
}

func verifyOne(wb *workbook, e fill.ExpectedAnswer) fill.ContentResult {
	sheetIdx, row, col, err := parseCellID(e.XPath)
	if err != nil {
		return fill.ContentResult{
			PairID:   e.PairID,
			Status:   fill.ContentMissing,
			Expected: e.ExpectedText,
			Actual:   fmt.Sprintf("invalid cell ID: %s", e.XPath),
		}
	}
	if sheetIdx < 1 || sheetIdx > len(wb.sheets) {
		return fill.ContentResult{
			PairID:   e.PairID,
			Status:   fill.ContentMissing,
			Expected: e.ExpectedText,
		}
	}

	actual := ""
	if cell := findCell(wb.sheets[sheetIdx-1].doc.Root(), row, col); cell != nil {
		actual = wb.cellText(cell)
	}

	status := fill.ContentMismatched
	if strings.Contains(strings.ToLower(actual), strings.ToLower(e.ExpectedText)) {
		status = fill.ContentMatched
	}
	return fill.ContentResult{
		PairID:   e.PairID,
		Status:   status,
		Expected: e.ExpectedText,
		Actual:   actual,
	}
}

// findCell locates an existing c element by coordinate, or nil.
func findCell(sheetRoot *etree.Element, rowNum, colNum int) *etree.Element {
	if sheetRoot == nil {
		return nil
	}
	sheetData := childByTag(sheetRoot, "sheetData")
	if sheetData == nil {
		return nil
	}
	for _, r := range childrenByTag(sheetData, "row") {
		if atoiOr(attr(r, "r"), 0) != rowNum {
			continue
		}
		for _, c := range childrenByTag(r, "c") {
			cr, cc, ok := parseA1(attr(c, "r"))
			if ok && cr == rowNum && cc == colNum {
				return c
			}
		}
	}
	return nil
}
