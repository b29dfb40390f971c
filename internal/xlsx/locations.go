package xlsx

import (
	"fmt"
	"strings"

	"github.com/dgallion1/formfill/internal/fill"
)

// ValidateLocations confirms each cell reference exists in the workbook.
// Spreadsheet locations are always cell IDs; there is no snippet matching.
// A bad location never aborts the batch.
func ValidateLocations(fileBytes []byte, locations []fill.LocationSnippet) ([]fill.ValidatedLocation, error) {
	wb, err := openWorkbook(fileBytes)
	if err != nil {
		return nil, err
	}

	results := make([]fill.ValidatedLocation, 0, len(locations))
	for _, loc := range locations {
		results = append(results, validateOne(wb, loc))
	}
	return results, nil
}

func validateOne(wb *workbook, loc fill.LocationSnippet) fill.ValidatedLocation {
	id := strings.TrimSpace(loc.Snippet)
	sheetIdx, row, col, err := parseCellID(id)
	if err != nil {
		return fill.ValidatedLocation{
			PairID:  loc.PairID,
			Status:  fill.LocationNotFound,
			Context: err.Error(),
		}
	}
	if sheetIdx < 1 || sheetIdx > len(wb.sheets) {
		return fill.ValidatedLocation{
			PairID: loc.PairID,
			Status: fill.LocationNotFound,
			Context: fmt.Sprintf("sheet index %d out of range: workbook has %d sheet(s)",
				sheetIdx, len(wb.sheets)),
		}
	}

	// A cell that is not materialized in the XML is still writable; report
	// it as matched with empty context.
	context := ""
	if cell := findCell(wb.sheets[sheetIdx-1].doc.Root(), row, col); cell != nil {
		context = wb.cellText(cell)
	}
	return fill.ValidatedLocation{
		PairID:  loc.PairID,
		Status:  fill.LocationMatched,
		XPath:   id,
		Context: context,
	}
}

// ListFormFields detects the Q/A column pattern: a cell with text whose
// right-hand neighbour is empty.
func ListFormFields(fileBytes []byte) ([]fill.FormField, error) {
	wb, err := openWorkbook(fileBytes)
	if err != nil {
		return nil, err
	}

	var fields []fill.FormField
	counter := 0
	for sIdx, s := range wb.sheets {
		root := s.doc.Root()
		if root == nil {
			continue
		}
		sheetData := childByTag(root, "sheetData")
		if sheetData == nil {
			continue
		}
		for _, r := range childrenByTag(sheetData, "row") {
			cells := childrenByTag(r, "c")

			// Text content per column for this row.
			colText := make(map[int]string)
			for _, c := range cells {
				if _, col, ok := parseA1(attr(c, "r")); ok {
					colText[col] = strings.TrimSpace(wb.cellText(c))
				}
			}

			for _, c := range cells {
				rowNum, colNum, ok := parseA1(attr(c, "r"))
				if !ok {
					continue
				}
				text := colText[colNum]
				if text == "" || colText[colNum+1] != "" {
					continue
				}
				counter++
				fields = append(fields, fill.FormField{
					FieldID:   fmt.Sprintf("field_%d", counter),
					Label:     text,
					FieldType: "adjacent_cell",
					Location:  fmt.Sprintf("S%d-R%d-C%d", sIdx+1, rowNum, colNum+1),
				})
			}
		}
	}
	return fields, nil
}
