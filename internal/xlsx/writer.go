package xlsx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/fill"
)

// cellTarget is one validated answer: the sheet it lands on and its
// 1-indexed coordinates.
type cellTarget struct {
	answer   fill.AnswerPayload
	sheetIdx int
	row      int
	col      int
}

// WriteAnswers writes a batch of answer values into workbook cells and
// returns the modified .xlsx bytes. Values are written as inline strings,
// which keeps the shared string table untouched.
//
// Like the word writer, the batch is two-phase: every cell ID is parsed
// and bounds-checked before any cell changes, and one invalid answer
// rejects the whole batch with every problem listed.
func WriteAnswers(fileBytes []byte, answers []fill.AnswerPayload) ([]byte, error) {
	wb, err := openWorkbook(fileBytes)
	if err != nil {
		return nil, err
	}

	targets := make([]cellTarget, 0, len(answers))
	var problems []string
	fail := func(i int, a fill.AnswerPayload, format string, args ...any) {
		problems = append(problems,
			fmt.Sprintf("answer '%s' (index %d): %s", a.PairID, i, fmt.Sprintf(format, args...)))
	}

	for i, a := range answers {
		if strings.TrimSpace(a.InsertionXML) != "" {
			fail(i, a, "insertion_xml is not supported for spreadsheets -- use answer_text")
			continue
		}
		if a.AnswerText == "" {
			fail(i, a, "missing answer_text")
			continue
		}
		sheetIdx, row, col, err := parseCellID(a.XPath)
		if err != nil {
			fail(i, a, "%v", err)
			continue
		}
		if sheetIdx < 1 || sheetIdx > len(wb.sheets) {
			fail(i, a, "sheet index %d out of range: workbook has %d sheet(s)", sheetIdx, len(wb.sheets))
			continue
		}
		if row < 1 || col < 1 {
			fail(i, a, "row and column must be 1-indexed, got R%d-C%d", row, col)
			continue
		}
		targets = append(targets, cellTarget{answer: a, sheetIdx: sheetIdx, row: row, col: col})
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("write_answers validation failed (%d invalid answer(s)):\n%s",
			len(problems), strings.Join(problems, "\n"))
	}

	touched := make(map[int]bool)
	for _, t := range targets {
		s := wb.sheets[t.sheetIdx-1]
		cell := findOrCreateCell(s.doc.Root(), t.row, t.col)
		if cell == nil {
			return nil, fmt.Errorf("answer '%s': sheet %d has no sheetData element", t.answer.PairID, t.sheetIdx)
		}
		setInlineString(cell, t.answer.AnswerText)
		touched[t.sheetIdx-1] = true
	}

	modified := make(map[string][]byte, len(touched))
	for idx := range touched {
		data, err := serializeSheet(wb.sheets[idx])
		if err != nil {
			return nil, err
		}
		modified[wb.sheets[idx].path] = data
	}
	return repackage(fileBytes, modified)
}

// findOrCreateCell locates the c element for a coordinate, creating the
// row and cell in sorted position when absent.
func findOrCreateCell(sheetRoot *etree.Element, rowNum, colNum int) *etree.Element {
	if sheetRoot == nil {
		return nil
	}
	sheetData := childByTag(sheetRoot, "sheetData")
	if sheetData == nil {
		return nil
	}

	row := findOrCreateRow(sheetData, rowNum)
	ref := a1Ref(rowNum, colNum)

	// InsertChildAt indexes tokens, not elements, so take positions from
	// Index().
	insertAt := len(row.Child)
	for _, c := range childrenByTag(row, "c") {
		r, cCol, ok := parseA1(attr(c, "r"))
		if !ok {
			continue
		}
		if r == rowNum && cCol == colNum {
			return c
		}
		if cCol > colNum {
			insertAt = c.Index()
			break
		}
	}

	cell := etree.NewElement("c")
	cell.CreateAttr("r", ref)
	row.InsertChildAt(insertAt, cell)
	return cell
}

func findOrCreateRow(sheetData *etree.Element, rowNum int) *etree.Element {
	insertAt := len(sheetData.Child)
	for _, r := range childrenByTag(sheetData, "row") {
		n := atoiOr(attr(r, "r"), 0)
		if n == rowNum {
			return r
		}
		if n > rowNum {
			insertAt = r.Index()
			break
		}
	}
	row := etree.NewElement("row")
	row.CreateAttr("r", fmt.Sprintf("%d", rowNum))
	sheetData.InsertChildAt(insertAt, row)
	return row
}

// setInlineString replaces the cell's value with an inline string, clearing
// any formula or cached value.
func setInlineString(cell *etree.Element, value string) {
	for _, child := range cell.ChildElements() {
		switch child.Tag {
		case "v", "f", "is":
			cell.RemoveChild(child)
		}
	}
	cell.CreateAttr("t", "inlineStr")

	is := cell.CreateElement("is")
	t := is.CreateElement("t")
	t.SetText(value)
	if value != "" && (value[0] == ' ' || value[len(value)-1] == ' ') {
		t.CreateAttr("xml:space", "preserve")
	}
}
