package docx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	godocx "github.com/fumiama/go-docx"

	"github.com/dgallion1/formfill/internal/fill"
)

// ListFormFields detects likely fillable targets by code heuristics: empty
// table cells following cells with question text, and paragraphs carrying
// placeholder patterns.
func ListFormFields(fileBytes []byte) ([]fill.FormField, error) {
	tableFields, counter, err := findEmptyTableCells(fileBytes)
	if err != nil {
		return nil, err
	}
	placeholderFields, err := findPlaceholderParagraphs(fileBytes, counter)
	if err != nil {
		return nil, err
	}
	return append(tableFields, placeholderFields...), nil
}

// findEmptyTableCells scans the XML tree for the question/answer cell
// pattern: a cell with text followed by an empty cell in the same row.
func findEmptyTableCells(fileBytes []byte) ([]fill.FormField, int, error) {
	_, body, err := parseBody(fileBytes)
	if err != nil {
		return nil, 0, err
	}

	var fields []fill.FormField
	counter := 0
	walkTag(body, "tr", func(tr *etree.Element) {
		cells := childElementsByTag(tr, "tc")
		for i := 0; i+1 < len(cells); i++ {
			qText := strings.TrimSpace(contextText(cells[i]))
			aText := strings.TrimSpace(contextText(cells[i+1]))
			if qText != "" && aText == "" {
				counter++
				fields = append(fields, fill.FormField{
					FieldID:   fmt.Sprintf("field_%d", counter),
					Label:     qText,
					FieldType: "table_cell",
				})
			}
		}
	})
	return fields, counter, nil
}

// findPlaceholderParagraphs walks the typed document model looking for
// paragraphs containing placeholder text. One field per paragraph.
func findPlaceholderParagraphs(fileBytes []byte, counter int) ([]fill.FormField, error) {
	doc, err := godocx.Parse(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var fields []fill.FormField
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*godocx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		match := placeholderRE.FindString(text)
		if match == "" {
			continue
		}
		counter++
		fields = append(fields, fill.FormField{
			FieldID:      fmt.Sprintf("field_%d", counter),
			Label:        strings.TrimSpace(text),
			FieldType:    "placeholder",
			CurrentValue: match,
		})
	}
	return fields, nil
}

// paragraphText concatenates the run text of a typed paragraph.
func paragraphText(para *godocx.Paragraph) string {
	var sb strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*godocx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*godocx.Text); ok {
				sb.WriteString(t.Text)
			}
		}
	}
	return sb.String()
}
