package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/ooxml"
)

// rawSnippetLimit caps the raw XML emitted for complex elements so one
// nested table cannot blow up the compact text.
const rawSnippetLimit = 500

// ExtractStructureCompact walks the document body once, assigns a stable
// element ID to every top-level paragraph (P{n}) and table cell
// (T{t}-R{r}-C{c}), and returns the compact text, the ID-to-XPath map, and
// the list of complex element IDs. IDs are assigned strictly in document
// order, so the output is reproducible for the same input bytes.
func ExtractStructureCompact(fileBytes []byte) (fill.CompactStructure, error) {
	_, body, err := parseBody(fileBytes)
	if err != nil {
		return fill.CompactStructure{}, err
	}

	idx := &indexer{
		idToXPath: make(map[string]string),
		body:      body,
	}

	pCount := 0
	tCount := 0
	for _, child := range body.ChildElements() {
		switch child.Tag {
		case "tbl":
			tCount++
			idx.indexTable(child, tCount)
		case "p":
			pCount++
			idx.indexElement(child, fmt.Sprintf("P%d", pCount))
		}
	}

	return fill.CompactStructure{
		CompactText:     strings.Join(idx.lines, "\n"),
		IDToXPath:       idx.idToXPath,
		ComplexElements: idx.complexIDs,
	}, nil
}

type indexer struct {
	body       *etree.Element
	lines      []string
	idToXPath  map[string]string
	complexIDs []string
}

func (idx *indexer) indexTable(tbl *etree.Element, tblNum int) {
	for rIdx, row := range childElementsByTag(tbl, "tr") {
		for cIdx, cell := range childElementsByTag(row, "tc") {
			id := fmt.Sprintf("T%d-R%d-C%d", tblNum, rIdx+1, cIdx+1)
			idx.indexElement(cell, id)
		}
	}
}

// indexElement records the element's XPath and emits its compact line.
// Complex elements get their raw XML instead of a text summary; simple
// ones get text, formatting hints, and an answer-target marker when the
// content is empty or a placeholder.
func (idx *indexer) indexElement(elem *etree.Element, id string) {
	idx.idToXPath[id] = ooxml.BuildXPath(elem, idx.body)

	if complexType := detectComplex(elem); complexType != "" {
		idx.complexIDs = append(idx.complexIDs, id)
		raw := serializeElement(elem)
		if len(raw) > rawSnippetLimit {
			raw = truncateRunes(raw, rawSnippetLimit) + "..."
		}
		idx.lines = append(idx.lines, fmt.Sprintf("%s: COMPLEX(%s): %s", id, complexType, raw))
		return
	}

	text := elementText(elem)
	hints := formattingHints(elem, text)
	line := fmt.Sprintf("%s: %q", id, text)
	if len(hints) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(hints, ", "))
	}
	if isAnswerTarget(text) {
		line += " ← answer target"
	}
	idx.lines = append(idx.lines, line)
}

func serializeElement(elem *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(elem.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
