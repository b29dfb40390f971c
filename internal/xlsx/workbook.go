// Package xlsx is the spreadsheet backend: it indexes .xlsx workbooks,
// validates cell references, writes values as inline strings, and verifies
// the result. Cell IDs double as location paths, so the ID-to-path map is
// the identity.
package xlsx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/ooxml"
)

const (
	workbookPart      = "xl/workbook.xml"
	workbookRelsPart  = "xl/_rels/workbook.xml.rels"
	sharedStringsPart = "xl/sharedStrings.xml"
)

var (
	errNoWorkbookPart = errors.New("xl/workbook.xml not found in archive")
	errNoSheets       = errors.New("workbook contains no sheets")
)

// sheet is one worksheet: its declared name, the archive path of its XML
// part, and the parsed part.
type sheet struct {
	name string
	path string
	doc  *etree.Document
}

// workbook is a parsed .xlsx: sheets in workbook order plus the shared
// string table.
type workbook struct {
	sheets        []sheet
	sharedStrings []string
	styles        *styleIndex
}

// openWorkbook parses an .xlsx archive into sheets, shared strings, and
// style lookups. Sheet order follows the workbook.xml declaration, which
// is what the S{n} IDs index.
func openWorkbook(fileBytes []byte) (*workbook, error) {
	zr, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx archive: %w", err)
	}

	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		parts[f.Name] = data
	}

	wbXML, ok := parts[workbookPart]
	if !ok {
		return nil, errNoWorkbookPart
	}
	wbDoc, err := ooxml.ParseBytes(wbXML)
	if err != nil {
		return nil, fmt.Errorf("parse workbook.xml: %w", err)
	}

	rels := parseRelationships(parts[workbookRelsPart])

	wb := &workbook{}
	root := wbDoc.Root()
	if root == nil {
		return nil, errNoSheets
	}
	sheetsElem := childByTag(root, "sheets")
	if sheetsElem == nil {
		return nil, errNoSheets
	}
	for _, s := range childrenByTag(sheetsElem, "sheet") {
		name := attr(s, "name")
		relID := attr(s, "id")
		target, ok := rels[relID]
		if !ok {
			continue
		}
		partPath := resolvePartPath(target)
		data, ok := parts[partPath]
		if !ok {
			continue
		}
		doc, err := ooxml.ParseBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", partPath, err)
		}
		wb.sheets = append(wb.sheets, sheet{name: name, path: partPath, doc: doc})
	}
	if len(wb.sheets) == 0 {
		return nil, errNoSheets
	}

	wb.sharedStrings = parseSharedStrings(parts[sharedStringsPart])
	wb.styles = parseStyles(parts["xl/styles.xml"])
	return wb, nil
}

// parseRelationships maps relationship IDs to their targets. A missing or
// unparsable rels part yields an empty map; sheet lookup then falls back
// to nothing, which openWorkbook reports as errNoSheets.
func parseRelationships(data []byte) map[string]string {
	rels := make(map[string]string)
	if len(data) == 0 {
		return rels
	}
	doc, err := ooxml.ParseBytes(data)
	if err != nil {
		return rels
	}
	root := doc.Root()
	if root == nil {
		return rels
	}
	for _, r := range childrenByTag(root, "Relationship") {
		rels[attr(r, "Id")] = attr(r, "Target")
	}
	return rels
}

// resolvePartPath turns a workbook-relative relationship target into an
// archive path.
func resolvePartPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("xl", target)
}

// parseSharedStrings flattens each si entry to its text, concatenating
// rich-text runs.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	doc, err := ooxml.ParseBytes(data)
	if err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}
	var out []string
	for _, si := range childrenByTag(root, "si") {
		var sb strings.Builder
		var walk func(e *etree.Element)
		walk = func(e *etree.Element) {
			for _, child := range e.ChildElements() {
				if child.Tag == "t" {
					sb.WriteString(child.Text())
				}
				walk(child)
			}
		}
		walk(si)
		out = append(out, sb.String())
	}
	return out
}

// repackage rewrites the archive with each modified sheet part replaced,
// copying every other entry unchanged.
func repackage(fileBytes []byte, modified map[string][]byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx archive: %w", err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("create zip entry %s: %w", f.Name, err)
		}
		if data, ok := modified[f.Name]; ok {
			if _, err := w.Write(data); err != nil {
				zw.Close()
				return nil, fmt.Errorf("write %s: %w", f.Name, err)
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("copy entry %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	return out.Bytes(), nil
}

// cellText resolves the display text of a c element, following the cell
// type: shared string, inline string, or literal value.
func (wb *workbook) cellText(c *etree.Element) string {
	switch attr(c, "t") {
	case "s":
		v := childByTag(c, "v")
		if v == nil {
			return ""
		}
		idx, err := strconv.Atoi(strings.TrimSpace(v.Text()))
		if err != nil || idx < 0 || idx >= len(wb.sharedStrings) {
			return ""
		}
		return wb.sharedStrings[idx]
	case "inlineStr":
		is := childByTag(c, "is")
		if is == nil {
			return ""
		}
		var sb strings.Builder
		var walk func(e *etree.Element)
		walk = func(e *etree.Element) {
			for _, child := range e.ChildElements() {
				if child.Tag == "t" {
					sb.WriteString(child.Text())
				}
				walk(child)
			}
		}
		walk(is)
		return sb.String()
	default:
		if v := childByTag(c, "v"); v != nil {
			return v.Text()
		}
		return ""
	}
}

// serializeSheet writes a sheet part back to bytes.
func serializeSheet(s sheet) ([]byte, error) {
	data, err := s.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", s.path, err)
	}
	return data, nil
}

func childByTag(elem *etree.Element, tag string) *etree.Element {
	for _, child := range elem.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

func childrenByTag(elem *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range elem.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// attr reads an attribute by local name regardless of namespace prefix.
func attr(elem *etree.Element, key string) string {
	for _, a := range elem.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
