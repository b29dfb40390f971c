package xlsx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/ooxml"
)

// styleIndex resolves a cell's s attribute to the formatting hints the
// compact index reports. Only bold, italic, and fill shading are tracked.
type styleIndex struct {
	fontBold   []bool
	fontItalic []bool
	fillShaded []bool
	xfFont     []int
	xfFill     []int
}

// parseStyles builds a styleIndex from xl/styles.xml. A missing or broken
// styles part yields a nil index; lookups on nil report no hints.
func parseStyles(data []byte) *styleIndex {
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

	idx := &styleIndex{}
	if fonts := childByTag(root, "fonts"); fonts != nil {
		for _, f := range childrenByTag(fonts, "font") {
			idx.fontBold = append(idx.fontBold, childByTag(f, "b") != nil)
			idx.fontItalic = append(idx.fontItalic, childByTag(f, "i") != nil)
		}
	}
	if fills := childByTag(root, "fills"); fills != nil {
		for _, f := range childrenByTag(fills, "fill") {
			idx.fillShaded = append(idx.fillShaded, fillIsShaded(f))
		}
	}
	if xfs := childByTag(root, "cellXfs"); xfs != nil {
		for _, xf := range childrenByTag(xfs, "xf") {
			idx.xfFont = append(idx.xfFont, atoiOr(attr(xf, "fontId"), 0))
			idx.xfFill = append(idx.xfFill, atoiOr(attr(xf, "fillId"), 0))
		}
	}
	return idx
}

func fillIsShaded(fill *etree.Element) bool {
	pf := childByTag(fill, "patternFill")
	if pf == nil {
		return false
	}
	if attr(pf, "patternType") == "none" {
		return false
	}
	fg := childByTag(pf, "fgColor")
	if fg == nil {
		return false
	}
	rgb := strings.ToUpper(attr(fg, "rgb"))
	switch rgb {
	case "", "00000000", "FFFFFFFF", "00FFFFFF":
		return false
	}
	return true
}

// boldAt reports whether the cell style index maps to a bold font.
func (s *styleIndex) boldAt(styleID int) bool {
	if s == nil || styleID < 0 || styleID >= len(s.xfFont) {
		return false
	}
	fontID := s.xfFont[styleID]
	return fontID >= 0 && fontID < len(s.fontBold) && s.fontBold[fontID]
}

func (s *styleIndex) italicAt(styleID int) bool {
	if s == nil || styleID < 0 || styleID >= len(s.xfFont) {
		return false
	}
	fontID := s.xfFont[styleID]
	return fontID >= 0 && fontID < len(s.fontItalic) && s.fontItalic[fontID]
}

func (s *styleIndex) shadedAt(styleID int) bool {
	if s == nil || styleID < 0 || styleID >= len(s.xfFill) {
		return false
	}
	fillID := s.xfFill[styleID]
	return fillID >= 0 && fillID < len(s.fillShaded) && s.fillShaded[fillID]
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}
