package ooxml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Formatting is the run-level formatting extracted from a w:rPr node.
// Zero-valued fields mean "inherit the document default"; the struct is
// never required to be complete.
type Formatting struct {
	FontASCII    string
	FontHAnsi    string
	FontCS       string
	FontEastAsia string
	Size         string // w:sz val, half-points
	SizeCS       string // w:szCs val
	Bold         bool
	Italic       bool
	Underline    string // w:u val; empty means no underline
	Color        string // w:color val
}

// IsZero reports whether no formatting property was extracted.
func (f Formatting) IsZero() bool {
	return f == Formatting{}
}

// FindRunProperties locates the w:rPr node that applies to elem.
//
// Search order: a direct rPr child (elem is itself a run), the rPr of the
// first run descendant, then the run properties nested in the paragraph
// properties (style defaults for an empty paragraph). Returns nil when
// none is present.
//
// When an element contains several runs with different formatting this
// always answers with the first run's properties, even if that run is a
// label rather than the blank being filled. Callers depend on that
// behaviour; do not change it.
func FindRunProperties(elem *etree.Element) *etree.Element {
	if rpr := childByTag(elem, "rPr"); rpr != nil {
		return rpr
	}
	if run := firstDescendant(elem, "r"); run != nil {
		if rpr := childByTag(run, "rPr"); rpr != nil {
			return rpr
		}
	}
	if ppr := childByTag(elem, "pPr"); ppr != nil {
		return childByTag(ppr, "rPr")
	}
	return nil
}

// ExtractFormatting reads the formatting that applies to a live tree
// element. Returns the zero Formatting when no run properties are found.
func ExtractFormatting(elem *etree.Element) Formatting {
	rpr := FindRunProperties(elem)
	if rpr == nil {
		return Formatting{}
	}

	var f Formatting
	if rfonts := childByTag(rpr, "rFonts"); rfonts != nil {
		f.FontASCII = attrValue(rfonts, "ascii")
		f.FontHAnsi = attrValue(rfonts, "hAnsi")
		f.FontCS = attrValue(rfonts, "cs")
		f.FontEastAsia = attrValue(rfonts, "eastAsia")
	}
	if sz := childByTag(rpr, "sz"); sz != nil {
		f.Size = attrValue(sz, "val")
	}
	if szCs := childByTag(rpr, "szCs"); szCs != nil {
		f.SizeCS = attrValue(szCs, "val")
	}
	if childByTag(rpr, "b") != nil {
		f.Bold = true
	}
	if childByTag(rpr, "i") != nil {
		f.Italic = true
	}
	if u := childByTag(rpr, "u"); u != nil {
		if val := attrValue(u, "val"); val != "" {
			f.Underline = val
		} else {
			f.Underline = "single"
		}
	}
	if color := childByTag(rpr, "color"); color != nil {
		f.Color = attrValue(color, "val")
	}
	return f
}

// ExtractFormattingXML is the serialized-string entry point: it parses the
// snippet and delegates to ExtractFormatting so that both call shapes
// always agree.
func ExtractFormattingXML(elementXML string) (Formatting, error) {
	elem, err := ParseSnippet(elementXML)
	if err != nil {
		return Formatting{}, fmt.Errorf("parse target context: %w", err)
	}
	return ExtractFormatting(elem), nil
}

// BuildRunElement constructs a new w:r element carrying text with the
// given formatting. Properties absent from f are omitted so unformatted
// answers render in the surrounding style's defaults.
//
// Text containing newlines (real "\n" bytes or the literal two-character
// sequence backslash-n) is split into multiple w:t segments joined by
// w:br line breaks. Segments with leading or trailing spaces, and
// whitespace-only segments, get xml:space="preserve".
func BuildRunElement(text string, f Formatting) *etree.Element {
	run := etree.NewElement("w:r")

	if !f.IsZero() {
		rpr := run.CreateElement("w:rPr")
		applyFormatting(rpr, f)
	}

	segments := splitLines(text)
	for i, seg := range segments {
		if i > 0 {
			run.CreateElement("w:br")
		}
		t := run.CreateElement("w:t")
		t.SetText(seg)
		if needsSpacePreserve(seg) {
			t.CreateAttr("xml:space", "preserve")
		}
	}
	return run
}

// BuildRunXML is BuildRunElement serialized to a string.
func BuildRunXML(text string, f Formatting) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(BuildRunElement(text, f))
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize run: %w", err)
	}
	return s, nil
}

func applyFormatting(rpr *etree.Element, f Formatting) {
	if f.FontASCII != "" || f.FontHAnsi != "" || f.FontCS != "" || f.FontEastAsia != "" {
		rfonts := rpr.CreateElement("w:rFonts")
		if f.FontASCII != "" {
			rfonts.CreateAttr("w:ascii", f.FontASCII)
		}
		if f.FontHAnsi != "" {
			rfonts.CreateAttr("w:hAnsi", f.FontHAnsi)
		}
		if f.FontCS != "" {
			rfonts.CreateAttr("w:cs", f.FontCS)
		}
		if f.FontEastAsia != "" {
			rfonts.CreateAttr("w:eastAsia", f.FontEastAsia)
		}
	}
	if f.Bold {
		rpr.CreateElement("w:b")
	}
	if f.Italic {
		rpr.CreateElement("w:i")
	}
	if f.Underline != "" {
		u := rpr.CreateElement("w:u")
		u.CreateAttr("w:val", f.Underline)
	}
	if f.Size != "" {
		sz := rpr.CreateElement("w:sz")
		sz.CreateAttr("w:val", f.Size)
	}
	if f.SizeCS != "" {
		szCs := rpr.CreateElement("w:szCs")
		szCs.CreateAttr("w:val", f.SizeCS)
	}
	if f.Color != "" {
		color := rpr.CreateElement("w:color")
		color.CreateAttr("w:val", f.Color)
	}
}

// splitLines splits answer text on line breaks. The literal backslash-n
// sequence is treated the same as a real newline because agents routinely
// send either. An empty input still yields one empty segment so the run
// gets a valid empty w:t node.
func splitLines(text string) []string {
	normalized := strings.ReplaceAll(text, `\n`, "\n")
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	return strings.Split(normalized, "\n")
}

func needsSpacePreserve(s string) bool {
	if s == "" {
		return false
	}
	if strings.TrimSpace(s) == "" {
		return true
	}
	return s[0] == ' ' || s[len(s)-1] == ' '
}

// childByTag returns the first direct child element with the given local
// name, ignoring the namespace prefix.
func childByTag(elem *etree.Element, tag string) *etree.Element {
	for _, child := range elem.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// firstDescendant returns the first descendant element with the given
// local name, in document order.
func firstDescendant(elem *etree.Element, tag string) *etree.Element {
	for _, child := range elem.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := firstDescendant(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// attrValue reads an attribute by local name, trying the w-prefixed form
// first since that is how document.xml declares them.
func attrValue(elem *etree.Element, key string) string {
	if a := elem.SelectAttr("w:" + key); a != nil {
		return a.Value
	}
	if a := elem.SelectAttr(key); a != nil {
		return a.Value
	}
	return ""
}
