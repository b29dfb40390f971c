package docx

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// placeholderRE matches conventional fill-in markers: bracketed instruction
// text like [Enter name here] and underscore fill-lines of three or more.
var placeholderRE = regexp.MustCompile(`\[Enter[^\]]*\]|_{3,}`)

// complexTags are the local names whose presence makes an element too
// structured to summarize as plain text.
var complexTags = []string{
	"sdt",         // content controls
	"fldChar",     // legacy form fields
	"txbxContent", // text boxes
	"object",      // embedded objects
}

// elementText concatenates the text of every w:t descendant with no
// separator, matching how Word renders runs back to back.
func elementText(elem *etree.Element) string {
	var sb strings.Builder
	walkTag(elem, "t", func(t *etree.Element) {
		sb.WriteString(t.Text())
	})
	return sb.String()
}

// visibleText is elementText with explicit line breaks (w:br, w:cr)
// rendered as single spaces and whitespace runs collapsed. The write
// engine splits multi-line answers into w:br-joined segments; verification
// applies this same rule so those answers round-trip.
func visibleText(elem *etree.Element) string {
	var sb strings.Builder
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			switch child.Tag {
			case "t":
				sb.WriteString(child.Text())
			case "br", "cr":
				sb.WriteString(" ")
			}
			walk(child)
		}
	}
	walk(elem)
	return normalizeSpace(sb.String())
}

// normalizeSpace collapses runs of whitespace to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// contextText returns a truncated text excerpt for human review, joining
// w:t contents with spaces.
func contextText(elem *etree.Element) string {
	const maxChars = 100
	var parts []string
	walkTag(elem, "t", func(t *etree.Element) {
		if t.Text() != "" {
			parts = append(parts, t.Text())
		}
	})
	text := strings.Join(parts, " ")
	if len(text) > maxChars {
		text = truncateRunes(text, maxChars) + "..."
	}
	return text
}

// truncateRunes shortens s to at most limit bytes, stepping back so a
// multi-byte rune is never split.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// isAnswerTarget reports whether text marks a fillable location: empty or
// carrying a placeholder pattern.
func isAnswerTarget(text string) bool {
	stripped := strings.TrimSpace(text)
	return stripped == "" || placeholderRE.MatchString(stripped)
}

// formattingHints lists skim-worthy properties of an indexed element.
func formattingHints(elem *etree.Element, text string) []string {
	var hints []string

	if strings.TrimSpace(text) == "" {
		hints = append(hints, "empty")
	} else if placeholderRE.MatchString(text) {
		hints = append(hints, "placeholder")
	}

	if firstDescendantTag(elem, "b") != nil {
		hints = append(hints, "bold")
	}
	if firstDescendantTag(elem, "i") != nil {
		hints = append(hints, "italic")
	}
	if shd := firstDescendantTag(elem, "shd"); shd != nil {
		fill := strings.ToLower(wAttr(shd, "fill"))
		if fill != "" && fill != "auto" && fill != "ffffff" {
			hints = append(hints, "shaded")
		}
	}
	return hints
}

// detectComplex reports why an element cannot be summarized as plain text,
// or "" when it can. Complex elements get their raw XML surfaced instead.
func detectComplex(elem *etree.Element) string {
	for _, tag := range complexTags {
		if firstDescendantTag(elem, tag) != nil {
			return tag
		}
	}

	// A table nested inside a cell.
	if elem.Tag == "tc" && firstDescendantTag(elem, "tbl") != nil {
		return "nested_table"
	}

	// Horizontally merged cells.
	if gs := firstDescendantTag(elem, "gridSpan"); gs != nil {
		if val := wAttr(gs, "val"); val != "" && val != "1" {
			return fmt.Sprintf("gridSpan=%s", val)
		}
	}

	// Vertically merged cells.
	if firstDescendantTag(elem, "vMerge") != nil {
		return "vMerge"
	}

	return ""
}

// walkTag visits every descendant with the given local name in document
// order.
func walkTag(elem *etree.Element, tag string, visit func(*etree.Element)) {
	for _, child := range elem.ChildElements() {
		if child.Tag == tag {
			visit(child)
		}
		walkTag(child, tag, visit)
	}
}

func firstDescendantTag(elem *etree.Element, tag string) *etree.Element {
	for _, child := range elem.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := firstDescendantTag(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func wAttr(elem *etree.Element, key string) string {
	if a := elem.SelectAttr("w:" + key); a != nil {
		return a.Value
	}
	if a := elem.SelectAttr(key); a != nil {
		return a.Value
	}
	return ""
}

// childElementsByTag returns direct children with the given local name.
func childElementsByTag(elem *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range elem.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}
