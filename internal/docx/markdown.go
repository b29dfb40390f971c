package docx

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/dgallion1/formfill/internal/ooxml"
)

// buildMarkdownXML converts a markdown answer into insertion markup.
// Strong emphasis becomes bold runs, emphasis becomes italic runs, and
// line/block breaks become w:br markers. Every run inherits the base
// formatting extracted from the target, with the markdown styling layered
// on top.
//
// A single unstyled segment collapses to a bare w:r (identical to the
// plain-text path); anything richer is wrapped in one w:p so the write
// engine receives a single element.
func buildMarkdownXML(markdown string, base ooxml.Formatting) (string, error) {
	src := []byte(markdown)
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(src))

	var segments []mdSegment
	firstBlock := true
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blockSegments := collectInline(n, src, false, false)
		if len(blockSegments) == 0 {
			continue
		}
		if !firstBlock {
			segments = append(segments, mdSegment{lineBreak: true})
		}
		segments = append(segments, blockSegments...)
		firstBlock = false
	}

	if len(segments) == 0 {
		// Nothing but whitespace; emit a plain empty run.
		return ooxml.BuildRunXML("", base)
	}

	if len(segments) == 1 && !segments[0].bold && !segments[0].italic {
		return ooxml.BuildRunXML(segments[0].text, base)
	}

	para := etree.NewElement("w:p")
	for _, seg := range segments {
		if seg.lineBreak {
			br := etree.NewElement("w:r")
			br.CreateElement("w:br")
			para.AddChild(br)
			continue
		}
		f := base
		if seg.bold {
			f.Bold = true
		}
		if seg.italic {
			f.Italic = true
		}
		para.AddChild(ooxml.BuildRunElement(seg.text, f))
	}

	doc := etree.NewDocument()
	doc.SetRoot(para)
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize markdown insertion: %w", err)
	}
	return s, nil
}

// mdSegment is one styled stretch of answer text, or an explicit line
// break between stretches.
type mdSegment struct {
	text      string
	bold      bool
	italic    bool
	lineBreak bool
}

// collectInline flattens a goldmark node into styled segments, carrying
// the bold/italic state down through nested emphasis.
func collectInline(n ast.Node, src []byte, bold, italic bool) []mdSegment {
	var segments []mdSegment
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			value := string(node.Value(src))
			if value != "" {
				segments = append(segments, mdSegment{text: value, bold: bold, italic: italic})
			}
			if node.HardLineBreak() || node.SoftLineBreak() {
				segments = append(segments, mdSegment{lineBreak: true})
			}
		case *ast.Emphasis:
			b, i := bold, italic
			if node.Level >= 2 {
				b = true
			} else {
				i = true
			}
			segments = append(segments, collectInline(node, src, b, i)...)
		default:
			segments = append(segments, collectInline(c, src, bold, italic)...)
		}
	}
	return segments
}
