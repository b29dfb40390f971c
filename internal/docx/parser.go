// Package docx is the word-processing backend: it indexes .docx documents,
// resolves answer locations, writes answers back preserving formatting, and
// verifies the result.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/dgallion1/formfill/internal/ooxml"
)

const documentPart = "word/document.xml"

var (
	errNoDocumentPart = errors.New("word/document.xml not found in archive")
	errNoBody         = errors.New("no w:body element found in document.xml")
)

// readDocumentXML extracts word/document.xml from a .docx ZIP archive.
func readDocumentXML(fileBytes []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", documentPart, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", documentPart, err)
		}
		return data, nil
	}
	return nil, errNoDocumentPart
}

// parseBody parses a .docx and returns the document tree plus its w:body
// element. A missing body is a fatal parse error.
func parseBody(fileBytes []byte) (*etree.Document, *etree.Element, error) {
	docXML, err := readDocumentXML(fileBytes)
	if err != nil {
		return nil, nil, err
	}
	doc, err := ooxml.ParseBytes(docXML)
	if err != nil {
		return nil, nil, fmt.Errorf("parse document.xml: %w", err)
	}
	body := findBody(doc)
	if body == nil {
		return nil, nil, errNoBody
	}
	return doc, body, nil
}

// findBody locates the w:body element under the document root.
func findBody(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	for _, child := range root.ChildElements() {
		if child.Tag == "body" {
			return child
		}
	}
	return nil
}

// repackage rewrites the .docx ZIP with modifiedXML in place of
// word/document.xml, copying every other entry unchanged.
func repackage(fileBytes, modifiedXML []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("create zip entry %s: %w", f.Name, err)
		}
		if f.Name == documentPart {
			if _, err := w.Write(modifiedXML); err != nil {
				zw.Close()
				return nil, fmt.Errorf("write %s: %w", documentPart, err)
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
