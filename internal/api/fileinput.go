package api

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/formfill/internal/fill"
)

// fileRequest is the document-input portion shared by every tool request:
// exactly one of file_path or file_bytes_b64, plus an optional explicit
// file_type.
type fileRequest struct {
	FilePath     string `json:"file_path,omitempty"`
	FileBytesB64 string `json:"file_bytes_b64,omitempty"`
	FileType     string `json:"file_type,omitempty"`
}

// resolveFileInput loads the document bytes and determines the backend.
// The type comes from file_type when given, otherwise from the file
// extension, otherwise from content sniffing.
func (s *Server) resolveFileInput(req fileRequest) ([]byte, fill.FileType, error) {
	hasPath := req.FilePath != ""
	hasB64 := req.FileBytesB64 != ""
	switch {
	case hasPath && hasB64:
		return nil, "", fmt.Errorf("provide file_path or file_bytes_b64, not both")
	case !hasPath && !hasB64:
		return nil, "", fmt.Errorf("provide either file_path or file_bytes_b64; neither was supplied")
	}

	var data []byte
	if hasPath {
		path, err := s.safePath(req.FilePath)
		if err != nil {
			return nil, "", err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, "", fmt.Errorf("file not found or not accessible: %s", req.FilePath)
		}
		if info.Size() > s.cfg.MaxUploadBytes {
			return nil, "", fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", req.FilePath, err)
		}
	} else {
		var err error
		data, err = base64.StdEncoding.DecodeString(req.FileBytesB64)
		if err != nil {
			return nil, "", fmt.Errorf("file_bytes_b64 is not valid base64: %w", err)
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			return nil, "", fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		}
	}

	if req.FileType != "" {
		ft, err := fill.ParseFileType(req.FileType)
		if err != nil {
			return nil, "", err
		}
		return data, ft, nil
	}

	if hasPath {
		if ft, ok := typeFromExtension(req.FilePath); ok {
			return data, ft, nil
		}
	}
	if ft, ok := typeFromContent(data); ok {
		return data, ft, nil
	}
	return nil, "", fmt.Errorf(
		"could not determine file type: pass file_type ('word', 'excel', 'pdf') explicitly")
}

// safePath cleans a user-supplied path and confines it to the configured
// work directory when one is set.
func (s *Server) safePath(p string) (string, error) {
	if strings.Contains(p, "..") {
		return "", fmt.Errorf("path must not contain '..': %s", p)
	}
	clean := filepath.Clean(p)
	if s.cfg.WorkDir == "" {
		return clean, nil
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", p, err)
	}
	root, err := filepath.Abs(s.cfg.WorkDir)
	if err != nil {
		return "", fmt.Errorf("resolve work dir: %w", err)
	}
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside the allowed work directory: %s", p)
	}
	return abs, nil
}

func typeFromExtension(path string) (fill.FileType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return fill.FileTypeWord, true
	case ".xlsx":
		return fill.FileTypeExcel, true
	case ".pdf":
		return fill.FileTypePDF, true
	}
	return "", false
}

// typeFromContent sniffs the backend from magic bytes: PDF header, or ZIP
// entries that identify the OOXML flavor.
func typeFromContent(data []byte) (fill.FileType, bool) {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return fill.FileTypePDF, true
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return fill.FileTypeWord, true
		case "xl/workbook.xml":
			return fill.FileTypeExcel, true
		}
	}
	return "", false
}
