package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/formfill/internal/docx"
	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/pdfform"
	"github.com/dgallion1/formfill/internal/xlsx"
)

func (s *Server) handlePreviewAnswers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		fileRequest
		Answers []answerInput `json:"answers"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	data, ft, err := s.resolveFileInput(req.fileRequest)
	if err != nil {
		jsonError(w, toolError("preview_answers", err.Error()), http.StatusBadRequest)
		return
	}
	if ft != fill.FileTypeWord {
		jsonError(w, toolError("preview_answers",
			fmt.Sprintf("dry-run preview is word-only; %s writes are direct cell/field updates", ft)),
			http.StatusBadRequest)
		return
	}

	payloads, warnings, err := buildAnswerPayloads(data, ft, req.Answers)
	if err != nil {
		jsonError(w, toolError("preview_answers", err.Error()), http.StatusBadRequest)
		return
	}
	previews, err := docx.PreviewAnswers(data, payloads)
	if err != nil {
		jsonError(w, toolError("preview_answers", err.Error()), http.StatusUnprocessableEntity)
		return
	}
	jsonOK(w, map[string]any{"previews": previews, "warnings": warnings})
}

func (s *Server) handleWriteAnswers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		fileRequest
		Answers         []answerInput `json:"answers"`
		AnswersFilePath string        `json:"answers_file_path,omitempty"`
		OutputFilePath  string        `json:"output_file_path,omitempty"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	data, ft, err := s.resolveFileInput(req.fileRequest)
	if err != nil {
		msg := err.Error()
		if req.FilePath == "" && req.FileBytesB64 == "" {
			msg = "missing file_path -- this is the path you passed to extract_structure_compact"
		}
		jsonError(w, toolError("write_answers", msg), http.StatusBadRequest)
		return
	}

	answers, err := s.resolveAnswersInput(req.Answers, req.AnswersFilePath)
	if err != nil {
		jsonError(w, toolError("write_answers", err.Error()), http.StatusBadRequest)
		return
	}

	payloads, warnings, err := buildAnswerPayloads(data, ft, answers)
	if err != nil {
		jsonError(w, toolError("write_answers", err.Error()), http.StatusBadRequest)
		return
	}

	var result []byte
	switch ft {
	case fill.FileTypeWord:
		result, err = docx.WriteAnswers(data, payloads)
	case fill.FileTypeExcel:
		result, err = xlsx.WriteAnswers(data, payloads)
	case fill.FileTypePDF:
		result, err = pdfform.WriteAnswers(data, payloads)
	}
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, pdfform.ErrWriteUnsupported) {
			status = http.StatusBadRequest
		}
		jsonError(w, toolError("write_answers", err.Error()), status)
		return
	}

	if req.OutputFilePath != "" {
		out, err := s.safePath(req.OutputFilePath)
		if err != nil {
			jsonError(w, toolError("write_answers", err.Error()), http.StatusBadRequest)
			return
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			jsonError(w, toolError("write_answers", "create output directory: "+err.Error()), http.StatusInternalServerError)
			return
		}
		if err := os.WriteFile(out, result, 0o644); err != nil {
			jsonError(w, toolError("write_answers", "write output file: "+err.Error()), http.StatusInternalServerError)
			return
		}
		jsonOK(w, map[string]any{"file_path": out, "warnings": warnings})
		return
	}

	jsonOK(w, map[string]any{
		"file_bytes_b64": base64.StdEncoding.EncodeToString(result),
		"warnings":       warnings,
	})
}

// resolveAnswersInput loads the answers array, preferring a JSON file on
// disk over the inline list. Large batches should come from disk so the
// agent's context stays small.
func (s *Server) resolveAnswersInput(inline []answerInput, answersFilePath string) ([]answerInput, error) {
	if answersFilePath != "" {
		path, err := s.safePath(answersFilePath)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("answers file not found or not accessible: %s", answersFilePath)
		}
		if info.Size() > s.cfg.MaxUploadBytes {
			return nil, fmt.Errorf("answers file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read answers file: %w", err)
		}
		var answers []answerInput
		if err := json.Unmarshal(raw, &answers); err != nil {
			return nil, fmt.Errorf("answers_file_path must contain a JSON array of answers: %w", err)
		}
		if len(answers) > s.cfg.MaxAnswers {
			return nil, fmt.Errorf("too many answers (%d); max is %d", len(answers), s.cfg.MaxAnswers)
		}
		return answers, nil
	}

	if len(inline) > 0 {
		if len(inline) > s.cfg.MaxAnswers {
			return nil, fmt.Errorf("too many answers (%d); max is %d", len(inline), s.cfg.MaxAnswers)
		}
		return inline, nil
	}

	return nil, fmt.Errorf("provide either answers (inline) or answers_file_path; neither was supplied")
}

func (s *Server) handleVerifyOutput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		fileRequest
		ExpectedAnswers []fill.ExpectedAnswer `json:"expected_answers"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	data, ft, err := s.resolveFileInput(req.fileRequest)
	if err != nil {
		jsonError(w, toolError("verify_output", err.Error()), http.StatusBadRequest)
		return
	}
	if len(req.ExpectedAnswers) == 0 {
		jsonError(w, toolError("verify_output", "expected_answers is required and must be non-empty"), http.StatusBadRequest)
		return
	}
	for i, e := range req.ExpectedAnswers {
		if e.PairID == "" || e.ExpectedText == "" {
			jsonError(w, toolError("verify_output",
				fmt.Sprintf("expected_answers[%d]: pair_id and expected_text are both required", i)),
				http.StatusBadRequest)
			return
		}
	}

	var report fill.VerificationReport
	switch ft {
	case fill.FileTypeWord:
		report, err = docx.VerifyOutput(data, req.ExpectedAnswers)
	case fill.FileTypeExcel:
		report, err = xlsx.VerifyOutput(data, req.ExpectedAnswers)
	case fill.FileTypePDF:
		report, err = pdfform.VerifyOutput(data, req.ExpectedAnswers)
	}
	if err != nil {
		jsonError(w, toolError("verify_output", err.Error()), http.StatusUnprocessableEntity)
		return
	}
	jsonOK(w, report)
}
