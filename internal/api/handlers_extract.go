package api

import (
	"fmt"
	"net/http"

	"github.com/dgallion1/formfill/internal/docx"
	"github.com/dgallion1/formfill/internal/fill"
	"github.com/dgallion1/formfill/internal/pdfform"
	"github.com/dgallion1/formfill/internal/xlsx"
)

func (s *Server) handleExtractStructureCompact(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	data, ft, err := s.resolveFileInput(req)
	if err != nil {
		jsonError(w, toolError("extract_structure_compact", err.Error()), http.StatusBadRequest)
		return
	}

	compact, err := extractCompact(data, ft)
	if err != nil {
		jsonError(w, toolError("extract_structure_compact", err.Error()), http.StatusUnprocessableEntity)
		return
	}

	resp := map[string]any{
		"compact_text":     compact.CompactText,
		"id_to_xpath":      compact.IDToXPath,
		"complex_elements": compact.ComplexElements,
	}
	if req.FilePath != "" {
		resp["file_path"] = req.FilePath
	}
	jsonOK(w, resp)
}

func (s *Server) handleExtractStructure(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	data, ft, err := s.resolveFileInput(req)
	if err != nil {
		jsonError(w, toolError("extract_structure", err.Error()), http.StatusBadRequest)
		return
	}
	if ft != fill.FileTypeWord {
		jsonError(w, toolError("extract_structure",
			fmt.Sprintf("full structure extraction is word-only; for %s use extract_structure_compact", ft)),
			http.StatusBadRequest)
		return
	}

	bodyXML, err := docx.ExtractStructure(data)
	if err != nil {
		jsonError(w, toolError("extract_structure", err.Error()), http.StatusUnprocessableEntity)
		return
	}
	jsonOK(w, map[string]string{"body_xml": bodyXML})
}

func (s *Server) handleValidateLocations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		fileRequest
		Locations []fill.LocationSnippet `json:"locations"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	data, ft, err := s.resolveFileInput(req.fileRequest)
	if err != nil {
		jsonError(w, toolError("validate_locations", err.Error()), http.StatusBadRequest)
		return
	}
	if len(req.Locations) == 0 {
		jsonError(w, toolError("validate_locations", "locations is required and must be non-empty"), http.StatusBadRequest)
		return
	}
	if len(req.Locations) > s.cfg.MaxLocations {
		jsonError(w, toolError("validate_locations",
			fmt.Sprintf("too many locations (%d); max is %d", len(req.Locations), s.cfg.MaxLocations)),
			http.StatusBadRequest)
		return
	}
	for i, loc := range req.Locations {
		if loc.PairID == "" || loc.Snippet == "" {
			jsonError(w, toolError("validate_locations",
				fmt.Sprintf("locations[%d]: pair_id and snippet are both required", i)),
				http.StatusBadRequest)
			return
		}
		if len(loc.Snippet) > s.cfg.MaxSnippetLen {
			jsonError(w, toolError("validate_locations",
				fmt.Sprintf("locations[%d]: snippet exceeds %d bytes", i, s.cfg.MaxSnippetLen)),
				http.StatusBadRequest)
			return
		}
	}

	var validated []fill.ValidatedLocation
	switch ft {
	case fill.FileTypeWord:
		validated, err = docx.ValidateLocations(data, req.Locations)
	case fill.FileTypeExcel:
		validated, err = xlsx.ValidateLocations(data, req.Locations)
	case fill.FileTypePDF:
		validated, err = pdfform.ValidateLocations(data, req.Locations)
	}
	if err != nil {
		jsonError(w, toolError("validate_locations", err.Error()), http.StatusUnprocessableEntity)
		return
	}
	jsonOK(w, map[string]any{"validated": validated})
}

func (s *Server) handleBuildInsertionXML(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnswerText       string `json:"answer_text"`
		TargetContextXML string `json:"target_context_xml"`
		AnswerType       string `json:"answer_type"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	at, err := fill.ParseAnswerType(req.AnswerType)
	if err != nil {
		jsonError(w, toolError("build_insertion_xml", err.Error()), http.StatusBadRequest)
		return
	}
	if req.TargetContextXML == "" {
		jsonError(w, toolError("build_insertion_xml",
			"target_context_xml is required: pass the XML of the target element so formatting can be inherited"),
			http.StatusBadRequest)
		return
	}

	jsonOK(w, docx.BuildInsertionXML(req.AnswerText, req.TargetContextXML, at))
}

func (s *Server) handleListFormFields(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	data, ft, err := s.resolveFileInput(req)
	if err != nil {
		jsonError(w, toolError("list_form_fields", err.Error()), http.StatusBadRequest)
		return
	}

	var fields []fill.FormField
	switch ft {
	case fill.FileTypeWord:
		fields, err = docx.ListFormFields(data)
	case fill.FileTypeExcel:
		fields, err = xlsx.ListFormFields(data)
	case fill.FileTypePDF:
		fields, err = pdfform.ListFormFields(data)
	}
	if err != nil {
		jsonError(w, toolError("list_form_fields", err.Error()), http.StatusUnprocessableEntity)
		return
	}
	if fields == nil {
		fields = []fill.FormField{}
	}
	jsonOK(w, map[string]any{"fields": fields})
}
