// Package api exposes the form-filling tools over HTTP. Each tool is a
// POST endpoint taking and returning JSON; an AI agent drives the sequence
// extract -> validate -> build -> write -> verify. The server holds no
// state between calls: every request carries the document it operates on.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/formfill/internal/config"
)

// Server is the HTTP API server for formfill.
type Server struct {
	router chi.Router
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		log: log,
		cfg: cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.FormfillAPIKey, s.log))

		r.Post("/api/tools/extract_structure", s.handleExtractStructure)
		r.Post("/api/tools/extract_structure_compact", s.handleExtractStructureCompact)
		r.Post("/api/tools/validate_locations", s.handleValidateLocations)
		r.Post("/api/tools/build_insertion_xml", s.handleBuildInsertionXML)
		r.Post("/api/tools/list_form_fields", s.handleListFormFields)
		r.Post("/api/tools/preview_answers", s.handlePreviewAnswers)
		r.Post("/api/tools/write_answers", s.handleWriteAnswers)
		r.Post("/api/tools/verify_output", s.handleVerifyOutput)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func jsonOK(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// decodeBody parses the request body into dst, capping its size.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*2+1024*1024)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
