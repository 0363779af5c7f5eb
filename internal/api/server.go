// Package api exposes the application over HTTP for a polling client. All
// handlers speak a uniform JSON envelope; media playback is the one
// exception, served as raw bytes with range support.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/download"
	"github.com/clipkeep/clipkeep/internal/folders"
	"github.com/clipkeep/clipkeep/internal/library"
	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/probe"
)

// Response is the JSON envelope every API handler returns
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// Server wires the HTTP surface to the application services
type Server struct {
	cfg     *config.Store
	prober  probe.Prober
	orch    *download.Orchestrator
	lib     *library.Catalog
	folders *folders.Manager
	version string

	mux *http.ServeMux
}

// NewServer creates the API server and registers all routes
func NewServer(cfg *config.Store, prober probe.Prober, orch *download.Orchestrator, lib *library.Catalog, mgr *folders.Manager, version string) *Server {
	s := &Server{
		cfg:     cfg,
		prober:  prober,
		orch:    orch,
		lib:     lib,
		folders: mgr,
		version: version,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/version", s.handleVersion)

	s.mux.HandleFunc("POST /api/info", s.handleInfo)
	s.mux.HandleFunc("POST /api/download", s.handleDownload)
	s.mux.HandleFunc("GET /api/progress", s.handleProgress)
	s.mux.HandleFunc("POST /api/cancel", s.handleCancel)
	s.mux.HandleFunc("POST /api/save-link", s.handleSaveLink)
	s.mux.HandleFunc("POST /api/download-later", s.handleDownloadLater)

	s.mux.HandleFunc("GET /api/library", s.handleLibrary)
	s.mux.HandleFunc("GET /api/tags", s.handleAllTags)
	s.mux.HandleFunc("POST /api/tags/{id}", s.handleSetTags)
	s.mux.HandleFunc("POST /api/update-metadata/{id}", s.handleUpdateMetadata)
	s.mux.HandleFunc("POST /api/videos/move", s.handleMoveVideo)
	s.mux.HandleFunc("POST /api/delete-video", s.handleDeleteVideo)
	s.mux.HandleFunc("GET /api/stream/{folder}/{id}", s.handleStream)
	s.mux.HandleFunc("GET /api/thumbnails/{id}", s.handleThumbnail)
	s.mux.HandleFunc("POST /api/open-file-location", s.handleOpenFileLocation)

	s.mux.HandleFunc("GET /api/folders", s.handleListFolders)
	s.mux.HandleFunc("POST /api/folders", s.handleCreateFolder)
	s.mux.HandleFunc("PUT /api/folders/{name}", s.handleRenameFolder)
	s.mux.HandleFunc("DELETE /api/folders/{name}", s.handleDeleteFolder)
	s.mux.HandleFunc("POST /api/rename-default-folder", s.handleRenameDefaultFolder)

	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("POST /api/settings", s.handleUpdateSettings)
}

// respondJSON writes a success envelope
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Success: true, Data: data}); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// respondError writes a failure envelope with the status derived from the
// error kind.
func respondError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForError(err))
	if encErr := json.NewEncoder(w).Encode(Response{Success: false, Error: err.Error()}); encErr != nil {
		log.Printf("encode error response: %v", encErr)
	}
}

// errBadRequest marks malformed request bodies
var errBadRequest = errors.New("invalid request body")

// statusForError maps the shared error kinds to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidURL),
		errors.Is(err, model.ErrInvalidName),
		errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyRunning),
		errors.Is(err, model.ErrDuplicateName),
		errors.Is(err, model.ErrIsDefault),
		errors.Is(err, model.ErrUnconfigured):
		return http.StatusConflict
	case errors.Is(err, model.ErrProbeFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses a JSON request body into dst
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

// requireConfigured short-circuits handlers that need a content root
func (s *Server) requireConfigured(w http.ResponseWriter) bool {
	if !s.cfg.IsConfigured() {
		respondError(w, model.ErrUnconfigured)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": s.version})
}
