package api

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
)

// handleInfo probes a URL and returns its metadata with the resolution ladder
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	info, err := s.prober.Probe(r.Context(), req.URL)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// handleDownload starts the background download job
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req model.DownloadRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Type == "" {
		req.Type = model.DownloadTypeVideo
	}
	if err := s.orch.Start(req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, s.orch.Snapshot())
}

// handleProgress returns the current job snapshot for polling clients
func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.orch.Snapshot())
}

// handleCancel aborts the running job, if any
func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	cancelled := s.orch.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// handleSaveLink records a URL as a link-only library item
func (s *Server) handleSaveLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL    string `json:"url"`
		Folder string `json:"folder"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if !s.requireConfigured(w) {
		return
	}
	if req.Folder == "" {
		req.Folder = s.cfg.DefaultFolder()
	}
	item, created, err := s.lib.SaveLink(r.Context(), req.URL, req.Folder)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"item":    item,
		"created": created,
	})
}

// handleDownloadLater promotes a saved link: the stored source URL is handed
// to the orchestrator and the finished file lands on the existing item.
func (s *Server) handleDownloadLater(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Resolution string `json:"resolution"`
		Bitrate    int    `json:"bitrate"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		respondError(w, errors.Wrap(errBadRequest, "missing id"))
		return
	}
	item, err := s.lib.Get(req.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	dreq := model.DownloadRequest{
		URL:        item.SourceURL,
		Type:       model.DownloadType(req.Type),
		Resolution: req.Resolution,
		Bitrate:    req.Bitrate,
		Folder:     item.Folder,
		MediaID:    item.ID,
	}
	if dreq.Type == "" {
		dreq.Type = model.DownloadTypeVideo
	}
	if err := s.orch.Start(dreq); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, s.orch.Snapshot())
}
