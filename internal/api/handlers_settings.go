package api

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
)

// settingsView decorates the stored settings with the derived configured flag
type settingsView struct {
	model.Settings
	Configured bool `json:"configured"`
}

// handleGetSettings returns the current settings
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, settingsView{
		Settings:   s.cfg.Get(),
		Configured: s.cfg.IsConfigured(),
	})
}

// handleUpdateSettings applies a partial settings patch. When the content
// root is (re)configured the library skeleton is materialized right away.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if err := decodeBody(r, &patch); err != nil {
		respondError(w, err)
		return
	}
	// The default folder is renamed, never re-designated; the rename endpoint
	// keeps the directory, sidecars and settings in step.
	if patch.DefaultFolderName != nil {
		respondError(w, errors.Wrap(errBadRequest, "default folder changes go through /api/rename-default-folder"))
		return
	}
	settings, err := s.cfg.Update(patch)
	if err != nil {
		respondError(w, err)
		return
	}
	if s.cfg.IsConfigured() {
		if err := s.folders.EnsureStructure(); err != nil {
			respondError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, settingsView{
		Settings:   settings,
		Configured: s.cfg.IsConfigured(),
	})
}
