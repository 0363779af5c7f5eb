package api

import (
	"net/http"

	"github.com/clipkeep/clipkeep/internal/model"
)

// handleListFolders returns all folders, default first, plus whether the
// content root is configured at all.
func (s *Server) handleListFolders(w http.ResponseWriter, _ *http.Request) {
	configured := s.cfg.IsConfigured()
	var list []model.Folder
	if configured {
		var err error
		list, err = s.folders.List()
		if err != nil {
			respondError(w, err)
			return
		}
	}
	if list == nil {
		list = []model.Folder{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"folders":    list,
		"configured": configured,
	})
}

// handleCreateFolder adds a new empty folder
func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	folder, err := s.folders.Create(req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, folder)
}

// handleRenameFolder renames a non-default folder
func (s *Server) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	folder, err := s.folders.Rename(r.PathValue("name"), req.NewName)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, folder)
}

// handleDeleteFolder removes a folder, evacuating its content to the default
func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.folders.Delete(r.PathValue("name")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// handleRenameDefaultFolder renames the default folder and updates settings
func (s *Server) handleRenameDefaultFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	folder, err := s.folders.RenameDefault(req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, folder)
}
