package api

import (
	"net/http"
	"os"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
)

// handleLibrary lists items, optionally scoped to one folder
func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	items, err := s.lib.List(r.URL.Query().Get("folder"))
	if err != nil {
		respondError(w, err)
		return
	}
	if items == nil {
		items = []model.MediaItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// handleAllTags returns every distinct tag in the library
func (s *Server) handleAllTags(w http.ResponseWriter, _ *http.Request) {
	tags, err := s.lib.AllTags()
	if err != nil {
		respondError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	respondJSON(w, http.StatusOK, tags)
}

// handleSetTags replaces an item's tag set
func (s *Server) handleSetTags(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	item, err := s.lib.SetTags(r.PathValue("id"), req.Tags)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// handleUpdateMetadata patches an item's title and description
func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	item, err := s.lib.UpdateMetadata(r.PathValue("id"), req.Title, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// handleMoveVideo relocates a media file between folders
func (s *Server) handleMoveVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename     string `json:"filename"`
		SourceFolder string `json:"source_folder"`
		TargetFolder string `json:"target_folder"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	result, err := s.lib.Move(req.Filename, req.SourceFolder, req.TargetFolder)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleDeleteVideo removes a media file, or a whole item when only an id is
// given (link-only items have no file to address).
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Folder   string `json:"folder"`
		Filename string `json:"filename"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	var err error
	if req.Filename != "" {
		err = s.lib.DeleteFile(req.Folder, req.Filename)
	} else if req.ID != "" {
		err = s.lib.DeleteItem(req.ID)
	} else {
		err = errors.Wrap(errBadRequest, "missing id or filename")
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// handleStream serves a media file with range support for seeking
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	item, err := s.lib.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	kind := model.FileKindVideo
	if r.URL.Query().Get("type") == "audio" {
		kind = model.FileKindAudio
	}
	entry, ok := item.FileOfKind(kind)
	if !ok || entry.Folder != r.PathValue("folder") {
		respondError(w, errors.Wrapf(model.ErrNotFound, "no %s file for %q", kind, item.ID))
		return
	}
	path, err := s.lib.MediaFilePath(entry.Folder, entry.Filename)
	if err != nil {
		respondError(w, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		respondError(w, errors.Wrapf(model.ErrNotFound, "file %s", entry.Filename))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		respondError(w, err)
		return
	}
	http.ServeContent(w, r, entry.Filename, info.ModTime(), f)
}

// handleThumbnail serves the cached thumbnail for an item
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	path, ok := s.lib.ThumbnailPath(r.PathValue("id"))
	if !ok {
		respondError(w, errors.Wrapf(model.ErrNotFound, "thumbnail %q", r.PathValue("id")))
		return
	}
	http.ServeFile(w, r, path)
}

// handleOpenFileLocation reveals a media file in the system file manager
func (s *Server) handleOpenFileLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder   string `json:"folder"`
		Filename string `json:"filename"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	path, err := s.lib.MediaFilePath(req.Folder, req.Filename)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := platform.RevealInFileManager(path); err != nil {
		respondError(w, errors.Wrapf(model.ErrNotFound, "%v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"opened": true})
}
