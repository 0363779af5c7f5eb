package library

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
	"github.com/clipkeep/clipkeep/internal/probe"
)

// SaveLink records a URL as a link-only item in the given folder without
// downloading any media. When the URL was saved before, the existing item is
// returned unchanged and created is false.
func (c *Catalog) SaveLink(ctx context.Context, url, folder string) (item *model.MediaItem, created bool, err error) {
	if _, err := c.root(); err != nil {
		return nil, false, err
	}

	info, err := c.prober.Probe(ctx, url)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := info.ID
	if id == "" {
		id = probe.GenerateIDFromURL(url)
	}
	if existing, err := c.readSidecar(id); err == nil {
		return existing, false, nil
	}

	next := itemFromInfo(id, info)
	next.Folder = folder
	if info.Thumbnail != "" {
		next.LocalThumbnail = c.fetchThumbnail(ctx, id, info.Thumbnail)
	}
	if err := c.writeSidecar(next); err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// AttachFile records a finished download: the file entry is added to the
// item's sidecar, replacing any previous entry of the same kind. The sidecar
// is created from the probe result when the item does not exist yet.
func (c *Catalog) AttachFile(ctx context.Context, id string, kind model.FileKind, filename, folder string, info *model.VideoInfo) (*model.MediaItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.readSidecar(id)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		item = itemFromInfo(id, info)
	}

	entry := model.FileEntry{Kind: kind, Filename: filename, Folder: folder}
	replaced := false
	for i := range item.Files {
		if item.Files[i].Kind == kind {
			item.Files[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		item.Files = append(item.Files, entry)
	}

	if !item.LocalThumbnail && info != nil && info.Thumbnail != "" {
		item.LocalThumbnail = c.fetchThumbnail(ctx, id, info.Thumbnail)
	}
	if err := c.writeSidecar(item); err != nil {
		return nil, err
	}
	return item, nil
}

// MoveResult describes where a media file ended up after a move. Item is nil
// for files that had no catalog record.
type MoveResult struct {
	Filename string           `json:"filename"`
	Folder   string           `json:"folder"`
	Item     *model.MediaItem `json:"item,omitempty"`
}

// Move relocates a media file from one folder to another, suffixing the name
// on collision, and updates the owning sidecar. Both folders must already
// exist on disk.
func (c *Catalog) Move(filename, source, target string) (*MoveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sourcePath, err := c.MediaFilePath(source, filename)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, errors.Wrapf(model.ErrNotFound, "file %s/%s", source, filename)
	}
	targetDir, err := c.FolderPath(target)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(targetDir); err != nil || !info.IsDir() {
		return nil, errors.Wrapf(model.ErrNotFound, "folder %q", target)
	}

	destPath := platform.UniquePath(targetDir, filename)
	if err := os.Rename(sourcePath, destPath); err != nil {
		return nil, errors.Wrap(err, "move file")
	}
	destName := filepath.Base(destPath)
	result := &MoveResult{Filename: destName, Folder: target}

	item, err := c.findByFile(source, filename)
	if err != nil {
		// Orphan files move without a record update
		return result, nil
	}
	for i := range item.Files {
		if item.Files[i].Folder == source && item.Files[i].Filename == filename {
			item.Files[i].Folder = target
			item.Files[i].Filename = destName
		}
	}
	if err := c.writeSidecar(item); err != nil {
		return nil, err
	}
	result.Item = item
	return result, nil
}

// DeleteFile removes one media file from the library. When the owning item has
// no files left afterwards its sidecar and thumbnail are removed too.
func (c *Catalog) DeleteFile(folder, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.MediaFilePath(folder, filename)
	if err != nil {
		return err
	}

	item, findErr := c.findByFile(folder, filename)

	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(err, "remove file")
		}
		if findErr != nil {
			return errors.Wrapf(model.ErrNotFound, "file %s/%s", folder, filename)
		}
	}
	if findErr != nil {
		return nil
	}

	remaining := item.Files[:0]
	for _, f := range item.Files {
		if f.Folder == folder && f.Filename == filename {
			continue
		}
		remaining = append(remaining, f)
	}
	item.Files = remaining
	if len(item.Files) == 0 {
		return c.removeSidecar(item.ID)
	}
	return c.writeSidecar(item)
}

// DeleteItem removes an item entirely: every media file, the thumbnail and
// the sidecar.
func (c *Catalog) DeleteItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.readSidecar(id)
	if err != nil {
		return err
	}
	for _, f := range item.Files {
		if path, err := c.MediaFilePath(f.Folder, f.Filename); err == nil {
			os.Remove(path)
		}
	}
	return c.removeSidecar(id)
}

// UpdateMetadata patches the user-editable fields of an item. Nil fields are
// left unchanged.
func (c *Catalog) UpdateMetadata(id string, title, description *string) (*model.MediaItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.readSidecar(id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		if t := strings.TrimSpace(*title); t != "" {
			item.Title = t
		}
	}
	if description != nil {
		item.Description = strings.TrimSpace(*description)
	}
	if err := c.writeSidecar(item); err != nil {
		return nil, err
	}
	return item, nil
}

// EvacuateFolder moves every media file out of a folder into dest, suffixing
// names on collision, and rewrites the affected sidecars. Used when a folder
// is deleted so its content survives in the default folder.
func (c *Catalog) EvacuateFolder(name, dest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sourceDir, err := c.FolderPath(name)
	if err != nil {
		return err
	}
	destDir, err := c.FolderPath(dest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, platform.DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "create destination folder")
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "read folder")
	}

	renamed := make(map[string]string) // old filename -> new filename
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		oldName := entry.Name()
		destPath := platform.UniquePath(destDir, oldName)
		if err := os.Rename(filepath.Join(sourceDir, oldName), destPath); err != nil {
			return errors.Wrapf(err, "move %s", oldName)
		}
		renamed[oldName] = filepath.Base(destPath)
	}

	items, err := c.scanSidecars()
	if err != nil {
		return err
	}
	for i := range items {
		changed := false
		for j := range items[i].Files {
			f := &items[i].Files[j]
			if f.Folder != name {
				continue
			}
			if newName, ok := renamed[f.Filename]; ok {
				f.Filename = newName
			}
			f.Folder = dest
			changed = true
		}
		if !changed && items[i].LinkOnly && items[i].Folder == name {
			items[i].Folder = dest
			changed = true
		}
		if changed {
			if err := c.writeSidecar(&items[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenameFolderRefs rewrites every sidecar referencing the old folder name.
// The directory itself is renamed by the caller.
func (c *Catalog) RenameFolderRefs(old, new string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.scanSidecars()
	if err != nil {
		return err
	}
	for i := range items {
		changed := false
		for j := range items[i].Files {
			if items[i].Files[j].Folder == old {
				items[i].Files[j].Folder = new
				changed = true
			}
		}
		if items[i].LinkOnly && items[i].Folder == old {
			items[i].Folder = new
			changed = true
		}
		if changed {
			if err := c.writeSidecar(&items[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// fetchThumbnail downloads a thumbnail into the cache. Failures are silent:
// a missing thumbnail never blocks saving an item.
func (c *Catalog) fetchThumbnail(ctx context.Context, id, url string) bool {
	dir, err := c.thumbnailsDir()
	if err != nil {
		return false
	}
	if err := os.MkdirAll(dir, platform.DefaultDirPermissions); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, ThumbnailFetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return false
	}
	path := filepath.Join(dir, id+ThumbnailExtension)
	return os.WriteFile(path, data, platform.DefaultFilePermissions) == nil
}

// itemFromInfo builds a fresh catalog record from a probe result
func itemFromInfo(id string, info *model.VideoInfo) *model.MediaItem {
	item := &model.MediaItem{
		ID:      id,
		SavedAt: time.Now().UTC(),
	}
	if info == nil {
		return item
	}
	item.Title = info.Title
	item.Channel = info.Channel
	item.ChannelURL = info.ChannelURL
	item.Description = info.Description
	item.DurationSeconds = info.DurationSeconds
	item.Duration = info.Duration
	item.Thumbnail = info.Thumbnail
	item.SourceURL = info.URL
	item.Platform = info.Platform
	item.Tags = append([]string(nil), info.Tags...)
	return item
}
