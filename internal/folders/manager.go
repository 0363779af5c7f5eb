// Package folders manages the named partitions of the library: creation,
// renaming and deletion of the per-folder directories under videos/, with the
// default folder held invariant.
package folders

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/library"
	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
)

// Manager performs folder operations against the content root. Cascading
// sidecar updates go through the catalog so folder moves and renames never
// leave records pointing at a vanished directory.
type Manager struct {
	cfg *config.Store
	lib *library.Catalog
}

// NewManager creates a folder manager over the given settings store and catalog
func NewManager(cfg *config.Store, lib *library.Catalog) *Manager {
	return &Manager{cfg: cfg, lib: lib}
}

// EnsureStructure creates the content root skeleton: videos/, metadata/,
// thumbnails/ and the default folder. Called on startup and after the content
// root changes.
func (m *Manager) EnsureStructure() error {
	root := m.cfg.ContentRoot()
	if root == "" {
		return model.ErrUnconfigured
	}
	dirs := []string{
		filepath.Join(root, library.VideosDirName),
		filepath.Join(root, library.MetadataDirName),
		filepath.Join(root, library.ThumbnailsDirName),
		filepath.Join(root, library.VideosDirName, m.cfg.DefaultFolder()),
	}
	for _, dir := range dirs {
		if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return nil
}

// List returns every folder with its item count, the default folder first and
// the rest sorted case-insensitively by name.
func (m *Manager) List() ([]model.Folder, error) {
	videos, err := m.lib.VideosDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(videos)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read videos dir")
	}

	defaultName := m.cfg.DefaultFolder()
	var result []model.Folder
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		result = append(result, model.Folder{
			Name:       name,
			IsDefault:  name == defaultName,
			VideoCount: m.lib.Count(name),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].IsDefault != result[j].IsDefault {
			return result[i].IsDefault
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// Path returns the on-disk directory of a folder
func (m *Manager) Path(name string) (string, error) {
	return m.lib.FolderPath(name)
}

// Exists reports whether a folder directory is present
func (m *Manager) Exists(name string) bool {
	path, err := m.lib.FolderPath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Create adds a new empty folder. The name is sanitized first; an empty
// result or a clash with an existing folder is rejected.
func (m *Manager) Create(name string) (model.Folder, error) {
	clean := platform.SanitizeName(name)
	if clean == "" {
		return model.Folder{}, errors.Wrapf(model.ErrInvalidName, "%q", name)
	}
	path, err := m.lib.FolderPath(clean)
	if err != nil {
		return model.Folder{}, err
	}
	if _, err := os.Stat(path); err == nil {
		return model.Folder{}, errors.Wrapf(model.ErrDuplicateName, "%q", clean)
	}
	if err := os.MkdirAll(path, platform.DefaultDirPermissions); err != nil {
		return model.Folder{}, errors.Wrap(err, "create folder")
	}
	return model.Folder{Name: clean, IsDefault: clean == m.cfg.DefaultFolder()}, nil
}

// Rename changes a folder's name and rewrites every sidecar referencing it.
// The default folder is renamed through RenameDefault, never here.
func (m *Manager) Rename(old, new string) (model.Folder, error) {
	if old == m.cfg.DefaultFolder() {
		return model.Folder{}, errors.Wrapf(model.ErrIsDefault, "rename %q", old)
	}
	clean := platform.SanitizeName(new)
	if clean == "" {
		return model.Folder{}, errors.Wrapf(model.ErrInvalidName, "%q", new)
	}
	if clean == old {
		return model.Folder{Name: old}, nil
	}
	oldPath, err := m.lib.FolderPath(old)
	if err != nil {
		return model.Folder{}, err
	}
	if info, err := os.Stat(oldPath); err != nil || !info.IsDir() {
		return model.Folder{}, errors.Wrapf(model.ErrNotFound, "folder %q", old)
	}
	newPath, err := m.lib.FolderPath(clean)
	if err != nil {
		return model.Folder{}, err
	}
	if _, err := os.Stat(newPath); err == nil {
		return model.Folder{}, errors.Wrapf(model.ErrDuplicateName, "%q", clean)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return model.Folder{}, errors.Wrap(err, "rename folder")
	}
	if err := m.lib.RenameFolderRefs(old, clean); err != nil {
		return model.Folder{}, err
	}
	return model.Folder{Name: clean, VideoCount: m.lib.Count(clean)}, nil
}

// RenameDefault renames the default folder: the directory moves (or is
// created when missing), sidecars are rewritten and the settings record the
// new name, all as one operation.
func (m *Manager) RenameDefault(new string) (model.Folder, error) {
	clean := platform.SanitizeName(new)
	if clean == "" {
		return model.Folder{}, errors.Wrapf(model.ErrInvalidName, "%q", new)
	}
	old := m.cfg.DefaultFolder()
	if clean == old {
		return model.Folder{Name: old, IsDefault: true, VideoCount: m.lib.Count(old)}, nil
	}

	newPath, err := m.lib.FolderPath(clean)
	if err != nil {
		return model.Folder{}, err
	}
	if _, err := os.Stat(newPath); err == nil {
		return model.Folder{}, errors.Wrapf(model.ErrDuplicateName, "%q", clean)
	}

	oldPath, err := m.lib.FolderPath(old)
	if err != nil {
		return model.Folder{}, err
	}
	if info, err := os.Stat(oldPath); err == nil && info.IsDir() {
		if err := os.Rename(oldPath, newPath); err != nil {
			return model.Folder{}, errors.Wrap(err, "rename default folder")
		}
	} else if err := os.MkdirAll(newPath, platform.DefaultDirPermissions); err != nil {
		return model.Folder{}, errors.Wrap(err, "create default folder")
	}

	if err := m.lib.RenameFolderRefs(old, clean); err != nil {
		return model.Folder{}, err
	}
	if _, err := m.cfg.Update(model.SettingsPatch{DefaultFolderName: &clean}); err != nil {
		return model.Folder{}, err
	}
	return model.Folder{Name: clean, IsDefault: true, VideoCount: m.lib.Count(clean)}, nil
}

// Delete removes a folder. Its content is not lost: every file is evacuated
// into the default folder first, suffixing names on collision. The default
// folder itself cannot be deleted.
func (m *Manager) Delete(name string) error {
	defaultName := m.cfg.DefaultFolder()
	if name == defaultName {
		return errors.Wrapf(model.ErrIsDefault, "delete %q", name)
	}
	path, err := m.lib.FolderPath(name)
	if err != nil {
		return err
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return errors.Wrapf(model.ErrNotFound, "folder %q", name)
	}
	if err := m.lib.EvacuateFolder(name, defaultName); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrap(err, "remove folder")
	}
	return nil
}
