package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
)

// Settings file location
const (
	AppDirName       = "ClipKeep"
	SettingsFileName = "settings.json"
)

// Store manages application configuration persisted as a JSON file in the
// platform config directory. All access goes through the store; reads return
// copies so callers never share mutable state.
type Store struct {
	path string

	mu       sync.Mutex
	settings model.Settings
}

// New creates a settings store backed by the platform config location
// (e.g. ~/.config/ClipKeep/settings.json on Linux).
func New() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolve config dir")
	}
	return NewAt(filepath.Join(base, AppDirName, SettingsFileName))
}

// NewAt creates a settings store backed by an explicit file path. Missing or
// unreadable files yield defaults; missing keys are merged with defaults.
func NewAt(path string) (*Store, error) {
	s := &Store{
		path:     path,
		settings: model.DefaultSettings(),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "read settings")
	}
	var loaded model.Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		// A corrupt settings file falls back to defaults rather than
		// blocking startup.
		return s, nil
	}
	if loaded.Theme != model.ThemeLight && loaded.Theme != model.ThemeDark {
		loaded.Theme = model.ThemeLight
	}
	if loaded.DefaultFolderName == "" {
		loaded.DefaultFolderName = model.DefaultFolderSentinel
	}
	s.settings = loaded
	return s, nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current settings
func (s *Store) Get() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update applies a partial patch, persists, and returns the merged settings.
// Unspecified fields are left unchanged.
func (s *Store) Update(patch model.SettingsPatch) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if patch.ContentRootPath != nil {
		next.ContentRootPath = *patch.ContentRootPath
	}
	if patch.Theme != nil {
		if *patch.Theme == model.ThemeLight || *patch.Theme == model.ThemeDark {
			next.Theme = *patch.Theme
		}
	}
	if patch.DefaultFolderName != nil {
		name := platform.SanitizeName(*patch.DefaultFolderName)
		if name == "" {
			return s.settings, errors.Wrap(model.ErrInvalidName, "default folder")
		}
		next.DefaultFolderName = name
	}

	if err := s.save(next); err != nil {
		return s.settings, err
	}
	s.settings = next
	return next, nil
}

// IsConfigured reports whether the content root is set and exists on disk.
// Most catalog and folder operations are gated on this.
func (s *Store) IsConfigured() bool {
	root := s.Get().ContentRootPath
	if root == "" {
		return false
	}
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}

// ContentRoot returns the configured library root path ("" when unset)
func (s *Store) ContentRoot() string {
	return s.Get().ContentRootPath
}

// DefaultFolder returns the current default folder name
func (s *Store) DefaultFolder() string {
	return s.Get().DefaultFolderName
}

// save writes settings atomically: temp file in the same directory, then
// rename over the target.
func (s *Store) save(settings model.Settings) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, platform.DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}
	tmp, err := os.CreateTemp(dir, SettingsFileName+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp settings")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write settings")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close settings")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replace settings")
	}
	return nil
}
