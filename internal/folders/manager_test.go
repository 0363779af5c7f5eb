package folders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/library"
	"github.com/clipkeep/clipkeep/internal/model"
)

type nullProber struct{}

func (nullProber) Probe(_ context.Context, _ string) (*model.VideoInfo, error) {
	return nil, model.ErrProbeFailed
}

func newTestManager(t *testing.T) (*Manager, *library.Catalog, *config.Store, string) {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.NewAt(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if _, err := cfg.Update(model.SettingsPatch{ContentRootPath: &root}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	lib := library.NewCatalog(cfg, nullProber{})
	mgr := NewManager(cfg, lib)
	if err := mgr.EnsureStructure(); err != nil {
		t.Fatalf("EnsureStructure failed: %v", err)
	}
	return mgr, lib, cfg, root
}

func addVideo(t *testing.T, lib *library.Catalog, root, id, folder, filename string) {
	t.Helper()
	dir := filepath.Join(root, library.VideosDirName, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), []byte("media"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	info := &model.VideoInfo{
		ID:       id,
		URL:      "https://youtube.com/watch?v=" + id,
		Title:    "Clip " + id,
		Platform: model.PlatformYouTube,
	}
	if _, err := lib.AttachFile(context.Background(), id, model.FileKindVideo, filename, folder, info); err != nil {
		t.Fatalf("AttachFile failed: %v", err)
	}
}

func TestEnsureStructure(t *testing.T) {
	_, _, _, root := newTestManager(t)
	for _, dir := range []string{
		library.VideosDirName,
		library.MetadataDirName,
		library.ThumbnailsDirName,
		filepath.Join(library.VideosDirName, model.DefaultFolderSentinel),
	} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("missing directory %s: %v", dir, err)
		}
	}
}

func TestListDefaultFirst(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	for _, name := range []string{"zebra", "Apple"} {
		if _, err := mgr.Create(name); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	folders, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("expected 3 folders, got %d", len(folders))
	}
	if folders[0].Name != model.DefaultFolderSentinel || !folders[0].IsDefault {
		t.Errorf("first folder = %+v, expected the default", folders[0])
	}
	if folders[1].Name != "Apple" || folders[2].Name != "zebra" {
		t.Errorf("order = [%s %s], expected case-insensitive name order", folders[1].Name, folders[2].Name)
	}
}

func TestCreate(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	folder, err := mgr.Create("  My/Clips  ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if folder.Name != "MyClips" {
		t.Errorf("name = %q, expected sanitized MyClips", folder.Name)
	}
	if !mgr.Exists("MyClips") {
		t.Error("created folder missing on disk")
	}

	if _, err := mgr.Create("MyClips"); !errors.Is(err, model.ErrDuplicateName) {
		t.Errorf("duplicate: expected ErrDuplicateName, got %v", err)
	}
	if _, err := mgr.Create("   "); !errors.Is(err, model.ErrInvalidName) {
		t.Errorf("blank: expected ErrInvalidName, got %v", err)
	}
}

func TestRenameCascades(t *testing.T) {
	mgr, lib, _, root := newTestManager(t)
	if _, err := mgr.Create("Old"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	addVideo(t, lib, root, "vid1", "Old", "clip.mp4")

	folder, err := mgr.Rename("Old", "New")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if folder.Name != "New" || folder.VideoCount != 1 {
		t.Errorf("folder = %+v", folder)
	}
	if mgr.Exists("Old") || !mgr.Exists("New") {
		t.Error("directory not renamed")
	}
	item, err := lib.Get("vid1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.Folder != "New" {
		t.Errorf("sidecar folder = %q, expected New", item.Folder)
	}
}

func TestRenameErrors(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	if _, err := mgr.Create("A"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := mgr.Create("B"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := mgr.Rename(model.DefaultFolderSentinel, "Inbox"); !errors.Is(err, model.ErrIsDefault) {
		t.Errorf("default: expected ErrIsDefault, got %v", err)
	}
	if _, err := mgr.Rename("A", "B"); !errors.Is(err, model.ErrDuplicateName) {
		t.Errorf("clash: expected ErrDuplicateName, got %v", err)
	}
	if _, err := mgr.Rename("Missing", "C"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
	if _, err := mgr.Rename("A", "  "); !errors.Is(err, model.ErrInvalidName) {
		t.Errorf("blank: expected ErrInvalidName, got %v", err)
	}
}

func TestRenameDefault(t *testing.T) {
	mgr, lib, cfg, root := newTestManager(t)
	addVideo(t, lib, root, "vid1", model.DefaultFolderSentinel, "clip.mp4")

	folder, err := mgr.RenameDefault("Inbox")
	if err != nil {
		t.Fatalf("RenameDefault failed: %v", err)
	}
	if folder.Name != "Inbox" || !folder.IsDefault {
		t.Errorf("folder = %+v", folder)
	}
	if cfg.DefaultFolder() != "Inbox" {
		t.Errorf("settings default = %q, expected Inbox", cfg.DefaultFolder())
	}
	if mgr.Exists(model.DefaultFolderSentinel) || !mgr.Exists("Inbox") {
		t.Error("directory not renamed")
	}
	item, err := lib.Get("vid1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.Folder != "Inbox" {
		t.Errorf("sidecar folder = %q, expected Inbox", item.Folder)
	}
}

func TestDeleteEvacuatesToDefault(t *testing.T) {
	mgr, lib, _, root := newTestManager(t)
	if _, err := mgr.Create("Movies"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	addVideo(t, lib, root, "vid1", "Movies", "clip.mp4")
	addVideo(t, lib, root, "vid2", model.DefaultFolderSentinel, "clip.mp4")

	if err := mgr.Delete("Movies"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mgr.Exists("Movies") {
		t.Error("deleted folder still present")
	}

	// The evacuated file collides with an existing one and is suffixed
	inbox := filepath.Join(root, library.VideosDirName, model.DefaultFolderSentinel)
	if _, err := os.Stat(filepath.Join(inbox, "clip_1.mp4")); err != nil {
		t.Errorf("evacuated file missing: %v", err)
	}
	item, err := lib.Get("vid1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.Folder != model.DefaultFolderSentinel || item.Filename != "clip_1.mp4" {
		t.Errorf("sidecar not updated: %+v", item)
	}
}

func TestDeleteErrors(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)

	if err := mgr.Delete(model.DefaultFolderSentinel); !errors.Is(err, model.ErrIsDefault) {
		t.Errorf("default: expected ErrIsDefault, got %v", err)
	}
	if err := mgr.Delete("Missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
}
