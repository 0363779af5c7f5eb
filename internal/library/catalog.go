package library

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/config"
	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/probe"
)

// Content root layout
const (
	VideosDirName     = "videos"
	MetadataDirName   = "metadata"
	ThumbnailsDirName = "thumbnails"

	SidecarExtension   = ".json"
	ThumbnailExtension = ".jpg"
)

// ThumbnailFetchTimeout bounds each best-effort thumbnail download
const ThumbnailFetchTimeout = 15 * time.Second

// Catalog is the media library backed by the configured content root. All
// sidecar access is serialized through the catalog so concurrent API calls
// never observe a half-written record.
type Catalog struct {
	cfg    *config.Store
	prober probe.Prober
	client *http.Client

	mu sync.RWMutex
}

// NewCatalog creates a catalog over the given settings store. The prober is
// used by SaveLink to fetch metadata for link-only items.
func NewCatalog(cfg *config.Store, prober probe.Prober) *Catalog {
	return &Catalog{
		cfg:    cfg,
		prober: prober,
		client: &http.Client{Timeout: ThumbnailFetchTimeout},
	}
}

// root returns the content root, or ErrUnconfigured when it is not usable
func (c *Catalog) root() (string, error) {
	if !c.cfg.IsConfigured() {
		return "", model.ErrUnconfigured
	}
	return c.cfg.ContentRoot(), nil
}

// VideosDir returns the directory holding the per-folder media files
func (c *Catalog) VideosDir() (string, error) {
	root, err := c.root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, VideosDirName), nil
}

// FolderPath returns the on-disk directory for a library folder
func (c *Catalog) FolderPath(name string) (string, error) {
	videos, err := c.VideosDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(videos, name), nil
}

// MediaFilePath returns the full path of a media file inside a folder
func (c *Catalog) MediaFilePath(folder, filename string) (string, error) {
	dir, err := c.FolderPath(folder)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filename), nil
}

func (c *Catalog) metadataDir() (string, error) {
	root, err := c.root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, MetadataDirName), nil
}

func (c *Catalog) thumbnailsDir() (string, error) {
	root, err := c.root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ThumbnailsDirName), nil
}

// ThumbnailPath returns the cached thumbnail location for an item and whether
// the file exists.
func (c *Catalog) ThumbnailPath(id string) (string, bool) {
	dir, err := c.thumbnailsDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(dir, id+ThumbnailExtension)
	info, err := os.Stat(path)
	return path, err == nil && !info.IsDir()
}

// Get returns the catalog item with the given id
func (c *Catalog) Get(id string) (*model.MediaItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readSidecar(id)
}

// SourceURL returns the original URL an item was saved from
func (c *Catalog) SourceURL(id string) (string, error) {
	item, err := c.Get(id)
	if err != nil {
		return "", err
	}
	return item.SourceURL, nil
}

// List returns the items whose primary folder matches the given name, newest
// first. An empty name lists the whole library. Ordering follows the media
// file's modification time; link-only items fall back to the sidecar's.
func (c *Catalog) List(folder string) ([]model.MediaItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, err := c.scanSidecars()
	if err != nil {
		return nil, err
	}

	type dated struct {
		item model.MediaItem
		mod  time.Time
	}
	var selected []dated
	for _, item := range items {
		if folder != "" && item.Folder != folder {
			continue
		}
		selected = append(selected, dated{item: item, mod: c.itemModTime(&item)})
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].mod.After(selected[j].mod)
	})

	result := make([]model.MediaItem, 0, len(selected))
	for _, d := range selected {
		result = append(result, d.item)
	}
	return result, nil
}

// Count returns how many items live in the given folder
func (c *Catalog) Count(folder string) int {
	items, err := c.List(folder)
	if err != nil {
		return 0
	}
	return len(items)
}

// itemModTime picks the timestamp used for library ordering
func (c *Catalog) itemModTime(item *model.MediaItem) time.Time {
	if !item.LinkOnly {
		if path, err := c.MediaFilePath(item.Folder, item.Filename); err == nil {
			if info, err := os.Stat(path); err == nil {
				return info.ModTime()
			}
		}
	}
	if dir, err := c.metadataDir(); err == nil {
		if info, err := os.Stat(filepath.Join(dir, item.ID+SidecarExtension)); err == nil {
			return info.ModTime()
		}
	}
	return item.SavedAt
}

// findByFile locates the item owning a media file in a folder. Files without a
// sidecar are not part of the catalog and resolve to ErrNotFound.
func (c *Catalog) findByFile(folder, filename string) (*model.MediaItem, error) {
	items, err := c.scanSidecars()
	if err != nil {
		return nil, err
	}
	for i := range items {
		for _, f := range items[i].Files {
			if f.Folder == folder && f.Filename == filename {
				return &items[i], nil
			}
		}
	}
	return nil, errors.Wrapf(model.ErrNotFound, "no item for %s/%s", folder, filename)
}
