package library

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/clipkeep/clipkeep/internal/model"
	"github.com/clipkeep/clipkeep/internal/platform"
)

// readSidecar loads one item record. Missing or unusable records both resolve
// to ErrNotFound so callers never act on a partial item. Caller holds the lock.
func (c *Catalog) readSidecar(id string) (*model.MediaItem, error) {
	dir, err := c.metadataDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, id+SidecarExtension))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(model.ErrNotFound, "media %q", id)
		}
		return nil, errors.Wrap(err, "read sidecar")
	}
	var item model.MediaItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, errors.Wrapf(model.ErrNotFound, "media %q: corrupt record", id)
	}
	item.Normalize()
	if !item.Valid() {
		return nil, errors.Wrapf(model.ErrNotFound, "media %q: incomplete record", id)
	}
	return &item, nil
}

// writeSidecar persists an item record atomically: temp file in the metadata
// directory, then rename over the target. Caller holds the lock.
func (c *Catalog) writeSidecar(item *model.MediaItem) error {
	dir, err := c.metadataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, platform.DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "create metadata dir")
	}

	item.Normalize()
	if !item.Valid() {
		return errors.Errorf("refusing to persist incomplete record %q", item.ID)
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode sidecar")
	}
	tmp, err := os.CreateTemp(dir, item.ID+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp sidecar")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write sidecar")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close sidecar")
	}
	target := filepath.Join(dir, item.ID+SidecarExtension)
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replace sidecar")
	}
	return nil
}

// removeSidecar deletes an item record and its cached thumbnail. Caller holds
// the lock.
func (c *Catalog) removeSidecar(id string) error {
	dir, err := c.metadataDir()
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, id+SidecarExtension)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove sidecar")
	}
	if thumbs, err := c.thumbnailsDir(); err == nil {
		os.Remove(filepath.Join(thumbs, id+ThumbnailExtension))
	}
	return nil
}

// scanSidecars loads every usable record in the metadata directory. Malformed
// or incomplete records are skipped, not surfaced as errors. Caller holds the
// lock.
func (c *Catalog) scanSidecars() ([]model.MediaItem, error) {
	dir, err := c.metadataDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read metadata dir")
	}

	var items []model.MediaItem
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, SidecarExtension) {
			continue
		}
		id := strings.TrimSuffix(name, SidecarExtension)
		item, err := c.readSidecar(id)
		if err != nil {
			log.Printf("skipping unusable sidecar %s: %v", name, err)
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}
