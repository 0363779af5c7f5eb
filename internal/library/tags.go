package library

import (
	"sort"
	"strings"

	"github.com/duke-git/lancet/v2/slice"

	"github.com/clipkeep/clipkeep/internal/model"
)

// SetTags replaces an item's tag set. Tags are trimmed, stripped of a leading
// '#' and deduplicated case-insensitively, keeping the first-seen spelling.
func (c *Catalog) SetTags(id string, tags []string) (*model.MediaItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.readSidecar(id)
	if err != nil {
		return nil, err
	}
	item.Tags = normalizeTags(tags)
	if err := c.writeSidecar(item); err != nil {
		return nil, err
	}
	return item, nil
}

// AllTags returns every distinct tag in the library, sorted alphabetically
func (c *Catalog) AllTags() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, err := c.scanSidecars()
	if err != nil {
		return nil, err
	}
	var all []string
	for _, item := range items {
		all = append(all, item.Tags...)
	}
	all = slice.Unique(all)
	sort.Strings(all)
	return all, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
