package engine

import (
	"shiftload/pkg/schema"
)

// DirectoryIndex provides lookup of directory entries by identifier and by
// normalized display name. Entries without an identifier are counted but never
// indexed, so they can not be matched.
type DirectoryIndex struct {
	ByID   map[string]*schema.DirectoryEntry   `json:"byId"`
	ByName map[string][]*schema.DirectoryEntry `json:"byName"`
	// Names lists the distinct normalized names in directory order.
	Names []string `json:"names"`
	// Entries lists the indexed entries in directory order.
	Entries []*schema.DirectoryEntry `json:"entries"`
	Stats   IndexStats               `json:"stats"`
}

// IndexStats contains aggregate statistics about the directory index.
type IndexStats struct {
	TotalRecords int `json:"totalRecords"`
	Indexed      int `json:"indexed"`
	MissingID    int `json:"missingId"`
	DuplicateIDs int `json:"duplicateIds"`
	SharedNames  int `json:"sharedNames"`
}

// BuildDirectoryIndex indexes entries by ID (first occurrence wins for duplicates)
// and by normalized display name (several IDs may share one name).
func BuildDirectoryIndex(entries []schema.DirectoryEntry) *DirectoryIndex {
	index := &DirectoryIndex{
		ByID:   make(map[string]*schema.DirectoryEntry, len(entries)),
		ByName: make(map[string][]*schema.DirectoryEntry, len(entries)),
	}

	for i := range entries {
		rec := entries[i]
		index.Stats.TotalRecords++

		if rec.ID == "" {
			index.Stats.MissingID++
			continue
		}
		if _, exists := index.ByID[rec.ID]; exists {
			index.Stats.DuplicateIDs++
			continue
		}
		if rec.NormalizedName == "" {
			rec.NormalizedName = schema.NormalizeText(rec.DisplayName)
		}

		entry := &rec
		index.ByID[rec.ID] = entry
		index.Entries = append(index.Entries, entry)

		if rec.NormalizedName == "" {
			continue
		}
		if _, seen := index.ByName[rec.NormalizedName]; !seen {
			index.Names = append(index.Names, rec.NormalizedName)
		} else if len(index.ByName[rec.NormalizedName]) == 1 {
			index.Stats.SharedNames++
		}
		index.ByName[rec.NormalizedName] = append(index.ByName[rec.NormalizedName], entry)
	}

	index.Stats.Indexed = len(index.Entries)
	return index
}

// Lookup returns the entry for id.
func (idx *DirectoryIndex) Lookup(id string) (*schema.DirectoryEntry, bool) {
	e, ok := idx.ByID[id]
	return e, ok
}

// idsForName returns the distinct identifiers behind a normalized name.
func (idx *DirectoryIndex) idsForName(name string) []string {
	entries := idx.ByName[name]
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// Options formats every indexed entry as "display name (identifier)" in directory
// order, for the correction prompt.
func (idx *DirectoryIndex) Options() []string {
	opts := make([]string, len(idx.Entries))
	for i, e := range idx.Entries {
		opts[i] = e.Option()
	}
	return opts
}
