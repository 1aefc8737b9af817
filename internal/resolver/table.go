package resolver

import (
	"strings"

	"github.com/venthub/catalog-tools/internal/catalog"
)

// LookupTable maps category labels to ids. Every category is reachable by
// its lower-cased name and by its folded name; when two categories share a
// label the first one wins.
type LookupTable struct {
	byLabel map[string]string
	byChild map[string]string // parent id + "\x00" + folded name
	byID    map[string]catalog.Category
}

// NewLookupTable indexes categories for resolution.
func NewLookupTable(categories []catalog.Category) *LookupTable {
	t := &LookupTable{
		byLabel: make(map[string]string, len(categories)*2),
		byChild: make(map[string]string, len(categories)),
		byID:    make(map[string]catalog.Category, len(categories)),
	}
	for _, c := range categories {
		if _, exists := t.byID[c.ID]; exists {
			continue
		}
		t.byID[c.ID] = c
		t.add(rawKey(c.Name), c.ID)
		t.add(catalog.Fold(c.Name), c.ID)
		if !c.IsRoot() {
			key := *c.ParentID + "\x00" + catalog.Fold(c.Name)
			if _, exists := t.byChild[key]; !exists {
				t.byChild[key] = c.ID
			}
		}
	}
	return t
}

func (t *LookupTable) add(key, id string) {
	if key == "" {
		return
	}
	if _, exists := t.byLabel[key]; !exists {
		t.byLabel[key] = id
	}
}

func rawKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup finds a category by label, trying the lower-cased label first and
// then its folded form.
func (t *LookupTable) Lookup(label string) (string, bool) {
	if id, ok := t.byLabel[rawKey(label)]; ok {
		return id, true
	}
	id, ok := t.byLabel[catalog.Fold(label)]
	return id, ok
}

// Ref resolves a configured reference, which is either a category id or a
// category name.
func (t *LookupTable) Ref(ref string) (string, bool) {
	if _, ok := t.byID[ref]; ok {
		return ref, true
	}
	return t.Lookup(ref)
}

// Child finds a category named label whose parent is parentID.
func (t *LookupTable) Child(parentID, label string) (string, bool) {
	id, ok := t.byChild[parentID+"\x00"+catalog.Fold(label)]
	return id, ok
}

// Category returns the row for id.
func (t *LookupTable) Category(id string) (catalog.Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Len returns the number of indexed categories.
func (t *LookupTable) Len() int {
	return len(t.byID)
}
