package repair

import (
	"fmt"
	"sort"

	"github.com/venthub/catalog-tools/internal/catalog"
)

// SlugChange is a category whose slug differs from the one derived from its
// name.
type SlugChange struct {
	CategoryID string
	Name       string
	Old        string
	New        string
}

// PlanSlugs derives a slug for every category from its name. Roots claim
// their slugs first. A leaf whose slug is taken is prefixed with its
// parent's slug, and any remaining clash gets a numeric suffix.
func PlanSlugs(categories []catalog.Category) []SlugChange {
	byID := make(map[string]catalog.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	ordered := append([]catalog.Category(nil), categories...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].IsRoot() != ordered[j].IsRoot() {
			return ordered[i].IsRoot()
		}
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})

	used := make(map[string]bool, len(categories))
	var changes []SlugChange
	for _, c := range ordered {
		slug := catalog.Slug(c.Name)
		if used[slug] && !c.IsRoot() {
			if parent, ok := byID[*c.ParentID]; ok {
				slug = catalog.Slug(parent.Name) + "-" + slug
			}
		}
		base := slug
		for n := 2; used[slug]; n++ {
			slug = fmt.Sprintf("%s-%d", base, n)
		}
		used[slug] = true

		if slug != c.Slug {
			changes = append(changes, SlugChange{CategoryID: c.ID, Name: c.Name, Old: c.Slug, New: slug})
		}
	}
	return changes
}
