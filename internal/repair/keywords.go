package repair

import (
	"strings"

	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/resolver"
)

// PlanKeywordMoves finds products filed directly under the root named by
// parent, with no valid subcategory, whose name, brand or description
// contains one of the parent's rule keywords. Each such product is moved to
// the first matching rule's leaf. The product keeps the root as category_id.
func PlanKeywordMoves(products []catalog.Product, table *resolver.LookupTable, parent resolver.ParentRules) []Update {
	parentID, ok := table.Ref(parent.Parent)
	if !ok {
		return nil
	}

	targets := make([]string, len(parent.Rules))
	for i, r := range parent.Rules {
		targets[i] = childTarget(table, parentID, r.Target)
	}

	var updates []Update
	for _, p := range products {
		if catalog.Deref(p.CategoryID) != parentID {
			continue
		}
		if sub := catalog.Deref(p.SubcategoryID); sub != "" {
			if c, ok := table.Category(sub); ok && catalog.Deref(c.ParentID) == parentID {
				continue
			}
		}

		text := catalog.Fold(strings.Join([]string{p.Name, p.Brand, p.Description}, " "))
		for i, r := range parent.Rules {
			if targets[i] == "" || !containsAny(text, r.Keywords) {
				continue
			}
			updates = append(updates, Update{
				ProductID:     p.ID,
				Name:          p.Name,
				CategoryID:    parentID,
				SubcategoryID: catalog.StringPtr(targets[i]),
			})
			break
		}
	}
	return updates
}

// childTarget returns the id of target when it is a child of parentID.
func childTarget(table *resolver.LookupTable, parentID, target string) string {
	if id, ok := table.Child(parentID, target); ok {
		return id
	}
	if id, ok := table.Ref(target); ok {
		if c, _ := table.Category(id); catalog.Deref(c.ParentID) == parentID {
			return id
		}
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
