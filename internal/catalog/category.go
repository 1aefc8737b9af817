package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a row of the categories table. Roots have level 0 and no
// parent; leaves have level 1 and point at a root.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	ParentID    *string `json:"parent_id"`
	Level       *int    `json:"level"`
	Description string  `json:"description,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// CategoryNode is a category with its children.
type CategoryNode struct {
	Category
	Children []*CategoryNode
}

// CategoryTree is the category hierarchy built from a flat list of rows.
type CategoryTree struct {
	roots    []*CategoryNode
	nodeByID map[string]*CategoryNode
}

// BuildCategoryTree links categories to their parents. Rows whose parent is
// missing are treated as roots so they still show up in listings.
func BuildCategoryTree(categories []Category) *CategoryTree {
	tree := &CategoryTree{
		nodeByID: make(map[string]*CategoryNode, len(categories)),
	}

	for _, cat := range categories {
		if _, exists := tree.nodeByID[cat.ID]; exists {
			continue
		}
		tree.nodeByID[cat.ID] = &CategoryNode{Category: cat}
	}

	for _, node := range tree.nodeByID {
		if node.IsRoot() {
			tree.roots = append(tree.roots, node)
			continue
		}
		parentNode, exists := tree.nodeByID[*node.ParentID]
		if exists {
			parentNode.Children = append(parentNode.Children, node)
		} else {
			tree.roots = append(tree.roots, node)
		}
	}

	sortNodes(tree.roots)
	for _, node := range tree.nodeByID {
		sortNodes(node.Children)
	}

	return tree
}

func sortNodes(nodes []*CategoryNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// Roots returns the top-level nodes ordered by name.
func (t *CategoryTree) Roots() []*CategoryNode {
	return t.roots
}

// Children returns the children of a category, or nil.
func (t *CategoryTree) Children(categoryID string) []*CategoryNode {
	node, exists := t.nodeByID[categoryID]
	if !exists {
		return nil
	}
	return node.Children
}

// Get returns the category with the given id.
func (t *CategoryTree) Get(categoryID string) (Category, bool) {
	node, exists := t.nodeByID[categoryID]
	if !exists {
		return Category{}, false
	}
	return node.Category, true
}

// Len returns the number of distinct categories in the tree.
func (t *CategoryTree) Len() int {
	return len(t.nodeByID)
}

// IsLeaf returns true if the category has no children.
func (t *CategoryTree) IsLeaf(categoryID string) bool {
	node, exists := t.nodeByID[categoryID]
	if !exists {
		return true
	}
	return len(node.Children) == 0
}

// Path returns a breadcrumb like "Hava Perdeleri > Ortam Havalı".
func (t *CategoryTree) Path(categoryID string) string {
	var parts []string
	seen := make(map[string]bool)
	for id := categoryID; id != "" && !seen[id]; {
		seen[id] = true
		node, exists := t.nodeByID[id]
		if !exists {
			break
		}
		parts = append([]string{node.Name}, parts...)
		if node.IsRoot() {
			break
		}
		id = *node.ParentID
	}
	return strings.Join(parts, " > ")
}

// Violation describes a category row that breaks the two-level invariant.
type Violation struct {
	CategoryID string
	Name       string
	Problem    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (%s): %s", v.Name, v.CategoryID, v.Problem)
}

// Violations checks every row against the root/leaf invariant.
func (t *CategoryTree) Violations() []Violation {
	var out []Violation
	add := func(c Category, format string, args ...any) {
		out = append(out, Violation{CategoryID: c.ID, Name: c.Name, Problem: fmt.Sprintf(format, args...)})
	}

	for _, node := range t.nodeByID {
		c := node.Category
		if c.Level == nil {
			add(c, "level is not set")
		}
		if c.IsRoot() {
			if c.Level != nil && *c.Level != 0 {
				add(c, "root has level %d", *c.Level)
			}
			continue
		}
		parent, ok := t.nodeByID[*c.ParentID]
		if !ok {
			add(c, "parent %s does not exist", *c.ParentID)
			continue
		}
		if !parent.IsRoot() {
			add(c, "parent %s is not a root", parent.Name)
		}
		if c.Level != nil && *c.Level != 1 {
			add(c, "leaf has level %d", *c.Level)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Problem < out[j].Problem
	})
	return out
}
