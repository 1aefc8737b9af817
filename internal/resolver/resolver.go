// Package resolver maps a scraped product to a category id. Resolution tries
// an exact subcategory match, then per-parent keyword rules, then the
// scraped category label, and otherwise reports the product as unresolved.
package resolver

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/internal/catalog"
)

// Tier tells which step of resolution produced a result.
type Tier int

const (
	Unresolved Tier = iota
	TierSubcategory
	TierKeyword
	TierKeywordDefault
	TierCategoryName
)

func (t Tier) String() string {
	switch t {
	case TierSubcategory:
		return "subcategory"
	case TierKeyword:
		return "keyword"
	case TierKeywordDefault:
		return "keyword-default"
	case TierCategoryName:
		return "category-name"
	default:
		return "unresolved"
	}
}

// Input is the scraped description of a product.
type Input struct {
	Name        string
	Category    string
	Subcategory string
}

// Result is the outcome of resolving one product. Rule names the parent
// whose rules matched, or the alias used, when relevant.
type Result struct {
	CategoryID string
	Tier       Tier
	Rule       string
}

// Resolved reports whether a category was found.
func (r Result) Resolved() bool {
	return r.Tier != Unresolved
}

// Resolver resolves products against one lookup table and rule set.
type Resolver struct {
	table *LookupTable
	rules *RuleSet
}

func New(table *LookupTable, rules *RuleSet) *Resolver {
	if rules == nil {
		rules = &RuleSet{}
	}
	return &Resolver{table: table, rules: rules}
}

// Table returns the lookup table the resolver uses.
func (r *Resolver) Table() *LookupTable {
	return r.table
}

// Rules returns the rule set the resolver uses.
func (r *Resolver) Rules() *RuleSet {
	return r.rules
}

// Resolve returns the category for in. It never fails; a product that
// matches nothing yields a Result with Tier Unresolved.
func (r *Resolver) Resolve(in Input) Result {
	if strings.TrimSpace(in.Subcategory) != "" {
		if id, ok := r.table.Lookup(in.Subcategory); ok {
			return Result{CategoryID: id, Tier: TierSubcategory}
		}
	}

	name := catalog.Fold(in.Name)
	category := catalog.Fold(in.Category)

	for _, p := range r.rules.Parents {
		if !containsAny(category, p.Labels) && !containsAny(name, p.NameHints) {
			continue
		}
		parentID, _ := r.table.Ref(p.Parent)
		for _, rule := range p.Rules {
			if !containsAny(name, rule.Keywords) {
				continue
			}
			if id, ok := resolveTarget(r.table, parentID, rule.Target); ok {
				return Result{CategoryID: id, Tier: TierKeyword, Rule: p.Parent}
			}
			log.Debug().Str("target", rule.Target).Str("parent", p.Parent).Msg("rule target not in category table")
		}
		if p.Default != "" {
			if id, ok := resolveTarget(r.table, parentID, p.Default); ok {
				return Result{CategoryID: id, Tier: TierKeywordDefault, Rule: p.Parent}
			}
		}
	}

	if category != "" {
		if alias, ok := r.rules.Aliases[category]; ok {
			if id, ok := r.table.Ref(alias); ok {
				return Result{CategoryID: id, Tier: TierCategoryName, Rule: alias}
			}
		}
		if id, ok := r.table.Lookup(in.Category); ok {
			return Result{CategoryID: id, Tier: TierCategoryName}
		}
	}

	return Result{}
}

// resolveTarget prefers a child of the rule's parent, so leaves that share
// a name under different roots resolve to the right one.
func resolveTarget(table *LookupTable, parentID, target string) (string, bool) {
	if parentID != "" {
		if id, ok := table.Child(parentID, target); ok {
			return id, true
		}
	}
	return table.Ref(target)
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func sortedAliasKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
