package resolver

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/venthub/catalog-tools/internal/catalog"
)

//go:embed rules.json
var defaultRules []byte

// Rule sends products whose name contains any of Keywords to Target, a
// category name or id.
type Rule struct {
	Target   string   `json:"target"`
	Keywords []string `json:"keywords"`
}

// ParentRules holds the ordered rules for one parent category. The parent
// is recognized when the scraped category contains one of Labels or the
// product name contains one of NameHints.
type ParentRules struct {
	Parent    string   `json:"parent"`
	Labels    []string `json:"labels"`
	NameHints []string `json:"name_hints"`
	Default   string   `json:"default"`
	Rules     []Rule   `json:"rules"`
}

// RuleSet is the keyword and alias configuration of the resolver. Parents
// and their rules are evaluated in the order they are written.
type RuleSet struct {
	Aliases map[string]string `json:"aliases"`
	Parents []ParentRules     `json:"parents"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() (*RuleSet, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads a rule set from path, or returns the built-in rules when
// path is empty.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// ParseRules decodes and validates a rule set. Keywords, labels, hints and
// alias keys are folded so they compare against folded input.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	var errs []error
	for i := range rs.Parents {
		p := &rs.Parents[i]
		if p.Parent == "" {
			errs = append(errs, fmt.Errorf("parents[%d]: parent is required", i))
		}
		p.Labels = foldAll(p.Labels)
		p.NameHints = foldAll(p.NameHints)
		if len(p.Labels) == 0 && len(p.NameHints) == 0 {
			errs = append(errs, fmt.Errorf("parents[%d] %q: needs at least one label or name hint", i, p.Parent))
		}
		for j := range p.Rules {
			r := &p.Rules[j]
			if r.Target == "" {
				errs = append(errs, fmt.Errorf("parents[%d] %q rules[%d]: target is required", i, p.Parent, j))
			}
			r.Keywords = foldAll(r.Keywords)
			if len(r.Keywords) == 0 {
				errs = append(errs, fmt.Errorf("parents[%d] %q rules[%d]: needs at least one keyword", i, p.Parent, j))
			}
		}
	}

	aliases := make(map[string]string, len(rs.Aliases))
	for k, v := range rs.Aliases {
		key := catalog.Fold(k)
		if key == "" || v == "" {
			errs = append(errs, fmt.Errorf("alias %q: key and target are required", k))
			continue
		}
		aliases[key] = v
	}
	rs.Aliases = aliases

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return &rs, nil
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := catalog.Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Validate reports rule, default and alias targets that are missing from
// table. Missing targets are not fatal; resolution skips them.
func (rs *RuleSet) Validate(table *LookupTable) []string {
	var warnings []string
	for _, p := range rs.Parents {
		parentID, ok := table.Ref(p.Parent)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("parent category %q not found", p.Parent))
		}
		check := func(kind, target string) {
			if _, ok := resolveTarget(table, parentID, target); !ok {
				warnings = append(warnings, fmt.Sprintf("%s %q of %q not found", kind, target, p.Parent))
			}
		}
		for _, r := range p.Rules {
			check("rule target", r.Target)
		}
		if p.Default != "" {
			check("default", p.Default)
		}
	}

	for _, key := range sortedAliasKeys(rs.Aliases) {
		if _, ok := table.Ref(rs.Aliases[key]); !ok {
			warnings = append(warnings, fmt.Sprintf("alias %q target %q not found", key, rs.Aliases[key]))
		}
	}
	return warnings
}
