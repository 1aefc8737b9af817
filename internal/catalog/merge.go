package catalog

import (
	"strings"
)

// BrandGuess assigns a category to products of one brand that a previous
// scrape did not cover. Rules are checked in order against the folded
// product name; Default applies when none matches.
type BrandGuess struct {
	Brand   string // matched against the folded name and the URL
	Rules   []GuessRule
	Default string
}

type GuessRule struct {
	Keywords []string
	Category string
}

// DefaultBrandGuesses is the fallback table for products absent from the
// older, categorized scrape.
var DefaultBrandGuesses = []BrandGuess{
	{Brand: "casals", Default: "Santrifüj Fanlar"},
	{
		Brand: "vortice",
		Rules: []GuessRule{
			{Keywords: []string{"quadro", "me ", "punto"}, Category: "Konut Tipi Fanlar"},
			{Keywords: []string{"lineo"}, Category: "Kanal Tipi Fanlar"},
			{Keywords: []string{"nord", "ca "}, Category: "Çatı Tipi Fanlar"},
		},
		Default: "Konut Tipi Fanlar",
	},
	{Brand: "enkelfan", Default: "Kanal Tipi Fanlar"},
}

// MergeStats counts how each product of a merge got its category.
type MergeStats struct {
	Total   int
	Matched int
	Guessed int
	Generic int
}

// MergeScraped returns current with categories filled in. A product whose
// name, ignoring case, appears in previous takes that record's category and
// subcategory. The rest are guessed from guesses, or filed under
// FallbackCategory.
func MergeScraped(previous, current []ScrapedProduct, guesses []BrandGuess) ([]ScrapedProduct, MergeStats) {
	known := make(map[string]ScrapedProduct, len(previous))
	for _, p := range previous {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if _, ok := known[key]; !ok && p.Category != "" {
			known[key] = p
		}
	}

	var stats MergeStats
	merged := make([]ScrapedProduct, 0, len(current))
	for _, p := range current {
		stats.Total++
		if old, ok := known[strings.ToLower(strings.TrimSpace(p.Name))]; ok {
			p.Category = old.Category
			p.Subcategory = old.Subcategory
			stats.Matched++
		} else if category := GuessCategory(p, guesses); category != "" {
			p.Category = category
			p.Subcategory = ""
			stats.Guessed++
		} else {
			p.Category = FallbackCategory
			p.Subcategory = ""
			stats.Generic++
		}
		merged = append(merged, p)
	}
	return merged, stats
}

// GuessCategory returns the category guessed for p, or "".
func GuessCategory(p ScrapedProduct, guesses []BrandGuess) string {
	name := Fold(p.Name) + " "
	url := strings.ToLower(p.URL)
	for _, g := range guesses {
		if !strings.Contains(name, g.Brand) && !strings.Contains(url, g.Brand) {
			continue
		}
		for _, r := range g.Rules {
			for _, kw := range r.Keywords {
				if strings.Contains(name, kw) {
					return r.Category
				}
			}
		}
		return g.Default
	}
	return ""
}
