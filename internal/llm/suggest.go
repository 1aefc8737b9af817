// Package llm asks a language model to place products the keyword resolver
// could not. Suggestions are advisory and never written to the store.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// Product is what the model sees of an unresolved product.
type Product struct {
	Name        string
	Category    string
	Subcategory string
	Description string
}

// Candidate is a category the model may choose, shown as a breadcrumb path.
type Candidate struct {
	ID   string
	Path string
}

// Suggester picks a category for a product. An empty id with a nil error
// means no candidate fits.
type Suggester interface {
	Suggest(ctx context.Context, p Product, candidates []Candidate) (string, error)
}

func sprintf(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

func buildPrompt(p Product, candidates []Candidate) string {
	var lines []string
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("- ID: %s, Kategori: %s", c.ID, c.Path))
	}
	return sprintf(`
		Select the most appropriate category for this HVAC product from the list below.
		Product names and category labels are Turkish.

		Product Name: %s
		Scraped Category: %s
		Scraped Subcategory: %s
		Description: %s

		Available Categories:
		%s

		Respond with a JSON object containing the "category_id" of the best match.
		If NONE of the categories are appropriate, respond with {"category_id": ""}.
		Example: {"category_id": "3f6c2a9e-0d1b-4c55-9a51-2b1f8e7d6c40"}

		Respond ONLY with the JSON object.`,
		p.Name, p.Category, p.Subcategory, truncate(p.Description, 300), strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
