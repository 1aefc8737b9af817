// Package repair normalizes product category assignments to the two-level
// form: category_id names a root and subcategory_id, when set, names one of
// that root's children.
package repair

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/storage"
)

const DefaultBatchSize = 50

// Update is the corrected assignment for one product.
type Update struct {
	ProductID     string
	Name          string
	CategoryID    string
	SubcategoryID *string
}

// Patch returns the column changes for the products table.
func (u Update) Patch() map[string]any {
	var sub any
	if u.SubcategoryID != nil {
		sub = *u.SubcategoryID
	}
	return map[string]any{
		"category_id":    u.CategoryID,
		"subcategory_id": sub,
	}
}

type Stats struct {
	Total           int
	AlreadyOK       int
	Moved           int // leaf in category_id moved under its parent
	Cleared         int // stray subcategory_id cleared
	NoCategory      int
	MissingCategory int
}

type Plan struct {
	Updates []Update
	Stats   Stats
}

// PlanProduct returns the update for a single product, or false when the
// product needs no change or cannot be repaired.
func PlanProduct(p catalog.Product, categories map[string]catalog.Category) (Update, bool) {
	u, _, ok := planProduct(p, categories)
	return u, ok
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeMoved
	outcomeCleared
	outcomeNoCategory
	outcomeMissingCategory
)

func planProduct(p catalog.Product, categories map[string]catalog.Category) (Update, outcome, bool) {
	if p.CategoryID == nil || *p.CategoryID == "" {
		return Update{}, outcomeNoCategory, false
	}
	c, ok := categories[*p.CategoryID]
	if !ok {
		return Update{}, outcomeMissingCategory, false
	}

	if !c.IsRoot() {
		return Update{
			ProductID:     p.ID,
			Name:          p.Name,
			CategoryID:    *c.ParentID,
			SubcategoryID: catalog.StringPtr(c.ID),
		}, outcomeMoved, true
	}

	if p.SubcategoryID != nil {
		sub, ok := categories[*p.SubcategoryID]
		if !ok || sub.IsRoot() || *sub.ParentID != c.ID {
			return Update{
				ProductID:  p.ID,
				Name:       p.Name,
				CategoryID: c.ID,
			}, outcomeCleared, true
		}
	}

	return Update{}, outcomeOK, false
}

// Build computes the updates needed to bring every product into two-level
// form. It does not touch the store.
func Build(products []catalog.Product, categories []catalog.Category) Plan {
	byID := make(map[string]catalog.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	var plan Plan
	for _, p := range products {
		plan.Stats.Total++
		u, result, ok := planProduct(p, byID)
		switch result {
		case outcomeOK:
			plan.Stats.AlreadyOK++
		case outcomeMoved:
			plan.Stats.Moved++
		case outcomeCleared:
			plan.Stats.Cleared++
		case outcomeNoCategory:
			plan.Stats.NoCategory++
		case outcomeMissingCategory:
			plan.Stats.MissingCategory++
			log.Warn().
				Str("product", p.Name).
				Str("categoryID", catalog.Deref(p.CategoryID)).
				Msg("product references a category that does not exist")
		}
		if ok {
			plan.Updates = append(plan.Updates, u)
		}
	}
	return plan
}

// ApplyStats counts the writes performed by Apply.
type ApplyStats struct {
	Updated int
	Failed  int
}

// Landed reports whether the run changed anything or had nothing to fail.
// A run where every write failed did not land.
func (s ApplyStats) Landed() bool {
	return s.Updated > 0 || s.Failed == 0
}

// Apply writes each update keyed by product id. A failing update is logged
// and counted; the rest still run. Progress is logged once per batch.
func Apply(ctx context.Context, store storage.Store, plan Plan, batchSize int) (ApplyStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var stats ApplyStats
	for start := 0; start < len(plan.Updates); start += batchSize {
		end := min(start+batchSize, len(plan.Updates))
		for _, u := range plan.Updates[start:end] {
			if err := ctx.Err(); err != nil {
				return stats, fmt.Errorf("repair interrupted: %w", err)
			}
			err := store.Update(ctx, storage.TableProducts, u.Patch(), storage.Eq("id", u.ProductID))
			if err != nil {
				stats.Failed++
				log.Error().Err(err).Str("product", u.Name).Str("productID", u.ProductID).Msg("failed to update product")
				continue
			}
			stats.Updated++
		}
		log.Info().
			Int("batch", start/batchSize+1).
			Int("done", end).
			Int("total", len(plan.Updates)).
			Msg("repair progress")
	}
	return stats, nil
}
