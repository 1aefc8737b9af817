package repair

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/resolver"
	"github.com/venthub/catalog-tools/internal/storage"
)

type RemapOptions struct {
	DryRun bool
}

type RemapStats struct {
	Total      int
	Updated    int
	AlreadyOK  int
	NotFound   int
	Unresolved int
	Failed     int
}

// Remap re-resolves scraped products and corrects the category of the
// matching stored product. A stored product matches when its name contains
// the scraped name, ignoring case; the first match in name order is used.
// A leaf is always written as (parent, leaf), so a row fix-hierarchy
// repaired stays repaired.
func Remap(ctx context.Context, store storage.Store, res *resolver.Resolver, scraped []catalog.ScrapedProduct, opts RemapOptions) (RemapStats, error) {
	var stats RemapStats
	table := res.Table()

	for _, sp := range scraped {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("remap interrupted: %w", err)
		}
		name := strings.TrimSpace(sp.Name)
		if !catalog.IsImportable(name) {
			continue
		}
		stats.Total++

		r := res.Resolve(resolver.Input{Name: name, Category: sp.Category, Subcategory: sp.Subcategory})
		if !r.Resolved() {
			stats.Unresolved++
			log.Warn().Str("product", name).Str("category", sp.Category).Msg("category not found")
			continue
		}
		want := Update{Name: name, CategoryID: r.CategoryID}
		if c, ok := table.Category(r.CategoryID); ok && !c.IsRoot() {
			want.CategoryID = *c.ParentID
			want.SubcategoryID = catalog.StringPtr(c.ID)
		}

		var found []catalog.Product
		err := store.Select(ctx, storage.TableProducts, &found, storage.Query{
			Columns: productColumns,
			Filters: []storage.Filter{storage.ILike("name", "%"+storage.EscapeLike(name)+"%")},
			Order:   []storage.Order{{Column: "name"}},
			Limit:   1,
		})
		if err != nil {
			stats.Failed++
			log.Error().Err(err).Str("product", name).Msg("failed to look up product")
			continue
		}
		if len(found) == 0 {
			stats.NotFound++
			log.Debug().Str("product", name).Msg("product not in store")
			continue
		}
		p := found[0]
		want.ProductID = p.ID

		if placed(table, p, want) {
			stats.AlreadyOK++
			continue
		}

		log.Info().
			Str("product", p.Name).
			Str("from", catalog.Deref(p.CategoryID)).
			Str("to", want.CategoryID).
			Str("toSubcategory", catalog.Deref(want.SubcategoryID)).
			Str("tier", r.Tier.String()).
			Bool("dryRun", opts.DryRun).
			Msg("remapping product")
		if opts.DryRun {
			stats.Updated++
			continue
		}

		if err := store.Update(ctx, storage.TableProducts, want.Patch(), storage.Eq("id", p.ID)); err != nil {
			stats.Failed++
			log.Error().Err(err).Str("product", p.Name).Msg("failed to update product")
			continue
		}
		stats.Updated++
	}
	return stats, nil
}

// placed reports whether p already sits where want puts it. When the
// resolver only got as far as a root, a valid leaf under that root is kept.
func placed(table *resolver.LookupTable, p catalog.Product, want Update) bool {
	if catalog.Deref(p.CategoryID) != want.CategoryID {
		return false
	}
	if want.SubcategoryID != nil {
		return catalog.Deref(p.SubcategoryID) == *want.SubcategoryID
	}
	if p.SubcategoryID == nil {
		return true
	}
	c, ok := table.Category(*p.SubcategoryID)
	return ok && catalog.Deref(c.ParentID) == want.CategoryID
}

var productColumns = []string{"id", "name", "brand", "sku", "category_id", "subcategory_id"}
