// Package importer loads scraped products into the products table.
package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/resolver"
	"github.com/venthub/catalog-tools/internal/storage"
)

const DefaultBatchSize = 50

type Options struct {
	// Wipe deletes every order item and product before importing.
	Wipe bool
	// SplitLeaf writes a product resolved to a leaf as (parent, leaf)
	// instead of putting the leaf id in category_id.
	SplitLeaf bool
	BatchSize int
	// DryRun resolves and counts without writing.
	DryRun bool
	// SKUStart is the counter the first generated SKU follows.
	SKUStart int
}

// Unresolved is a scraped product no category could be found for.
type Unresolved struct {
	Name        string
	Category    string
	Subcategory string
	URL         string
}

// Stats is the tally of one import run.
type Stats struct {
	Total      int
	Imported   int
	Skipped    int
	Errors     int
	ByCategory map[string]int
	ByTier     map[resolver.Tier]int
	Unresolved []Unresolved
}

// Log writes the run summary.
func (s *Stats) Log() {
	log.Info().
		Int("total", s.Total).
		Int("imported", s.Imported).
		Int("skipped", s.Skipped).
		Int("errors", s.Errors).
		Int("unresolved", len(s.Unresolved)).
		Msg("import finished")

	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByCategory[names[i]] != s.ByCategory[names[j]] {
			return s.ByCategory[names[i]] > s.ByCategory[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		log.Info().Str("category", name).Int("products", s.ByCategory[name]).Msg("category distribution")
	}
}

type Importer struct {
	store    storage.Store
	resolver *resolver.Resolver
	opts     Options
	skus     *catalog.SKUSequence
}

func New(store storage.Store, res *resolver.Resolver, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Importer{
		store:    store,
		resolver: res,
		opts:     opts,
		skus:     catalog.NewSKUSequence(opts.SKUStart),
	}
}

// Run imports products. Only a failure to wipe existing products aborts the
// run; failed batches are counted in Stats.Errors.
func (im *Importer) Run(ctx context.Context, products []catalog.ScrapedProduct) (*Stats, error) {
	stats := &Stats{
		ByCategory: make(map[string]int),
		ByTier:     make(map[resolver.Tier]int),
	}

	if im.opts.Wipe && !im.opts.DryRun {
		if err := im.wipe(ctx); err != nil {
			return stats, err
		}
	}

	table := im.resolver.Table()
	var batch []catalog.NewProduct
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if im.opts.DryRun {
			stats.Imported += len(batch)
		} else if err := im.store.Insert(ctx, storage.TableProducts, batch); err != nil {
			stats.Errors += len(batch)
			log.Error().Err(err).Int("batchSize", len(batch)).Msg("failed to insert batch")
		} else {
			stats.Imported += len(batch)
			log.Info().Int("imported", stats.Imported).Msg("batch inserted")
		}
		batch = nil
	}

	for _, sp := range products {
		if ctx.Err() != nil {
			break
		}
		stats.Total++

		name := strings.TrimSpace(sp.Name)
		if !catalog.IsImportable(name) {
			stats.Skipped++
			continue
		}

		res := im.resolver.Resolve(resolver.Input{
			Name:        name,
			Category:    strings.TrimSpace(sp.Category),
			Subcategory: strings.TrimSpace(sp.Subcategory),
		})
		if !res.Resolved() {
			log.Warn().Str("product", name).Str("category", sp.Category).Str("subcategory", sp.Subcategory).Msg("category not found")
			stats.Skipped++
			stats.Unresolved = append(stats.Unresolved, Unresolved{
				Name:        name,
				Category:    sp.Category,
				Subcategory: sp.Subcategory,
				URL:         sp.URL,
			})
			continue
		}
		stats.ByTier[res.Tier]++

		row := im.newRow(name, sp, res.CategoryID, table)
		if c, ok := table.Category(res.CategoryID); ok {
			stats.ByCategory[c.Name]++
		}
		batch = append(batch, row)
		if len(batch) >= im.opts.BatchSize {
			flush()
		}
	}
	flush()

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("import interrupted: %w", err)
	}
	return stats, nil
}

func (im *Importer) newRow(name string, sp catalog.ScrapedProduct, categoryID string, table *resolver.LookupTable) catalog.NewProduct {
	brand := strings.TrimSpace(sp.Brand)
	if brand == "" {
		brand = catalog.DefaultBrand
	}
	description := strings.TrimSpace(sp.Description)
	if description == "" {
		description = name
	}

	row := catalog.NewProduct{
		Name:        name,
		Brand:       brand,
		CategoryID:  categoryID,
		Price:       catalog.ParsePrice(sp.Price),
		SKU:         im.skus.Next(name, brand),
		Description: description,
		Status:      catalog.StatusActive,
		StockQty:    0,
	}

	if im.opts.SplitLeaf {
		if c, ok := table.Category(categoryID); ok && !c.IsRoot() {
			row.CategoryID = *c.ParentID
			row.SubcategoryID = catalog.StringPtr(c.ID)
		}
	}
	return row
}

// wipe removes order items, which reference products, and then products.
// Failing to clear order items is only a warning.
func (im *Importer) wipe(ctx context.Context) error {
	if err := im.store.Delete(ctx, storage.TableOrderItems, storage.Neq("id", storage.ZeroID)); err != nil {
		log.Warn().Err(err).Msg("failed to delete order items, continuing")
	} else {
		log.Info().Msg("order items deleted")
	}

	if err := im.store.Delete(ctx, storage.TableProducts, storage.Neq("id", storage.ZeroID)); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}
	log.Info().Msg("products deleted")
	return nil
}
