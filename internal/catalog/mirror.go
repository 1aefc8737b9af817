package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/internal/storage"
)

type MirrorStats struct {
	Categories int
	Products   int
}

// Mirror replaces the categories and products held by dst with those of
// src. It is meant for refreshing the local SQLite copy from the hosted
// store before running tools against it with -local.
func Mirror(ctx context.Context, src, dst storage.Store, batchSize int) (MirrorStats, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	var stats MirrorStats

	categories, err := LoadCategories(ctx, src)
	if err != nil {
		return stats, err
	}
	products, err := LoadProducts(ctx, src)
	if err != nil {
		return stats, err
	}

	all := storage.Neq("id", storage.ZeroID)
	for _, table := range []string{storage.TableOrderItems, storage.TableProducts, storage.TableCategories} {
		if err := dst.Delete(ctx, table, all); err != nil {
			return stats, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Roots first so parent_id always points at an existing row.
	ordered := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.IsRoot() {
			ordered = append(ordered, c)
		}
	}
	for _, c := range categories {
		if !c.IsRoot() {
			ordered = append(ordered, c)
		}
	}

	if err := insertBatches(ctx, dst, storage.TableCategories, ordered, batchSize); err != nil {
		return stats, err
	}
	stats.Categories = len(ordered)

	if err := insertBatches(ctx, dst, storage.TableProducts, products, batchSize); err != nil {
		return stats, err
	}
	stats.Products = len(products)

	log.Info().Int("categories", stats.Categories).Int("products", stats.Products).Msg("mirror complete")
	return stats, nil
}

func insertBatches[T any](ctx context.Context, store storage.Store, table string, rows []T, batchSize int) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := store.Insert(ctx, table, rows[start:end]); err != nil {
			return fmt.Errorf("failed to insert %s rows %d-%d: %w", table, start, end, err)
		}
	}
	return nil
}
