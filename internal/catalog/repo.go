package catalog

import (
	"context"
	"fmt"

	"github.com/venthub/catalog-tools/internal/storage"
)

var categoryColumns = []string{"id", "name", "slug", "parent_id", "level", "description"}

var productColumns = []string{
	"id", "name", "brand", "price", "sku", "category_id", "subcategory_id",
	"status", "description", "stock_qty",
}

// LoadCategories reads every category row ordered by name.
func LoadCategories(ctx context.Context, store storage.Store) ([]Category, error) {
	var categories []Category
	err := store.Select(ctx, storage.TableCategories, &categories, storage.Query{
		Columns: categoryColumns,
		Order:   []storage.Order{{Column: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// LoadProducts reads the product rows matching filters, all of them when no
// filter is given.
func LoadProducts(ctx context.Context, store storage.Store, filters ...storage.Filter) ([]Product, error) {
	var products []Product
	err := store.Select(ctx, storage.TableProducts, &products, storage.Query{
		Columns: productColumns,
		Filters: filters,
		Order:   []storage.Order{{Column: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}
