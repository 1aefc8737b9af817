package repair

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/internal/storage"
)

// CategoryUsage counts what still points at a category.
type CategoryUsage struct {
	CategoryID string
	Products   int // rows with the id in category_id or subcategory_id
	Children   int
}

func (u CategoryUsage) InUse() bool {
	return u.Products > 0 || u.Children > 0
}

// CheckUsage counts the products and child categories referencing each id.
func CheckUsage(ctx context.Context, store storage.Store, ids []string) ([]CategoryUsage, error) {
	usage := make([]CategoryUsage, 0, len(ids))
	for _, id := range ids {
		u := CategoryUsage{CategoryID: id}
		for _, column := range []string{"category_id", "subcategory_id"} {
			n, err := store.Count(ctx, storage.TableProducts, storage.Eq(column, id))
			if err != nil {
				return nil, fmt.Errorf("failed to count products for %s: %w", id, err)
			}
			u.Products += n
		}
		n, err := store.Count(ctx, storage.TableCategories, storage.Eq("parent_id", id))
		if err != nil {
			return nil, fmt.Errorf("failed to count children of %s: %w", id, err)
		}
		u.Children = n
		usage = append(usage, u)
	}
	return usage, nil
}

// DeleteCategories removes the categories in ids. Nothing is deleted when
// any of them is still referenced; the returned usage lists the blockers.
func DeleteCategories(ctx context.Context, store storage.Store, ids []string) ([]CategoryUsage, error) {
	usage, err := CheckUsage(ctx, store, ids)
	if err != nil {
		return nil, err
	}

	var blocked []CategoryUsage
	for _, u := range usage {
		if u.InUse() {
			blocked = append(blocked, u)
		}
	}
	if len(blocked) > 0 {
		return blocked, nil
	}

	for _, id := range ids {
		if err := store.Delete(ctx, storage.TableCategories, storage.Eq("id", id)); err != nil {
			return nil, fmt.Errorf("failed to delete category %s: %w", id, err)
		}
		log.Info().Str("categoryID", id).Msg("category deleted")
	}
	return nil, nil
}
