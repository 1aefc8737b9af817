package catalog

import (
	"context"
	"fmt"

	"github.com/venthub/catalog-tools/internal/storage"
)

// Visibility is the number of active products filed under one root as seen
// by the service tier and by the anonymous tier. A gap means row level
// security hides products from customers.
type Visibility struct {
	CategoryID string
	Name       string
	Service    int
	Anon       int
}

func (v Visibility) Hidden() int {
	return v.Service - v.Anon
}

// CompareVisibility counts active products per root category in both
// stores. The first row, with an empty CategoryID, is the overall total.
// A root's count includes products whose category_id is one of its leaves.
func CompareVisibility(ctx context.Context, service, anon storage.Store, categories []Category) ([]Visibility, error) {
	active := storage.Eq("status", StatusActive)

	total := Visibility{Name: "Toplam"}
	var err error
	if total.Service, err = service.Count(ctx, storage.TableProducts, active); err != nil {
		return nil, fmt.Errorf("failed to count products with service key: %w", err)
	}
	if total.Anon, err = anon.Count(ctx, storage.TableProducts, active); err != nil {
		return nil, fmt.Errorf("failed to count products with anon key: %w", err)
	}
	rows := []Visibility{total}

	tree := BuildCategoryTree(categories)
	for _, root := range tree.Roots() {
		ids := []string{root.ID}
		for _, child := range root.Children {
			ids = append(ids, child.ID)
		}

		v := Visibility{CategoryID: root.ID, Name: root.Name}
		for _, id := range ids {
			n, err := service.Count(ctx, storage.TableProducts, active, storage.Eq("category_id", id))
			if err != nil {
				return nil, fmt.Errorf("failed to count %s with service key: %w", root.Name, err)
			}
			v.Service += n
			n, err = anon.Count(ctx, storage.TableProducts, active, storage.Eq("category_id", id))
			if err != nil {
				return nil, fmt.Errorf("failed to count %s with anon key: %w", root.Name, err)
			}
			v.Anon += n
		}
		rows = append(rows, v)
	}
	return rows, nil
}
