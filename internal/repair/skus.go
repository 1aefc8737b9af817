package repair

import "github.com/venthub/catalog-tools/internal/catalog"

type SKUChange struct {
	ProductID string
	Name      string
	Old       string
	New       string
}

// PlanSKUs reassigns SKUs that are malformed or already used by an earlier
// product. New SKUs continue after the highest existing counter.
func PlanSKUs(products []catalog.Product) []SKUChange {
	seq := catalog.NewSKUSequence(catalog.MaxSKUCounter(products))
	seen := make(map[string]bool, len(products))

	var changes []SKUChange
	for _, p := range products {
		if catalog.ValidSKU(p.SKU) && !seen[p.SKU] {
			seen[p.SKU] = true
			continue
		}
		brand := p.Brand
		if brand == "" {
			brand = catalog.DefaultBrand
		}
		sku := seq.Next(p.Name, brand)
		seen[sku] = true
		changes = append(changes, SKUChange{ProductID: p.ID, Name: p.Name, Old: p.SKU, New: sku})
	}
	return changes
}
