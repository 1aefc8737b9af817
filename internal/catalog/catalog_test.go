package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venthub/catalog-tools/internal/storage"
)

func intPtr(i int) *int { return &i }

func sampleCategories() []Category {
	return []Category{
		{ID: "a", Name: "Hava Perdeleri", Level: intPtr(0)},
		{ID: "b", Name: "Ortam Havalı", ParentID: StringPtr("a"), Level: intPtr(1)},
		{ID: "c", Name: "Elektrikli Isıtıcılı", ParentID: StringPtr("a"), Level: intPtr(1)},
		{ID: "d", Name: "Aksesuarlar", Level: intPtr(0)},
	}
}

func TestCategoryTree(t *testing.T) {
	tree := BuildCategoryTree(sampleCategories())

	assert.Equal(t, 4, tree.Len())
	roots := tree.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "Aksesuarlar", roots[0].Name)
	assert.Equal(t, "Hava Perdeleri", roots[1].Name)

	children := tree.Children("a")
	require.Len(t, children, 2)
	assert.Equal(t, "Elektrikli Isıtıcılı", children[0].Name)

	assert.True(t, tree.IsLeaf("b"))
	assert.False(t, tree.IsLeaf("a"))
	assert.Equal(t, "Hava Perdeleri > Ortam Havalı", tree.Path("b"))

	c, ok := tree.Get("c")
	assert.True(t, ok)
	assert.False(t, c.IsRoot())
	_, ok = tree.Get("missing")
	assert.False(t, ok)
}

func TestCategoryTree_Violations(t *testing.T) {
	categories := append(sampleCategories(),
		Category{ID: "e", Name: "Orphan", ParentID: StringPtr("gone"), Level: intPtr(1)},
		Category{ID: "f", Name: "Deep", ParentID: StringPtr("b"), Level: intPtr(2)},
		Category{ID: "g", Name: "Unlevelled"},
	)
	tree := BuildCategoryTree(categories)

	var problems []string
	for _, v := range tree.Violations() {
		problems = append(problems, v.String())
	}
	assert.Equal(t, []string{
		"Deep (f): leaf has level 2",
		"Deep (f): parent Ortam Havalı is not a root",
		"Orphan (e): parent gone does not exist",
		"Unlevelled (g): level is not set",
	}, problems)

	assert.Empty(t, BuildCategoryTree(sampleCategories()).Violations())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.234,56 TL", 1234.56},
		{"₺899,90", 899.90},
		{"12.500 TL", 12500},
		{"1234.56", 0},
		{"Fiyat sorunuz", 0},
		{"TL", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePrice(tt.in), tt.in)
	}
}

func TestIsImportable(t *testing.T) {
	assert.True(t, IsImportable("AHP-200 Hava Perdesi"))
	assert.False(t, IsImportable("   "))
	assert.False(t, IsImportable("info@example.com"))
}

func TestSKUSequence(t *testing.T) {
	seq := NewSKUSequence(0)
	assert.Equal(t, "AVE-HAV-00001", seq.Next("Hava Perdesi", "AVenS"))
	assert.Equal(t, "AVN-AHP-00002", seq.Next("ahp-200", ""))
	assert.Equal(t, "AVN-20H-00003", seq.Next("20 Hava", "123"))
	assert.Equal(t, 3, seq.Last())

	seq = NewSKUSequence(41)
	sku := seq.Next("Fan", "Vortice")
	assert.Equal(t, "VOR-FAN-00042", sku)
	assert.True(t, ValidSKU(sku))

	n, ok := SKUCounter(sku)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = SKUCounter("AVN-FAN-12")
	assert.False(t, ok)
	assert.False(t, ValidSKU("avn-fan-00001"))
}

func TestScrapedFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scraped.json")
	in := []ScrapedProduct{{Name: "AHP-200", Category: "Hava Perdeleri", Price: "1.000 TL", URL: "https://example.com/p/1"}}

	require.NoError(t, SaveScrapedFile(path, in))
	out, err := LoadScrapedFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = LoadScrapedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadCategoriesAndProducts(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Insert(ctx, storage.TableCategories, sampleCategories()))
	require.NoError(t, store.Insert(ctx, storage.TableProducts, []NewProduct{
		{Name: "AHP-200", Brand: DefaultBrand, CategoryID: "b", Status: StatusActive},
		{Name: "Filtre", Brand: DefaultBrand, CategoryID: "d", Status: "draft"},
	}))

	categories, err := LoadCategories(ctx, store)
	require.NoError(t, err)
	require.Len(t, categories, 4)
	assert.Equal(t, "Aksesuarlar", categories[0].Name)
	assert.Equal(t, 1, *categories[3].Level)

	products, err := LoadProducts(ctx, store, storage.Eq("status", StatusActive))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "b", Deref(products[0].CategoryID))
	assert.Nil(t, products[0].SubcategoryID)
}
