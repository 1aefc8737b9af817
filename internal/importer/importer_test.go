package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/resolver"
	"github.com/venthub/catalog-tools/internal/storage"
)

func testCategories() []catalog.Category {
	return []catalog.Category{
		{ID: "hp", Name: "Hava Perdeleri"},
		{ID: "hp-e", Name: "Elektrikli Isıtıcılı", ParentID: catalog.StringPtr("hp")},
		{ID: "hp-o", Name: "Ortam Havalı", ParentID: catalog.StringPtr("hp")},
		{ID: "nem", Name: "Nem Alma Cihazları"},
	}
}

func newResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	rules, err := resolver.DefaultRules()
	require.NoError(t, err)
	return resolver.New(resolver.NewLookupTable(testCategories()), rules)
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func scraped() []catalog.ScrapedProduct {
	return []catalog.ScrapedProduct{
		{Name: "AHP-200 Elektrikli Hava Perdesi", Category: "Hava Perdeleri", Price: "12.500,00 TL"},
		{Name: "AHP-100 Hava Perdesi", Category: "Hava Perdeleri", Brand: "Vortice"},
		{Name: "Nemsan 50", Category: "Nem Alma Cihazları", Price: "Teklif isteyiniz"},
		{Name: "satis@avensair.com", Category: "Hava Perdeleri"},
		{Name: "  ", Category: "Hava Perdeleri"},
		{Name: "Bilinmeyen Ürün", Category: "Diğer", URL: "https://example.com/p/9"},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	im := New(store, newResolver(t), Options{})
	stats, err := im.Run(ctx, scraped())
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 3, stats.Imported)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, map[string]int{
		"Elektrikli Isıtıcılı": 1,
		"Ortam Havalı":         1,
		"Nem Alma Cihazları":   1,
	}, stats.ByCategory)
	assert.Equal(t, []Unresolved{{Name: "Bilinmeyen Ürün", Category: "Diğer", URL: "https://example.com/p/9"}}, stats.Unresolved)

	products, err := catalog.LoadProducts(ctx, store)
	require.NoError(t, err)
	require.Len(t, products, 3)

	byName := map[string]catalog.Product{}
	for _, p := range products {
		byName[p.Name] = p
	}

	p := byName["AHP-200 Elektrikli Hava Perdesi"]
	assert.Equal(t, "hp-e", catalog.Deref(p.CategoryID))
	assert.Nil(t, p.SubcategoryID)
	assert.Equal(t, 12500.0, p.Price)
	assert.Equal(t, "AVE-AHP-00001", p.SKU)
	assert.Equal(t, catalog.DefaultBrand, p.Brand)
	assert.Equal(t, catalog.StatusActive, p.Status)

	p = byName["AHP-100 Hava Perdesi"]
	assert.Equal(t, "hp-o", catalog.Deref(p.CategoryID))
	assert.Equal(t, "VOR-AHP-00002", p.SKU)

	p = byName["Nemsan 50"]
	assert.Equal(t, 0.0, p.Price)
}

func TestRun_SplitLeaf(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	im := New(store, newResolver(t), Options{SplitLeaf: true})
	_, err := im.Run(ctx, scraped()[:3])
	require.NoError(t, err)

	products, err := catalog.LoadProducts(ctx, store, storage.Eq("name", "AHP-200 Elektrikli Hava Perdesi"))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "hp", catalog.Deref(products[0].CategoryID))
	assert.Equal(t, "hp-e", catalog.Deref(products[0].SubcategoryID))

	products, err = catalog.LoadProducts(ctx, store, storage.Eq("name", "Nemsan 50"))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "nem", catalog.Deref(products[0].CategoryID))
	assert.Nil(t, products[0].SubcategoryID)
}

func TestRun_Wipe(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Insert(ctx, storage.TableProducts, []map[string]any{{"name": "old"}}))
	require.NoError(t, store.Insert(ctx, storage.TableOrderItems, []map[string]any{{"quantity": 1}}))

	_, err := New(store, newResolver(t), Options{Wipe: true}).Run(ctx, scraped()[:1])
	require.NoError(t, err)

	n, err := store.Count(ctx, storage.TableProducts)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = store.Count(ctx, storage.TableOrderItems)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRun_DryRun(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Insert(ctx, storage.TableProducts, []map[string]any{{"name": "old"}}))

	stats, err := New(store, newResolver(t), Options{DryRun: true, Wipe: true}).Run(ctx, scraped())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Imported)

	n, err := store.Count(ctx, storage.TableProducts)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type flakyStore struct {
	storage.Store
	inserts   int
	batchSize []int
	failOn    int
	deleteErr error
}

func (f *flakyStore) Insert(ctx context.Context, table string, rows any) error {
	f.inserts++
	f.batchSize = append(f.batchSize, len(rows.([]catalog.NewProduct)))
	if f.inserts == f.failOn {
		return errors.New("insert failed")
	}
	return nil
}

func (f *flakyStore) Delete(ctx context.Context, table string, filters ...storage.Filter) error {
	if table == storage.TableProducts {
		return f.deleteErr
	}
	return errors.New("order items unavailable")
}

func TestRun_Batches(t *testing.T) {
	var products []catalog.ScrapedProduct
	for i := 0; i < 120; i++ {
		products = append(products, catalog.ScrapedProduct{Name: fmt.Sprintf("Hava Perdesi %d", i), Category: "Hava Perdeleri"})
	}

	store := &flakyStore{failOn: 2}
	stats, err := New(store, newResolver(t), Options{Wipe: true}).Run(context.Background(), products)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 50, 20}, store.batchSize)
	assert.Equal(t, 120, stats.Total)
	assert.Equal(t, 70, stats.Imported)
	assert.Equal(t, 50, stats.Errors)
	assert.Equal(t, 120, stats.ByTier[resolver.TierKeywordDefault])
}

func TestRun_WipeFailureAborts(t *testing.T) {
	store := &flakyStore{deleteErr: errors.New("permission denied")}
	_, err := New(store, newResolver(t), Options{Wipe: true}).Run(context.Background(), scraped())
	require.Error(t, err)
	assert.Equal(t, 0, store.inserts)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unresolved.xlsx")
	err := WriteReport(path, []Unresolved{{Name: "Bilinmeyen", Category: "Diğer", URL: "https://example.com"}})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Category", "Subcategory", "URL"},
		{"Bilinmeyen", "Diğer", "", "https://example.com"},
	}, rows)
}
