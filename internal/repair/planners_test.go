package repair

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/resolver"
	"github.com/venthub/catalog-tools/internal/storage"
)

func airCurtainRules() resolver.ParentRules {
	return resolver.ParentRules{
		Parent: "Air Curtains",
		Labels: []string{"air curtain"},
		Rules: []resolver.Rule{
			{Target: "Electrically Heated", Keywords: []string{"electric", "heater"}},
			{Target: "Ambient Air", Keywords: []string{"ambient"}},
		},
	}
}

func TestPlanKeywordMoves(t *testing.T) {
	table := resolver.NewLookupTable(categories())
	ps := []catalog.Product{
		{ID: "k1", Name: "AC-100 Electric", CategoryID: str("A")},
		{ID: "k2", Name: "AC-200", Description: "ambient model", CategoryID: str("A")},
		{ID: "k3", Name: "AC-300 heater", CategoryID: str("A"), SubcategoryID: str("C")},
		{ID: "k4", Name: "AC-400", CategoryID: str("A")},
		{ID: "k5", Name: "Clamp electric", CategoryID: str("D")},
		{ID: "k6", Name: "AC-600 electric", CategoryID: str("A"), SubcategoryID: str("E")},
	}

	updates := PlanKeywordMoves(ps, table, airCurtainRules())
	assert.Equal(t, []Update{
		{ProductID: "k1", Name: "AC-100 Electric", CategoryID: "A", SubcategoryID: str("B")},
		{ProductID: "k2", Name: "AC-200", CategoryID: "A", SubcategoryID: str("C")},
		{ProductID: "k6", Name: "AC-600 electric", CategoryID: "A", SubcategoryID: str("B")},
	}, updates)
}

func TestPlanKeywordMoves_UnknownParentOrTarget(t *testing.T) {
	table := resolver.NewLookupTable(categories())
	ps := []catalog.Product{{ID: "k1", Name: "electric", CategoryID: str("A")}}

	rules := airCurtainRules()
	rules.Parent = "Nope"
	assert.Empty(t, PlanKeywordMoves(ps, table, rules))

	rules = airCurtainRules()
	rules.Rules[0].Target = "Clamps" // exists, but under another root
	assert.Empty(t, PlanKeywordMoves(ps, table, rules))
}

func TestPlanSlugs(t *testing.T) {
	cats := []catalog.Category{
		{ID: "r1", Name: "Hava Perdeleri", Slug: "hava-perdeleri"},
		{ID: "r2", Name: "Fanlar", Slug: "old"},
		{ID: "l1", Name: "Aksesuar", Slug: "aksesuar", ParentID: str("r1")},
		{ID: "l2", Name: "Aksesuar", Slug: "aksesuar", ParentID: str("r2")},
		{ID: "l3", Name: "Kanal Tipi", ParentID: str("r2")},
	}

	changes := PlanSlugs(cats)
	assert.Equal(t, []SlugChange{
		{CategoryID: "r2", Name: "Fanlar", Old: "old", New: "fanlar"},
		{CategoryID: "l2", Name: "Aksesuar", Old: "aksesuar", New: "fanlar-aksesuar"},
		{CategoryID: "l3", Name: "Kanal Tipi", Old: "", New: "kanal-tipi"},
	}, changes)

	for _, c := range changes {
		for i := range cats {
			if cats[i].ID == c.CategoryID {
				cats[i].Slug = c.New
			}
		}
	}
	assert.Empty(t, PlanSlugs(cats))
}

func TestPlanSKUs(t *testing.T) {
	ps := []catalog.Product{
		{ID: "s1", Name: "Hava Perdesi", Brand: "AVenS", SKU: "AVE-HAV-00007"},
		{ID: "s2", Name: "Fan", Brand: "Vortice", SKU: "AVE-HAV-00007"},
		{ID: "s3", Name: "Kelepçe", SKU: "bad"},
		{ID: "s4", Name: "Kanal", Brand: "AVenS", SKU: "AVE-KAN-00002"},
	}

	changes := PlanSKUs(ps)
	require.Len(t, changes, 2)
	assert.Equal(t, SKUChange{ProductID: "s2", Name: "Fan", Old: "AVE-HAV-00007", New: "VOR-FAN-00008"}, changes[0])
	assert.Equal(t, "s3", changes[1].ProductID)
	assert.Equal(t, "AVE-KEL-00009", changes[1].New)
}

func seedStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, storage.TableCategories, categories()))
	require.NoError(t, store.Insert(ctx, storage.TableProducts, []catalog.Product{
		{ID: "p1", Name: "AC-100", CategoryID: str("A"), SubcategoryID: str("B")},
		{ID: "p2", Name: "Clamp 20mm", CategoryID: str("D")},
	}))
	return store
}

func TestDeleteCategories(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	require.NoError(t, store.Insert(ctx, storage.TableCategories, []catalog.Category{
		{ID: "X", Name: "Unused"},
	}))

	blocked, err := DeleteCategories(ctx, store, []string{"X", "B", "D"})
	require.NoError(t, err)
	assert.Equal(t, []CategoryUsage{
		{CategoryID: "B", Products: 1},
		{CategoryID: "D", Products: 1, Children: 1},
	}, blocked)

	n, err := store.Count(ctx, storage.TableCategories, storage.Eq("id", "X"))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "nothing is deleted while any category is in use")

	blocked, err = DeleteCategories(ctx, store, []string{"X"})
	require.NoError(t, err)
	assert.Empty(t, blocked)
	n, err = store.Count(ctx, storage.TableCategories, storage.Eq("id", "X"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRemap(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	res := resolver.New(resolver.NewLookupTable(categories()), &resolver.RuleSet{})

	scraped := []catalog.ScrapedProduct{
		{Name: "Clamp", Category: "Air Curtains", Subcategory: "Ambient Air"},
		{Name: "AC-100", Category: "Air Curtains", Subcategory: "Electrically Heated"},
		{Name: "Ghost", Category: "Accessories"},
		{Name: "Mystery", Category: "Unknown"},
		{Name: "info@avensair.com"},
	}

	stats, err := Remap(ctx, store, res, scraped, RemapOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, RemapStats{Total: 4, Updated: 1, AlreadyOK: 1, NotFound: 1, Unresolved: 1}, stats)

	ps, err := catalog.LoadProducts(ctx, store, storage.Eq("id", "p2"))
	require.NoError(t, err)
	assert.Equal(t, "D", *ps[0].CategoryID, "dry run writes nothing")

	stats, err = Remap(ctx, store, res, scraped, RemapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	ps, err = catalog.LoadProducts(ctx, store, storage.Eq("id", "p2"))
	require.NoError(t, err)
	assert.Equal(t, "A", *ps[0].CategoryID)
	assert.Equal(t, "C", *ps[0].SubcategoryID)
}

func TestRemap_KeepsRepairedRows(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	require.NoError(t, store.Insert(ctx, storage.TableProducts, []catalog.Product{
		{ID: "p3", Name: "AC-300", CategoryID: str("B"), SubcategoryID: str("B")},
		{ID: "p4", Name: "AC-400", CategoryID: str("A"), SubcategoryID: str("C")},
	}))
	res := resolver.New(resolver.NewLookupTable(categories()), &resolver.RuleSet{})

	stats, err := Remap(ctx, store, res, []catalog.ScrapedProduct{
		{Name: "AC-100", Category: "Air Curtains", Subcategory: "Electrically Heated"},
		{Name: "AC-300", Category: "Air Curtains", Subcategory: "Electrically Heated"},
		{Name: "AC-400", Category: "Air Curtains"},
		{Name: "Clamp 20mm", Category: "Air Curtains"},
	}, RemapOptions{})
	require.NoError(t, err)
	assert.Equal(t, RemapStats{Total: 4, Updated: 2, AlreadyOK: 2}, stats)

	ps, err := catalog.LoadProducts(ctx, store)
	require.NoError(t, err)
	got := map[string][2]string{}
	for _, p := range ps {
		got[p.ID] = [2]string{catalog.Deref(p.CategoryID), catalog.Deref(p.SubcategoryID)}
	}
	assert.Equal(t, map[string][2]string{
		"p1": {"A", "B"},
		"p2": {"A", ""},
		"p3": {"A", "B"},
		"p4": {"A", "C"},
	}, got)

	assert.Empty(t, Build(ps, categories()).Updates, "remapped rows need no hierarchy repair")
}

func TestRemap_LiteralWildcards(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	require.NoError(t, store.Insert(ctx, storage.TableProducts, []catalog.Product{
		{ID: "w1", Name: "ACX100 Fan", CategoryID: str("D")},
	}))
	res := resolver.New(resolver.NewLookupTable(categories()), &resolver.RuleSet{})

	stats, err := Remap(ctx, store, res, []catalog.ScrapedProduct{
		{Name: "AC_100", Category: "Air Curtains"},
	}, RemapOptions{})
	require.NoError(t, err)
	assert.Equal(t, RemapStats{Total: 1, NotFound: 1}, stats)
}
