package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productRow struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	CategoryID    *string `json:"category_id"`
	SubcategoryID *string `json:"subcategory_id"`
	Status        string  `json:"status"`
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_InsertSelect(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.Insert(ctx, TableProducts, []map[string]any{
		{"id": "p1", "name": "Hava Perdesi Elektrikli", "price": 1234.56, "category_id": "a", "status": "active"},
		{"name": "Aspiratör", "status": "draft"},
	})
	require.NoError(t, err)

	var rows []productRow
	err = store.Select(ctx, TableProducts, &rows, Query{Order: []Order{{Column: "name"}}})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Aspiratör", rows[0].Name)
	assert.NotEmpty(t, rows[0].ID, "missing ids are generated")
	assert.Nil(t, rows[0].CategoryID)

	assert.Equal(t, "p1", rows[1].ID)
	assert.Equal(t, 1234.56, rows[1].Price)
	require.NotNil(t, rows[1].CategoryID)
	assert.Equal(t, "a", *rows[1].CategoryID)
}

func TestSQLiteStore_Filters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Insert(ctx, TableCategories, []map[string]any{
		{"id": "a", "name": "Hava Perdeleri", "level": 0},
		{"id": "b", "name": "Ortam Havalı", "parent_id": "a", "level": 1},
		{"id": "c", "name": "Elektrikli Isıtıcılı", "parent_id": "a", "level": 1},
	}))

	var rows []row
	require.NoError(t, store.Select(ctx, TableCategories, &rows, Query{Filters: []Filter{IsNull("parent_id")}}))
	assert.Equal(t, []row{{ID: "a", Name: "Hava Perdeleri"}}, rows)

	rows = nil
	require.NoError(t, store.Select(ctx, TableCategories, &rows, Query{
		Filters: []Filter{ILike("name", "%HAVA%")},
		Order:   []Order{{Column: "id", Desc: true}},
	}))
	assert.Equal(t, []row{{ID: "b", Name: "Ortam Havalı"}, {ID: "a", Name: "Hava Perdeleri"}}, rows)

	n, err := store.Count(ctx, TableCategories, Eq("parent_id", "a"), Neq("id", "b"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Count(ctx, TableCategories)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLiteStore_ILikeUnicodeAndEscape(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Insert(ctx, TableProducts, []productRow{
		{ID: "1", Name: "ŞİŞME KELEPÇE 100"},
		{ID: "2", Name: "AC_100 Hava Perdesi"},
		{ID: "3", Name: "ACX100 Hava Perdesi"},
	}))

	var rows []row
	require.NoError(t, store.Select(ctx, TableProducts, &rows, Query{
		Filters: []Filter{ILike("name", "%şişme kelepçe%")},
	}))
	assert.Equal(t, []row{{ID: "1", Name: "ŞİŞME KELEPÇE 100"}}, rows)

	rows = nil
	require.NoError(t, store.Select(ctx, TableProducts, &rows, Query{
		Filters: []Filter{ILike("name", "%"+EscapeLike("ac_100")+"%")},
	}))
	assert.Equal(t, []row{{ID: "2", Name: "AC_100 Hava Perdesi"}}, rows)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_x\\`, EscapeLike(`50% _x\`))
}

func TestSQLiteStore_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Insert(ctx, TableProducts, []map[string]any{
		{"id": "p1", "name": "one", "category_id": "b"},
		{"id": "p2", "name": "two", "category_id": "b"},
	}))

	sub := "b"
	err := store.Update(ctx, TableProducts, map[string]any{"category_id": "a", "subcategory_id": &sub}, Eq("id", "p1"))
	require.NoError(t, err)

	var rows []productRow
	require.NoError(t, store.Select(ctx, TableProducts, &rows, Query{Filters: []Filter{Eq("id", "p1")}}))
	require.Len(t, rows, 1)
	assert.Equal(t, "a", *rows[0].CategoryID)
	assert.Equal(t, "b", *rows[0].SubcategoryID)

	assert.ErrorIs(t, store.Update(ctx, TableProducts, map[string]any{"name": "x"}), ErrNoFilter)
	assert.ErrorIs(t, store.Delete(ctx, TableProducts), ErrNoFilter)

	require.NoError(t, store.Delete(ctx, TableProducts, Neq("id", ZeroID)))
	n, err := store.Count(ctx, TableProducts)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLiteStore_Journal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	entry, err := store.GetJournalEntry(ctx, "migrate:a")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, store.RecordJournal(ctx, "migrate:a", "moved 3"))

	entry, err = store.GetJournalEntry(ctx, "migrate:a")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "moved 3", entry.Details)
	assert.False(t, entry.AppliedAt.IsZero())
}

func TestSQLiteStore_SuggestionCache(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.GetSuggestion(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.SetSuggestion(ctx, "k", "cat-1"))
	require.NoError(t, store.SetSuggestion(ctx, "k", "cat-2"))

	id, err = store.GetSuggestion(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "cat-2", id)
}
