package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/resolver"
	"github.com/venthub/catalog-tools/internal/storage"
)

func TestRequirements(t *testing.T) {
	reqs := []config.Requirement{config.NeedService, config.NeedGemini}
	assert.Equal(t, reqs, requirements(false, reqs))
	assert.Equal(t, []config.Requirement{config.NeedGemini}, requirements(true, reqs))
	assert.Empty(t, requirements(true, []config.Requirement{config.NeedService}))
}

func TestRun_LocalStoreAndResolver(t *testing.T) {
	ctx := context.Background()
	run := &Run{
		Tool:   "test",
		Config: config.Config{StateDB: filepath.Join(t.TempDir(), "state.db")},
		Flags:  &Flags{Local: true},
	}
	defer run.Close()

	store := run.Store()
	assert.Same(t, run.State(), store)

	require.NoError(t, store.Insert(ctx, storage.TableCategories, []catalog.Category{
		{ID: "hp", Name: "Hava Perdeleri"},
		{ID: "hp-o", Name: "Ortam Havalı", ParentID: catalog.StringPtr("hp")},
	}))

	res := run.Resolver(ctx, store, "")
	r := res.Resolve(resolver.Input{Name: "AHP-200", Category: "Hava Perdeleri"})
	assert.Equal(t, "hp-o", r.CategoryID)
	assert.Equal(t, resolver.TierKeywordDefault, r.Tier)
}

func TestRun_CloseRunsClosersOnce(t *testing.T) {
	var order []int
	run := &Run{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}

	run.Close()
	run.Close()
	assert.Equal(t, []int{2, 1}, order)
}
