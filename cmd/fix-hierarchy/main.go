package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/repair"
)

func main() {
	var dryRun bool
	var batchSize int

	flags := cli.RegisterFlags()
	flag.BoolVar(&dryRun, "dry-run", false, "Show the planned changes without writing")
	flag.IntVar(&batchSize, "batch", repair.DefaultBatchSize, "Progress batch size")
	flag.Parse()

	ctx, run := cli.Start("fix-hierarchy", flags, config.NeedService)
	defer run.Close()

	store := run.Store()
	categories, err := catalog.LoadCategories(ctx, store)
	if err != nil {
		config.Fatal("%v", err)
	}
	products, err := catalog.LoadProducts(ctx, store)
	if err != nil {
		config.Fatal("%v", err)
	}

	plan := repair.Build(products, categories)
	s := plan.Stats
	log.Info().
		Int("total", s.Total).
		Int("alreadyOK", s.AlreadyOK).
		Int("moved", s.Moved).
		Int("cleared", s.Cleared).
		Int("noCategory", s.NoCategory).
		Int("missingCategory", s.MissingCategory).
		Msg("repair planned")

	if dryRun {
		tree := catalog.BuildCategoryTree(categories)
		for _, u := range plan.Updates {
			target := tree.Path(u.CategoryID)
			if u.SubcategoryID != nil {
				target = tree.Path(*u.SubcategoryID)
			}
			fmt.Printf("%s -> %s\n", u.Name, target)
		}
		return
	}

	applied, err := repair.Apply(ctx, store, plan, batchSize)
	log.Info().Int("updated", applied.Updated).Int("failed", applied.Failed).Msg("repair finished")
	if err != nil {
		config.Fatal("%v", err)
	}
}
