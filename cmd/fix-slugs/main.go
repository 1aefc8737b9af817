package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/repair"
	"github.com/venthub/catalog-tools/internal/storage"
)

func main() {
	var dryRun bool

	flags := cli.RegisterFlags()
	flag.BoolVar(&dryRun, "dry-run", false, "Show the planned changes without writing")
	flag.Parse()

	ctx, run := cli.Start("fix-slugs", flags, config.NeedService)
	defer run.Close()

	store := run.Store()
	categories, err := catalog.LoadCategories(ctx, store)
	if err != nil {
		config.Fatal("%v", err)
	}

	changes := repair.PlanSlugs(categories)
	log.Info().Int("categories", len(categories)).Int("changes", len(changes)).Msg("slugs planned")

	failed := 0
	for _, c := range changes {
		fmt.Printf("%s: %q -> %q\n", c.Name, c.Old, c.New)
		if dryRun {
			continue
		}
		err := store.Update(ctx, storage.TableCategories, map[string]any{"slug": c.New}, storage.Eq("id", c.CategoryID))
		if err != nil {
			failed++
			log.Error().Err(err).Str("category", c.Name).Msg("failed to update slug")
		}
	}
	if !dryRun {
		log.Info().Int("updated", len(changes)-failed).Int("failed", failed).Msg("slugs fixed")
	}
}
