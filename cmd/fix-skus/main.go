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

	ctx, run := cli.Start("fix-skus", flags, config.NeedService)
	defer run.Close()

	store := run.Store()
	products, err := catalog.LoadProducts(ctx, store)
	if err != nil {
		config.Fatal("%v", err)
	}

	changes := repair.PlanSKUs(products)
	log.Info().Int("products", len(products)).Int("changes", len(changes)).Msg("SKUs planned")

	failed := 0
	for _, c := range changes {
		fmt.Printf("%s: %q -> %s\n", c.Name, c.Old, c.New)
		if dryRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			config.Fatal("interrupted: %v", err)
		}
		err := store.Update(ctx, storage.TableProducts, map[string]any{"sku": c.New}, storage.Eq("id", c.ProductID))
		if err != nil {
			failed++
			log.Error().Err(err).Str("product", c.Name).Msg("failed to update SKU")
		}
	}
	if !dryRun {
		log.Info().Int("updated", len(changes)-failed).Int("failed", failed).Msg("SKUs fixed")
	}
}
