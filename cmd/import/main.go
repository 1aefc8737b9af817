package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/importer"
)

func main() {
	var file, report, rulesPath string
	var opts importer.Options

	flags := cli.RegisterFlags()
	flag.StringVar(&file, "file", "", "Scraped product file (required)")
	flag.BoolVar(&opts.Wipe, "wipe", false, "Delete all order items and products before importing")
	flag.BoolVar(&opts.SplitLeaf, "split-leaf", true, "Write leaf categories as category_id=parent, subcategory_id=leaf; -split-leaf=false puts the leaf in category_id")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Resolve and count without writing")
	flag.IntVar(&opts.BatchSize, "batch", importer.DefaultBatchSize, "Insert batch size")
	flag.StringVar(&report, "report", "", "Write unresolved products to this .xlsx file")
	flag.StringVar(&rulesPath, "rules", "", "Keyword rules JSON file")
	flag.Parse()

	if file == "" && flag.NArg() > 0 {
		file = flag.Arg(0)
	}
	if file == "" {
		flag.Usage()
		config.Fatal("-file is required")
	}

	ctx, run := cli.Start("import", flags, config.NeedService)
	defer run.Close()

	products, err := catalog.LoadScrapedFile(file)
	if err != nil {
		config.Fatal("%v", err)
	}
	log.Info().Str("file", file).Int("products", len(products)).Msg("scraped file loaded")

	store := run.Store()
	res := run.Resolver(ctx, store, rulesPath)

	if !opts.Wipe {
		existing, err := catalog.LoadProducts(ctx, store)
		if err != nil {
			config.Fatal("%v", err)
		}
		opts.SKUStart = catalog.MaxSKUCounter(existing)
		log.Debug().Int("skuStart", opts.SKUStart).Msg("continuing SKU sequence")
	}

	stats, err := importer.New(store, res, opts).Run(ctx, products)
	if stats != nil {
		stats.Log()
		for tier, n := range stats.ByTier {
			log.Info().Str("tier", tier.String()).Int("products", n).Msg("resolution tier")
		}
	}
	if err != nil {
		config.Fatal("%v", err)
	}

	if report != "" && len(stats.Unresolved) > 0 {
		if err := importer.WriteReport(report, stats.Unresolved); err != nil {
			log.Error().Err(err).Msg("failed to write report")
		} else {
			log.Info().Str("file", report).Int("rows", len(stats.Unresolved)).Msg("unresolved report written")
		}
	}

	fmt.Printf("Total: %d, imported: %d, skipped: %d, errors: %d\n", stats.Total, stats.Imported, stats.Skipped, stats.Errors)
}
