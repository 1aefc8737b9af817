package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/repair"
)

func main() {
	var file, rulesPath string
	var opts repair.RemapOptions

	flags := cli.RegisterFlags()
	flag.StringVar(&file, "file", "", "Scraped product file (required)")
	flag.StringVar(&rulesPath, "rules", "", "Keyword rules JSON file")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Log changes without writing")
	flag.Parse()

	if file == "" {
		flag.Usage()
		config.Fatal("-file is required")
	}

	ctx, run := cli.Start("remap-categories", flags, config.NeedService)
	defer run.Close()

	scraped, err := catalog.LoadScrapedFile(file)
	if err != nil {
		config.Fatal("%v", err)
	}

	store := run.Store()
	res := run.Resolver(ctx, store, rulesPath)

	stats, err := repair.Remap(ctx, store, res, scraped, opts)
	log.Info().
		Int("total", stats.Total).
		Int("updated", stats.Updated).
		Int("alreadyOK", stats.AlreadyOK).
		Int("notFound", stats.NotFound).
		Int("unresolved", stats.Unresolved).
		Int("failed", stats.Failed).
		Bool("dryRun", opts.DryRun).
		Msg("remap finished")
	if err != nil {
		config.Fatal("%v", err)
	}
}
