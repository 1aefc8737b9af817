package main

import (
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/scraper"
)

func main() {
	var oldFile, newFile, out string

	flags := cli.RegisterFlags()
	flag.StringVar(&oldFile, "old", "", "Earlier scrape with categories (required)")
	flag.StringVar(&newFile, "new", "", "Newer scrape to categorize (required)")
	flag.StringVar(&out, "out", "", "Output file (default: a new file in scraped-data)")
	flag.Parse()

	if oldFile == "" || newFile == "" {
		flag.Usage()
		config.Fatal("-old and -new are required")
	}

	_, run := cli.Start("merge-scraped", flags)
	defer run.Close()

	previous, err := catalog.LoadScrapedFile(oldFile)
	if err != nil {
		config.Fatal("%v", err)
	}
	current, err := catalog.LoadScrapedFile(newFile)
	if err != nil {
		config.Fatal("%v", err)
	}

	merged, stats := catalog.MergeScraped(previous, current, catalog.DefaultBrandGuesses)

	if out == "" {
		out = scraper.OutputPath("scraped-data", time.Now())
	}
	if err := catalog.SaveScrapedFile(out, merged); err != nil {
		config.Fatal("failed to save merged file: %v", err)
	}
	log.Info().
		Str("file", out).
		Int("total", stats.Total).
		Int("matched", stats.Matched).
		Int("guessed", stats.Guessed).
		Int("generic", stats.Generic).
		Msg("merge complete")
}
