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
	var outDir, baseURL string
	var maxPages int
	var delay time.Duration

	flags := cli.RegisterFlags()
	flag.StringVar(&outDir, "out", "scraped-data", "Directory for the output file")
	flag.StringVar(&baseURL, "base-url", scraper.DefaultBaseURL, "Vendor site to scrape")
	flag.IntVar(&maxPages, "max-pages", 50, "Maximum listing pages to read")
	flag.DurationVar(&delay, "delay", 800*time.Millisecond, "Minimum delay between requests")
	flag.Parse()

	ctx, run := cli.Start("scrape", flags)
	defer run.Close()

	s, err := scraper.New(scraper.Options{BaseURL: baseURL, Rate: delay, MaxPages: maxPages})
	if err != nil {
		config.Fatal("%v", err)
	}

	products, err := s.ScrapeAll(ctx)
	if err != nil && len(products) == 0 {
		config.Fatal("scrape failed: %v", err)
	}
	if err != nil {
		log.Warn().Err(err).Int("products", len(products)).Msg("scrape interrupted, saving partial results")
	}

	failed := 0
	for _, p := range products {
		if p.Error != "" {
			failed++
		}
	}

	path := scraper.OutputPath(outDir, time.Now())
	if err := catalog.SaveScrapedFile(path, products); err != nil {
		config.Fatal("failed to save scraped products: %v", err)
	}
	log.Info().Str("file", path).Int("products", len(products)).Int("failed", failed).Msg("scrape complete")
}
