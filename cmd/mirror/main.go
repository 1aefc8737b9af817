package main

import (
	"flag"
	"fmt"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/storage"
)

func main() {
	var batchSize int

	flags := cli.RegisterFlags()
	flag.IntVar(&batchSize, "batch", 50, "Insert batch size")
	flag.Parse()

	// The source is always the hosted store.
	flags.Local = false
	ctx, run := cli.Start("mirror", flags, config.NeedService)
	defer run.Close()

	src := storage.NewServiceStore(run.Config.ServiceURL, run.Config.ServiceKey)
	stats, err := catalog.Mirror(ctx, src, run.State(), batchSize)
	if err != nil {
		config.Fatal("mirror failed: %v", err)
	}
	fmt.Printf("Mirrored %d categories and %d products into %s\n", stats.Categories, stats.Products, run.Config.StateDB)
}
