package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/repair"
)

func main() {
	var dryRun bool

	flags := cli.RegisterFlags()
	flag.BoolVar(&dryRun, "dry-run", false, "Only report what references the categories")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cleanup-categories [flags] <category-id>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ids := flag.Args()
	if len(ids) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, run := cli.Start("cleanup-categories", flags, config.NeedService)
	defer run.Close()

	store := run.Store()
	if dryRun {
		usage, err := repair.CheckUsage(ctx, store, ids)
		if err != nil {
			config.Fatal("%v", err)
		}
		for _, u := range usage {
			fmt.Printf("%s: %d products, %d children\n", u.CategoryID, u.Products, u.Children)
		}
		return
	}

	blocked, err := repair.DeleteCategories(ctx, store, ids)
	if err != nil {
		config.Fatal("%v", err)
	}
	if len(blocked) > 0 {
		fmt.Println("Nothing deleted; these categories are still in use:")
		for _, u := range blocked {
			fmt.Printf("  %s: %d products, %d children\n", u.CategoryID, u.Products, u.Children)
		}
		os.Exit(2)
	}
	fmt.Printf("Deleted %d categories\n", len(ids))
}
