package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
)

func main() {
	flags := cli.RegisterFlags()
	flag.Parse()

	// Both tiers are hosted; -local has nothing to compare.
	flags.Local = false
	ctx, run := cli.Start("check-visibility", flags, config.NeedService, config.NeedAnon)
	defer run.Close()

	service := run.Store()
	categories, err := catalog.LoadCategories(ctx, service)
	if err != nil {
		config.Fatal("%v", err)
	}

	rows, err := catalog.CompareVisibility(ctx, service, run.AnonStore(), categories)
	if err != nil {
		config.Fatal("%v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSERVICE\tANON\tHIDDEN")
	hidden := false
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", r.Name, r.Service, r.Anon, r.Hidden())
		if r.Hidden() != 0 {
			hidden = true
		}
	}
	w.Flush()

	if hidden {
		fmt.Println("\nSome active products are not visible with the anon key; check row level security policies.")
	}
}
