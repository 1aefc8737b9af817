package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/storage"
)

func main() {
	var counts bool

	flags := cli.RegisterFlags()
	flag.BoolVar(&counts, "counts", false, "Show the number of products per category")
	flag.Parse()

	ctx, run := cli.Start("list-categories", flags, config.NeedService)
	defer run.Close()

	store := run.Store()
	categories, err := catalog.LoadCategories(ctx, store)
	if err != nil {
		config.Fatal("%v", err)
	}
	if len(categories) == 0 {
		fmt.Println("No categories found")
		return
	}

	count := func(id string) string {
		if !counts {
			return ""
		}
		n, err := store.Count(ctx, storage.TableProducts, storage.Eq("category_id", id))
		if err != nil {
			return " (?)"
		}
		m, err := store.Count(ctx, storage.TableProducts, storage.Eq("subcategory_id", id))
		if err != nil {
			return " (?)"
		}
		return fmt.Sprintf(" (%d)", n+m)
	}

	tree := catalog.BuildCategoryTree(categories)
	levels := map[int]int{}
	for _, root := range tree.Roots() {
		levels[0]++
		fmt.Printf("%s [%s]%s\n", root.Name, root.Slug, count(root.ID))
		for _, child := range root.Children {
			levels[1]++
			fmt.Printf("  %s [%s]%s\n", child.Name, child.Slug, count(child.ID))
			for _, grandchild := range child.Children {
				levels[2]++
				fmt.Printf("    %s [%s]%s\n", grandchild.Name, grandchild.Slug, count(grandchild.ID))
			}
		}
	}
	fmt.Printf("\n%d categories: %d roots, %d leaves, %d deeper\n", tree.Len(), levels[0], levels[1], tree.Len()-levels[0]-levels[1])

	violations := tree.Violations()
	if len(violations) == 0 {
		return
	}
	fmt.Printf("\n%d invariant violations:\n", len(violations))
	for _, v := range violations {
		fmt.Printf("  %s\n", v)
	}
	os.Exit(2)
}
