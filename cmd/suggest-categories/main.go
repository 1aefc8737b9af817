package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/cli"
	"github.com/venthub/catalog-tools/internal/llm"
	"github.com/venthub/catalog-tools/internal/resolver"
)

func main() {
	var file, rulesPath string
	var limit int

	flags := cli.RegisterFlags()
	flag.StringVar(&file, "file", "", "Scraped product file (required)")
	flag.StringVar(&rulesPath, "rules", "", "Keyword rules JSON file")
	flag.IntVar(&limit, "limit", 0, "Ask for at most this many products (0 = all)")
	flag.Parse()

	if file == "" {
		flag.Usage()
		config.Fatal("-file is required")
	}

	ctx, run := cli.Start("suggest-categories", flags, config.NeedService, config.NeedGemini)
	defer run.Close()

	scraped, err := catalog.LoadScrapedFile(file)
	if err != nil {
		config.Fatal("%v", err)
	}

	store := run.Store()
	categories, err := catalog.LoadCategories(ctx, store)
	if err != nil {
		config.Fatal("%v", err)
	}
	res := run.Resolver(ctx, store, rulesPath)

	tree := catalog.BuildCategoryTree(categories)
	var candidates []llm.Candidate
	for _, c := range categories {
		if tree.IsLeaf(c.ID) {
			candidates = append(candidates, llm.Candidate{ID: c.ID, Path: tree.Path(c.ID)})
		}
	}

	gemini, err := llm.NewGeminiSuggester(ctx, run.Config.GeminiKey)
	if err != nil {
		config.Fatal("%v", err)
	}
	suggester := llm.NewCachedSuggester(gemini, run.State())

	asked, suggested := 0, 0
	for _, sp := range scraped {
		if ctx.Err() != nil || limit > 0 && asked >= limit {
			break
		}
		name := strings.TrimSpace(sp.Name)
		if !catalog.IsImportable(name) {
			continue
		}
		r := res.Resolve(resolver.Input{Name: name, Category: sp.Category, Subcategory: sp.Subcategory})
		if r.Resolved() {
			continue
		}

		asked++
		id, err := suggester.Suggest(ctx, llm.Product{
			Name:        name,
			Category:    sp.Category,
			Subcategory: sp.Subcategory,
			Description: sp.Description,
		}, candidates)
		if err != nil {
			log.Error().Err(err).Str("product", name).Msg("suggestion failed")
			continue
		}
		if id == "" {
			fmt.Printf("%s (%s): no suggestion\n", name, sp.Category)
			continue
		}
		suggested++
		fmt.Printf("%s (%s): %s\n", name, sp.Category, tree.Path(id))
	}
	log.Info().Int("unresolved", asked).Int("suggested", suggested).Msg("suggestions finished")
}
