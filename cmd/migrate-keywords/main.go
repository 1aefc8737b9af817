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
	var rulesPath, only string
	var dryRun, force bool

	flags := cli.RegisterFlags()
	flag.StringVar(&rulesPath, "rules", "", "Keyword rules JSON file")
	flag.StringVar(&only, "parent", "", "Only migrate this parent category")
	flag.BoolVar(&dryRun, "dry-run", false, "Show the planned moves without writing")
	flag.BoolVar(&force, "force", false, "Run again even if the journal says the migration was applied")
	flag.Parse()

	ctx, run := cli.Start("migrate-keywords", flags, config.NeedService)
	defer run.Close()

	store := run.Store()
	journal := run.State()
	res := run.Resolver(ctx, store, rulesPath)

	for _, parent := range res.Rules().Parents {
		if only != "" && catalog.Fold(only) != catalog.Fold(parent.Parent) {
			continue
		}
		key := "migrate-keywords:" + catalog.Slug(parent.Parent)

		entry, err := journal.GetJournalEntry(ctx, key)
		if err != nil {
			config.Fatal("failed to read run journal: %v", err)
		}
		if entry != nil && !force {
			log.Info().
				Str("parent", parent.Parent).
				Time("appliedAt", entry.AppliedAt).
				Msg("already applied, use -force to run again")
			continue
		}

		parentID, ok := res.Table().Ref(parent.Parent)
		if !ok {
			log.Warn().Str("parent", parent.Parent).Msg("parent category not found")
			continue
		}
		products, err := catalog.LoadProducts(ctx, store, storage.Eq("category_id", parentID))
		if err != nil {
			config.Fatal("%v", err)
		}

		updates := repair.PlanKeywordMoves(products, res.Table(), parent)
		log.Info().
			Str("parent", parent.Parent).
			Int("products", len(products)).
			Int("moves", len(updates)).
			Msg("keyword migration planned")

		if dryRun {
			for _, u := range updates {
				c, _ := res.Table().Category(*u.SubcategoryID)
				fmt.Printf("%s -> %s\n", u.Name, c.Name)
			}
			continue
		}

		applied, err := repair.Apply(ctx, store, repair.Plan{Updates: updates}, repair.DefaultBatchSize)
		if err != nil {
			config.Fatal("%v", err)
		}
		if applied.Landed() {
			details := fmt.Sprintf("moved=%d failed=%d", applied.Updated, applied.Failed)
			if err := journal.RecordJournal(ctx, key, details); err != nil {
				log.Error().Err(err).Str("parent", parent.Parent).Msg("failed to record journal entry")
			}
		} else {
			log.Warn().Str("parent", parent.Parent).Msg("every update failed, not recording the migration")
		}
		log.Info().Str("parent", parent.Parent).Int("updated", applied.Updated).Int("failed", applied.Failed).Msg("keyword migration applied")
	}
}

