// Package cli holds the startup sequence shared by the cmd/ tools: flags,
// environment, logging, signal handling and store selection.
package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/venthub/catalog-tools/config"
	"github.com/venthub/catalog-tools/internal/catalog"
	"github.com/venthub/catalog-tools/internal/resolver"
	"github.com/venthub/catalog-tools/internal/runlog"
	"github.com/venthub/catalog-tools/internal/storage"
)

// Flags are the options every tool accepts.
type Flags struct {
	Verbose bool
	Local   bool
}

// RegisterFlags adds -v and -local to the default flag set.
func RegisterFlags() *Flags {
	f := &Flags{}
	flag.BoolVar(&f.Verbose, "v", false, "Enable debug logging")
	flag.BoolVar(&f.Local, "local", false, "Use the local SQLite mirror instead of the hosted store")
	return f
}

// Run is a started tool.
type Run struct {
	Tool   string
	Config config.Config
	Flags  *Flags

	state   *storage.SQLiteStore
	closers []func()
}

// Start loads configuration, sets up logging and checks that the variables
// the tool needs are present. It exits on failure. The returned context is
// cancelled on SIGINT or SIGTERM.
func Start(tool string, flags *Flags, reqs ...config.Requirement) (context.Context, *Run) {
	config.LoadEnvFile()
	cfg := config.Load()

	closeLog, err := runlog.Setup(tool, cfg.LogDir, flags.Verbose)
	if err != nil {
		config.Fatal("failed to set up logging: %v", err)
	}
	r := &Run{Tool: tool, Config: cfg, Flags: flags, closers: []func(){closeLog}}
	config.OnFatal(r.Close)

	if missing := cfg.Missing(requirements(flags.Local, reqs)...); len(missing) > 0 {
		config.Fatal("missing environment variables: %s", strings.Join(missing, ", "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	r.closers = append(r.closers, stop)

	log.Info().Str("tool", tool).Bool("local", flags.Local).Msg("starting")
	return ctx, r
}

// requirements drops the hosted-store credentials when running against the
// local mirror.
func requirements(local bool, reqs []config.Requirement) []config.Requirement {
	if !local {
		return reqs
	}
	var kept []config.Requirement
	for _, req := range reqs {
		if req != config.NeedService {
			kept = append(kept, req)
		}
	}
	return kept
}

// State opens the local SQLite database that holds the mirror, the run
// journal and the suggestion cache.
func (r *Run) State() *storage.SQLiteStore {
	if r.state != nil {
		return r.state
	}
	store, err := storage.NewSQLiteStore(r.Config.StateDB)
	if err != nil {
		config.Fatal("failed to open state database %s: %v", r.Config.StateDB, err)
	}
	r.state = store
	r.closers = append(r.closers, func() { store.Close() })
	return store
}

// Store returns the store the tool operates on: the local mirror with
// -local, the hosted store with the service-role key otherwise.
func (r *Run) Store() storage.Store {
	if r.Flags.Local {
		return r.State()
	}
	return storage.NewServiceStore(r.Config.ServiceURL, r.Config.ServiceKey)
}

// AnonStore returns the hosted store with the public anon key.
func (r *Run) AnonStore() storage.Store {
	return storage.NewAnonStore(r.Config.AnonURL, r.Config.AnonKey)
}

// Resolver loads the category table from store and the keyword rules from
// rulesPath, falling back to the configured path and then to the built-in
// rules. Rule references missing from the table are logged as warnings.
func (r *Run) Resolver(ctx context.Context, store storage.Store, rulesPath string) *resolver.Resolver {
	categories, err := catalog.LoadCategories(ctx, store)
	if err != nil {
		config.Fatal("%v", err)
	}
	if rulesPath == "" {
		rulesPath = r.Config.RulesPath
	}
	rules, err := resolver.LoadRules(rulesPath)
	if err != nil {
		config.Fatal("failed to load rules: %v", err)
	}

	table := resolver.NewLookupTable(categories)
	for _, w := range rules.Validate(table) {
		log.Warn().Msg(w)
	}
	log.Info().Int("categories", len(categories)).Int("parents", len(rules.Parents)).Msg("resolver ready")
	return resolver.New(table, rules)
}

// Close releases everything Start and State opened, in reverse order. It is
// also run by config.Fatal, so a late fatal still closes the run log.
func (r *Run) Close() {
	closers := r.closers
	r.closers = nil
	r.state = nil
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
