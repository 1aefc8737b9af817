package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	AppName     = "catalog-tools"
	EnvFileName = "config.env"

	defaultStateDB = "catalog-state.db"
)

// LoadEnvFile loads environment variables from .env files in the working
// directory, its parent, and the user's config directory. Variables already
// present in the environment win. Errors are ignored since the files may not
// exist.
func LoadEnvFile() {
	paths := []string{".env", filepath.Join("..", ".env")}
	if configBase, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configBase, AppName, EnvFileName))
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Config holds the connection settings shared by all tools.
type Config struct {
	ServiceURL string
	ServiceKey string
	AnonURL    string
	AnonKey    string

	StateDB   string
	RulesPath string
	GeminiKey string
	LogDir    string
}

// Load reads the configuration from the environment. It does not validate;
// use Missing for that.
func Load() Config {
	c := Config{
		ServiceURL: os.Getenv("SUPABASE_URL"),
		ServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		AnonURL:    firstEnv("SUPABASE_ANON_URL", "VITE_SUPABASE_URL"),
		AnonKey:    firstEnv("SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"),
		StateDB:    os.Getenv("CATALOG_STATE_DB"),
		RulesPath:  os.Getenv("CATALOG_RULES"),
		GeminiKey:  os.Getenv("GEMINI_API_KEY"),
		LogDir:     os.Getenv("CATALOG_LOG_DIR"),
	}
	if c.AnonURL == "" {
		c.AnonURL = c.ServiceURL
	}
	if c.StateDB == "" {
		c.StateDB = defaultStateDB
	}
	if c.LogDir == "" {
		c.LogDir = "."
	}
	return c
}

// Requirement names a group of variables a tool needs.
type Requirement int

const (
	NeedService Requirement = iota
	NeedAnon
	NeedGemini
)

// Missing returns the names of required variables that are not set.
func (c Config) Missing(reqs ...Requirement) []string {
	var missing []string
	for _, r := range reqs {
		switch r {
		case NeedService:
			if c.ServiceURL == "" {
				missing = append(missing, "SUPABASE_URL")
			}
			if c.ServiceKey == "" {
				missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
			}
		case NeedAnon:
			if c.AnonURL == "" {
				missing = append(missing, "VITE_SUPABASE_URL")
			}
			if c.AnonKey == "" {
				missing = append(missing, "VITE_SUPABASE_ANON_KEY")
			}
		case NeedGemini:
			if c.GeminiKey == "" {
				missing = append(missing, "GEMINI_API_KEY")
			}
		}
	}
	return missing
}

var (
	fatalMu    sync.Mutex
	fatalHooks []func()
	exit       = os.Exit
)

// OnFatal registers fn to run before Fatal exits. Hooks run in reverse
// order of registration, at most once.
func OnFatal(fn func()) {
	fatalMu.Lock()
	defer fatalMu.Unlock()
	fatalHooks = append(fatalHooks, fn)
}

// Fatal logs the message, runs the OnFatal hooks and exits with status 1.
func Fatal(format string, args ...any) {
	log.WithLevel(zerolog.FatalLevel).Msg(fmt.Sprintf(format, args...))

	fatalMu.Lock()
	hooks := fatalHooks
	fatalHooks = nil
	fatalMu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	exit(1)
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
