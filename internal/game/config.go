package game

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/samdwyer/trailquest/internal/gamedata"
	"github.com/samdwyer/trailquest/internal/override"
	"github.com/samdwyer/trailquest/internal/rng"
	"github.com/samdwyer/trailquest/internal/store"
	"github.com/samdwyer/trailquest/internal/store/sqlite"
)

// StoreKind selects the persistence back-end.
type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

// Config holds game configuration options read from the environment.
type Config struct {
	// Directory for save files, the SQLite database and the log file.
	DataDir string    `env:"TRAIL_DATA_DIR" envDefault:"data"`
	Store   StoreKind `env:"TRAIL_STORE" envDefault:"file"`

	// Seed for random number generation. Used for reproducible trails and draws.
	// A seed of 0 means a random seed will be generated.
	Seed uint64 `env:"TRAIL_SEED" envDefault:"0"`

	// Optional YAML files: balance overrides and the tutorial day plan.
	BalanceFile  string `env:"TRAIL_BALANCE_FILE"`
	TutorialFile string `env:"TRAIL_TUTORIAL_FILE"`

	LogLevel  string        `env:"TRAIL_LOG_LEVEL" envDefault:"info"`
	Telemetry bool          `env:"TRAIL_TELEMETRY" envDefault:"false"`
	StepDelay time.Duration `env:"TRAIL_STEP_DELAY" envDefault:"150ms"` // Pause between animated hops
}

// LoadConfig parses the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option values.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("TRAIL_STORE: unknown store %q", c.Store)
	}
	if c.StepDelay < 0 {
		return fmt.Errorf("TRAIL_STEP_DELAY: must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("TRAIL_LOG_LEVEL: %w", err)
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// LogPath is where the binary writes its log.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "trailquest.log")
}

// OpenStore opens the configured back-end, creating the data directory.
func (c Config) OpenStore() (store.Store, error) {
	switch c.Store {
	case StoreMemory:
		return store.NewMemory(), nil
	case StoreSQLite:
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return sqlite.Open(filepath.Join(c.DataDir, "trailquest.db"))
	default:
		return store.NewFile(c.DataDir)
	}
}

// Options builds engine options from the configuration: the random source,
// the catalogue, the balance tables with any YAML overrides, and the
// tutorial plan.
func (c Config) Options(s store.Store, log zerolog.Logger) (Options, error) {
	seed := c.Seed
	if seed == 0 {
		var err error
		if seed, err = rng.NewSeed(); err != nil {
			return Options{}, err
		}
	}

	catalogue, err := gamedata.LoadRewardRegistry()
	if err != nil {
		return Options{}, err
	}
	balance, err := gamedata.LoadBalance(c.BalanceFile, catalogue)
	if err != nil {
		return Options{}, fmt.Errorf("load balance: %w", err)
	}

	opts := Options{
		Store:     s,
		Rand:      rng.New(seed),
		Catalogue: catalogue,
		Balance:   &balance,
		Log:       log,
	}
	if c.TutorialFile != "" {
		plan, err := override.LoadPlan(c.TutorialFile)
		if err != nil {
			return Options{}, err
		}
		opts.Plan = plan
	}
	log.Info().Uint64("seed", seed).Str("store", string(c.Store)).Msg("configuration loaded")
	return opts, nil
}
