package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Duolingo DuolingoConfig `yaml:"duolingo"`
	Import   ImportConfig   `yaml:"import"`
	Telegram TelegramConfig `yaml:"telegram"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds the collection database settings
type DatabaseConfig struct {
	Driver  string `yaml:"driver"   env:"DATABASE_DRIVER"   env-default:"sqlite3"`
	DSN     string `yaml:"dsn"      env:"DATABASE_DSN"`
	DataDir string `yaml:"data_dir" env:"DATA_DIR"          env-default:"data"`
	NodeID  int64  `yaml:"node_id"  env:"DATABASE_NODE_ID"  env-default:"1"`
}

// DuolingoConfig holds remote service settings
type DuolingoConfig struct {
	BaseURL        string        `yaml:"base_url"       env:"DUOLINGO_BASE_URL"       env-default:"https://www.duolingo.com"`
	DictionaryURL  string        `yaml:"dictionary_url" env:"DUOLINGO_DICTIONARY_URL" env-default:"https://d2.duolingo.com"`
	Timeout        time.Duration `yaml:"timeout"        env:"DUOLINGO_TIMEOUT"        env-default:"30s"`
	RequestsPerSec float64       `yaml:"requests_per_sec" env:"DUOLINGO_RPS"          env-default:"2"`
	UserAgent      string        `yaml:"user_agent"     env:"DUOLINGO_USER_AGENT"     env-default:"duosync/1.0"`

	// Only read from the environment, used by unattended runs.
	Username string `yaml:"-" env:"DUOLINGO_USERNAME"`
	Password string `yaml:"-" env:"DUOLINGO_PASSWORD"`
}

// ImportConfig holds importer policy
type ImportConfig struct {
	Tag       string `yaml:"tag"        env:"IMPORT_TAG"        env-default:"duolingo_sync"`
	ModelName string `yaml:"model_name" env:"IMPORT_MODEL_NAME" env-default:"Duolingo Sync"`
	DeckName  string `yaml:"deck_name"  env:"IMPORT_DECK_NAME"  env-default:"Default"`
}

// TelegramConfig holds bot settings
type TelegramConfig struct {
	Token        string `yaml:"-"             env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers string `yaml:"allowed_users" env:"ADMIN_USER_IDS"`
	Timeout      int    `yaml:"timeout"       env:"TELEGRAM_TIMEOUT" env-default:"60"`
}

// WatchConfig holds scheduled sync settings
type WatchConfig struct {
	Interval time.Duration `yaml:"interval" env:"WATCH_INTERVAL" env-default:"24h"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Load reads .env (if present), then an optional YAML file at CONFIG_PATH, then environment
// variables. Priority: ENV > YAML > defaults. The result is not validated, so callers can
// apply overrides before calling Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values that have no safe fallback
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.NodeID < 0 || c.Database.NodeID > 1023 {
		return fmt.Errorf("database node id must be between 0 and 1023, got %d", c.Database.NodeID)
	}
	if strings.ContainsAny(c.Import.Tag, " \t") || c.Import.Tag == "" {
		return fmt.Errorf("import tag must be a single non-empty word, got %q", c.Import.Tag)
	}
	if c.Duolingo.RequestsPerSec <= 0 {
		return fmt.Errorf("duolingo requests per second must be positive")
	}
	if c.Watch.Interval < time.Minute {
		return fmt.Errorf("watch interval must be at least 1m, got %s", c.Watch.Interval)
	}
	return nil
}

// AllowedUserIDs parses the comma separated Telegram user id list
func (c TelegramConfig) AllowedUserIDs() (map[int64]bool, error) {
	ids := make(map[int64]bool)
	if c.AllowedUsers == "" {
		return ids, nil
	}
	for _, idStr := range strings.Split(c.AllowedUsers, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q: %w", idStr, err)
		}
		ids[id] = true
	}
	return ids, nil
}
