package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigPathEnv   = "LISTING_SCANNER_CONFIG"
	dataDirEnv      = "LISTING_SCANNER_DATA_DIR"
	dbDriverEnv     = "LISTING_SCANNER_DB_DRIVER"
	logLevelEnv     = "LISTING_SCANNER_LOG_LEVEL"
	mapsDSNEnv      = "MAPS_DATABASE_DSN"
	justdialDSNEnv  = "JUSTDIAL_DATABASE_DSN"
	remoteURLEnv    = "BROWSER_REMOTE_URL"
	headlessEnv     = "BROWSER_HEADLESS"
	defaultDataDir  = "data"
	defaultLogLevel = "info"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Browser BrowserConfig `yaml:"browser"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
}

// LoggingConfig selects the minimum log level.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
}

// StorageConfig picks the database engine. sqlite keeps one file per source
// under DataDir; postgres needs one DSN per source.
type StorageConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=sqlite postgres"`
	DataDir     string `yaml:"dataDir" validate:"required_if=Driver sqlite"`
	MapsDSN     string `yaml:"mapsDSN" validate:"required_if=Driver postgres"`
	JustDialDSN string `yaml:"justdialDSN" validate:"required_if=Driver postgres"`
}

// BrowserConfig tunes the headless browser session.
type BrowserConfig struct {
	RemoteURL         string        `yaml:"remoteURL" validate:"omitempty,url"`
	Headless          bool          `yaml:"headless"`
	Stealth           bool          `yaml:"stealth"`
	NavigationTimeout time.Duration `yaml:"navigationTimeout" validate:"gt=0"`
	ScrollWait        time.Duration `yaml:"scrollWait" validate:"gte=0"`
	PageDelay         time.Duration `yaml:"pageDelay" validate:"gte=0"`
}

// ScrapeConfig holds per-run defaults that flags may override.
type ScrapeConfig struct {
	MaxListings int `yaml:"maxListings" validate:"gte=1"`
	Scrolls     int `yaml:"scrolls" validate:"gte=0"`
}

// Load reads .env, the YAML file at path (or $LISTING_SCANNER_CONFIG when
// path is empty), applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		// Keys absent from the file keep their defaults.
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(dbDriverEnv); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(mapsDSNEnv); v != "" {
		c.Storage.MapsDSN = v
	}
	if v := os.Getenv(justdialDSNEnv); v != "" {
		c.Storage.JustDialDSN = v
	}

	if v := os.Getenv(remoteURLEnv); v != "" {
		c.Browser.RemoteURL = v
	}
	if v := os.Getenv(headlessEnv); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("config: ignoring %s=%q: %v", headlessEnv, v, err)
		} else {
			c.Browser.Headless = headless
		}
	}
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: defaultLogLevel},
		Storage: StorageConfig{Driver: "sqlite", DataDir: defaultDataDir},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
			ScrollWait:        2 * time.Second,
			PageDelay:         800 * time.Millisecond,
		},
		Scrape: ScrapeConfig{MaxListings: 30, Scrolls: 3},
	}
}
