package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds application configuration.
type Config struct {
	HTTP HTTPConfig `json:"http"`
	Log  LogConfig  `json:"log"`

	// CatalogPath points at a YAML record catalog. Empty means the embedded mock catalog.
	CatalogPath string `json:"catalog_path,omitempty" env:"NEWSDESK_CATALOG_PATH"`

	// CatalogDelay simulates source latency before the catalog is returned.
	CatalogDelay Duration `json:"catalog_delay,omitempty" env:"NEWSDESK_CATALOG_DELAY"`

	// GenerationDelay is the fixed pause applied before a brief is composed.
	GenerationDelay Duration `json:"generation_delay,omitempty" env:"NEWSDESK_GENERATION_DELAY"`

	// Selection picks the record selection strategy: "diversity" (deterministic) or "random".
	Selection string `json:"selection,omitempty" env:"NEWSDESK_SELECTION"`

	Mirror MirrorConfig `json:"mirror"`

	// Feeds lists news feeds polled by the ingest endpoint.
	// When empty (or when every feed fails) the mock article list is served.
	Feeds []FeedConfig `json:"feeds,omitempty"`

	// FeedTimeout bounds a single ingest pass across all feeds.
	FeedTimeout Duration `json:"feed_timeout,omitempty" env:"NEWSDESK_FEED_TIMEOUT"`

	// DBMaxOpenConns limits the maximum number of open SQLite connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" env:"NEWSDESK_DB_MAX_OPEN_CONNS"`

	// DBMaxIdleConns limits the maximum number of idle SQLite connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" env:"NEWSDESK_DB_MAX_IDLE_CONNS"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// HTTPConfig holds web server settings.
type HTTPConfig struct {
	Bind string `json:"bind,omitempty" env:"NEWSDESK_HTTP_BIND"`
	Port int    `json:"port,omitempty" env:"NEWSDESK_HTTP_PORT"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level,omitempty"  env:"NEWSDESK_LOG_LEVEL"`
	Format string `json:"format,omitempty" env:"NEWSDESK_LOG_FORMAT"`
}

// MirrorConfig holds the optional remote PostgreSQL mirror settings.
type MirrorConfig struct {
	Enabled  bool   `json:"enabled,omitempty"   env:"NEWSDESK_MIRROR_ENABLED"`
	DSN      string `json:"dsn,omitempty"       env:"NEWSDESK_MIRROR_DSN"`
	MaxConns int32  `json:"max_conns,omitempty" env:"NEWSDESK_MIRROR_MAX_CONNS"`
}

// Active reports whether the mirror is both switched on and has somewhere to connect.
func (m MirrorConfig) Active() bool {
	return m.Enabled && strings.TrimSpace(m.DSN) != ""
}

// FeedConfig describes one news feed.
type FeedConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"` // rss | json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Bind: "127.0.0.1",
			Port: 8787,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		CatalogDelay:    Duration(300 * time.Millisecond),
		GenerationDelay: Duration(1200 * time.Millisecond),
		Selection:       "diversity",
		Mirror: MirrorConfig{
			MaxConns: 4,
		},
		FeedTimeout: Duration(10 * time.Second),
	}
}

// Load loads configuration from baseDir/config.json and applies NEWSDESK_* env overrides.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.newsdesk.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

// LoadWithRepo loads configuration from both global (~/.newsdesk) and repo (.newsdesk) directories.
// Repo config is found by walking upward from startDir to find the nearest .newsdesk/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return finish(Merge(Merge(DefaultConfig(), global), repo))
}

// FindRepoConfig walks upward from startDir to find the nearest .newsdesk/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".newsdesk", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// finish applies environment overrides and validates the result.
func finish(cfg *Config) (*Config, error) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.HTTP.Bind = firstString(overlay.HTTP.Bind, base.HTTP.Bind)
	result.HTTP.Port = firstNonZero(overlay.HTTP.Port, base.HTTP.Port)
	result.Log.Level = firstString(overlay.Log.Level, base.Log.Level)
	result.Log.Format = firstString(overlay.Log.Format, base.Log.Format)
	result.CatalogPath = firstString(overlay.CatalogPath, base.CatalogPath)
	result.CatalogDelay = firstNonZero(overlay.CatalogDelay, base.CatalogDelay)
	result.GenerationDelay = firstNonZero(overlay.GenerationDelay, base.GenerationDelay)
	result.Selection = firstString(overlay.Selection, base.Selection)
	result.FeedTimeout = firstNonZero(overlay.FeedTimeout, base.FeedTimeout)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.Mirror.Enabled = base.Mirror.Enabled || overlay.Mirror.Enabled
	result.Mirror.DSN = firstString(overlay.Mirror.DSN, base.Mirror.DSN)
	result.Mirror.MaxConns = firstNonZero(overlay.Mirror.MaxConns, base.Mirror.MaxConns)

	result.Feeds = mergeFeeds(base.Feeds, overlay.Feeds)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// Validate checks enum-like settings.
func (c *Config) Validate() error {
	switch c.Selection {
	case "diversity", "random":
	default:
		return fmt.Errorf("selection must be one of: diversity, random (got %q)", c.Selection)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be one of: json, console (got %q)", c.Log.Format)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	for _, f := range c.Feeds {
		if f.Type != "rss" && f.Type != "json" {
			return fmt.Errorf("feed %q: type must be rss or json", f.ID)
		}
		if f.URL == "" {
			return fmt.Errorf("feed %q: url is required", f.ID)
		}
	}
	if c.GenerationDelay < 0 || c.CatalogDelay < 0 {
		return fmt.Errorf("delays must be non-negative")
	}
	return nil
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstNonZero[T ~int | ~int32 | ~int64](a, b T) T {
	if a != 0 {
		return a
	}
	return b
}

// mergeFeeds appends overlay feeds to base feeds, skipping duplicate IDs.
func mergeFeeds(a, b []FeedConfig) []FeedConfig {
	seen := make(map[string]bool)
	var result []FeedConfig
	for _, f := range append(append([]FeedConfig{}, a...), b...) {
		key := f.ID
		if key == "" {
			key = f.URL
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, f)
	}
	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
