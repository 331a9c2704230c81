package config

import "time"

// Config holds runtime settings for the QuestPath client.
//
// Fields:
//   - ServerBaseURL: base URL of the backend API, e.g. "https://api.questpath.io".
//   - RequestTimeout: per-request deadline for backend calls.
//   - CacheTTL: maximum age of cached progress/achievements/statistics.
//   - DatabasePath: sqlite file holding persisted credentials.
type Config struct {
	ServerBaseURL  string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	DatabasePath   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 12 * time.Second
	c.CacheTTL = 5 * time.Minute
	c.DatabasePath = "questpath.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
