package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/search"
)

// Config holds all lookup configuration.
type Config struct {
	Backend   BackendConfig                    `yaml:"backend"`
	DBPath    string                           `yaml:"db_path"`
	Search    SearchConfig                     `yaml:"search"`
	Cache     CacheConfig                      `yaml:"cache"`
	Endpoints map[models.Domain]EndpointConfig `yaml:"endpoints"`
	Report    string                           `yaml:"report_endpoint"`
	Auth      AuthConfig                       `yaml:"auth"`
	Chat      ChatConfig                       `yaml:"chat"`
	Log       LogConfig                        `yaml:"log"`
}

// BackendConfig locates the ERP REST backend.
type BackendConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// SearchConfig controls debouncing and the endpoint strategy.
type SearchConfig struct {
	MinLength     int           `yaml:"min_length"`
	Debounce      time.Duration `yaml:"debounce"`
	ShortDebounce time.Duration `yaml:"short_debounce"`
	// ShortQueryLength is the longest query that gets ShortDebounce.
	ShortQueryLength int `yaml:"short_query_length"`
	// FastQueryLength: queries shorter than this try the fast endpoint first.
	FastQueryLength int `yaml:"fast_query_length"`
	Limit           int `yaml:"limit"`
}

// Policy converts the timing settings into a search.Policy.
func (s SearchConfig) Policy() search.Policy {
	return search.Policy{
		MinLength:   s.MinLength,
		Delay:       s.Debounce,
		ShortDelay:  s.ShortDebounce,
		ShortLength: s.ShortQueryLength,
	}
}

// CacheConfig controls the search result cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
	// Persistent keeps one-shot CLI results in the SQLite database.
	Persistent bool `yaml:"persistent"`
}

// EndpointConfig names the two search endpoints of a domain.
type EndpointConfig struct {
	Fast      string `yaml:"fast"`
	Paginated string `yaml:"paginated"`
}

// AuthConfig describes the redirect based login.
type AuthConfig struct {
	AuthorizeURL  string        `yaml:"authorize_url"`
	ClientID      string        `yaml:"client_id"`
	RedirectURL   string        `yaml:"redirect_url"`
	WatchInterval time.Duration `yaml:"watch_interval"`
}

// ChatConfig controls the reporting chat.
type ChatConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

// LogConfig selects level and output format ("console" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:       "http://localhost:8080",
			Timeout:   15 * time.Second,
			UserAgent: "lookup",
		},
		DBPath: "lookup.db",
		Search: SearchConfig{
			MinLength:        2,
			Debounce:         300 * time.Millisecond,
			ShortDebounce:    500 * time.Millisecond,
			ShortQueryLength: 3,
			FastQueryLength:  10,
			Limit:            20,
		},
		Cache: CacheConfig{
			TTL:        30 * time.Second,
			Persistent: true,
		},
		Endpoints: map[models.Domain]EndpointConfig{
			models.DomainInvoices: {Fast: "/api/facturas/buscar-rapido", Paginated: "/api/facturas/buscar"},
			models.DomainClients:  {Fast: "/api/clientes/buscar-rapido", Paginated: "/api/clientes/buscar"},
			models.DomainProducts: {Fast: "/api/productos/sugerencias", Paginated: "/api/productos/buscar"},
		},
		Report: "/api/reportes/consulta",
		Auth: AuthConfig{
			RedirectURL:   "http://localhost:8765/callback",
			WatchInterval: 2 * time.Second,
		},
		Chat: ChatConfig{
			HistoryLimit: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would make searching impossible.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url is required"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Search.Debounce <= 0 {
		errs = append(errs, errors.New("search.debounce must be positive"))
	}
	if c.Search.MinLength < 1 {
		errs = append(errs, errors.New("search.min_length must be at least 1"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
