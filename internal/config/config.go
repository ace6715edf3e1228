// Package config loads application configuration from config.yaml and
// LEADGEN_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Dataset   DatasetConfig   `yaml:"dataset" mapstructure:"dataset"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CRM       CRMConfig       `yaml:"crm" mapstructure:"crm"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	GeocodeBaseURL string `yaml:"geocode_base_url" mapstructure:"geocode_base_url"`
	SkipDetails    bool   `yaml:"skip_details" mapstructure:"skip_details"`
}

// DatasetConfig holds the scraping-provider actor settings.
type DatasetConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	ActorID string `yaml:"actor_id" mapstructure:"actor_id"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// CrawlConfig configures website crawling for suggestions and enrichment.
type CrawlConfig struct {
	MaxPages      int `yaml:"max_pages" mapstructure:"max_pages"`
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EnrichConfig configures contact extraction.
type EnrichConfig struct {
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
}

// SearchConfig caps result counts by account tier.
type SearchConfig struct {
	FreeMaxResults int `yaml:"free_max_results" mapstructure:"free_max_results"`
	PaidMaxResults int `yaml:"paid_max_results" mapstructure:"paid_max_results"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	Secret         string `yaml:"secret" mapstructure:"secret"`
	SessionHours   int    `yaml:"session_hours" mapstructure:"session_hours"`
	GoogleClient   string `yaml:"google_client_id" mapstructure:"google_client_id"`
	GoogleSecret   string `yaml:"google_client_secret" mapstructure:"google_client_secret"`
	GoogleRedirect string `yaml:"google_redirect_url" mapstructure:"google_redirect_url"`
}

// RateLimitConfig configures the per-IP limiter.
type RateLimitConfig struct {
	PerMinute   int      `yaml:"per_minute" mapstructure:"per_minute"`
	Burst       int      `yaml:"burst" mapstructure:"burst"`
	Whitelist   []string `yaml:"whitelist" mapstructure:"whitelist"`
	BypassToken string   `yaml:"bypass_token" mapstructure:"bypass_token"`
}

// CRMConfig holds credentials for the CRM connectors. A connector with no
// credentials is simply not registered.
type CRMConfig struct {
	HubSpot    HubSpotConfig    `yaml:"hubspot" mapstructure:"hubspot"`
	Zoho       ZohoConfig       `yaml:"zoho" mapstructure:"zoho"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
}

// HubSpotConfig holds HubSpot private-app credentials.
type HubSpotConfig struct {
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
}

// ZohoConfig holds Zoho CRM credentials.
type ZohoConfig struct {
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	APIDomain   string `yaml:"api_domain" mapstructure:"api_domain"`
}

// SalesforceConfig holds Salesforce credentials.
type SalesforceConfig struct {
	Domain       string `yaml:"domain" mapstructure:"domain"`
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.geocode_base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("dataset.base_url", "https://api.apify.com")
	v.SetDefault("dataset.actor_id", "compass~crawler-google-places")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("crawl.max_pages", 6)
	v.SetDefault("crawl.max_concurrent", 4)
	v.SetDefault("crawl.timeout_secs", 10)
	v.SetDefault("enrich.max_pages", 6)
	v.SetDefault("search.free_max_results", 20)
	v.SetDefault("search.paid_max_results", 100)
	v.SetDefault("auth.session_hours", 24)
	v.SetDefault("rate_limit.per_minute", 60)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("crm.zoho.api_domain", "https://www.zohoapis.com")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields the given mode depends on. Modes map to the
// CLI commands: "serve" needs the full surface, "search" and "enrich" only
// their own upstreams.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireKey := func(name, value string) {
		if value == "" {
			problems = append(problems, name+" is required")
		}
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		requireKey("store.database_url", c.Store.DatabaseURL)
		requireKey("auth.secret", c.Auth.Secret)
	case "search":
		requireKey("dataset.token", c.Dataset.Token)
		requireKey("anthropic.key", c.Anthropic.Key)
	case "enrich":
		// Enrichment runs heuristics-only without an Anthropic key.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Search.FreeMaxResults < 0 || c.Search.PaidMaxResults < 0 {
		problems = append(problems, "search result caps must be >= 0")
	}
	if c.RateLimit.PerMinute < 0 {
		problems = append(problems, "rate_limit.per_minute must be >= 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
