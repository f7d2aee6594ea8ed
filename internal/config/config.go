package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for JobBeacon.
type Config struct {
	Schedule     string // cron spec, e.g. "@every 1h"
	HTTPTimeout  time.Duration
	Sources      []SourceConfig
	Filters      FilterConfig
	Store        StoreConfig
	Cache        CacheConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
}

// SourceConfig describes one Remotive-shaped feed.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// FilterConfig scopes ingestion to the target audience.
type FilterConfig struct {
	Regions []string `yaml:"regions"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver   string `yaml:"driver"` // "sqlite", "postgres" or "memory"
	Path     string `yaml:"path"`   // sqlite file
	DSN      string `yaml:"dsn"`    // postgres URL
	Capacity int    `yaml:"capacity"`
}

// CacheConfig controls the source response cache.
type CacheConfig struct {
	RedisURL string // empty means in-process cache
	TTL      time.Duration
}

// RateLimitConfig controls per-host request spacing.
type RateLimitConfig struct {
	MinDelay time.Duration
}

// NotificationConfig controls delivery channels.
type NotificationConfig struct {
	Concurrency int         `yaml:"concurrency"`
	Email       EmailConfig `yaml:"email"`
	Push        PushConfig  `yaml:"push"`
	Slack       SlackConfig `yaml:"slack"`
}

// EmailConfig selects the email sender.
type EmailConfig struct {
	Type    string `yaml:"type"` // "log" or "amqp"
	From    string `yaml:"from"`
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`
}

// PushConfig selects the push sender.
type PushConfig struct {
	Type       string `yaml:"type"` // "log" or "http"
	GatewayURL string `yaml:"gateway_url"`
}

// SlackConfig enables run summaries in Slack when WebhookURL is set.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

const (
	defaultSchedule    = "@every 1h"
	defaultSQLitePath  = "jobbeacon.db"
	defaultCapacity    = 200
	defaultConcurrency = 8
	defaultFrom        = "noreply@jobbeacon.com"
	defaultQueue       = "jobbeacon.emails"
	slackHookPrefix    = "https://hooks.slack.com/"
)

// DefaultRegions is used when filters.regions is omitted.
var DefaultRegions = []string{"india"}

// rawConfig is used for YAML unmarshaling (durations as strings).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	HTTPTimeout  string             `yaml:"http_timeout"`
	Sources      []SourceConfig     `yaml:"sources"`
	Filters      FilterConfig       `yaml:"filters"`
	Store        StoreConfig        `yaml:"store"`
	Cache        rawCacheConfig     `yaml:"cache"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawCacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config. ${VAR} references are expanded from the
// environment first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	httpTimeout, err := parseDuration("http_timeout", raw.HTTPTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("cache.ttl", raw.Cache.TTL, 10*time.Minute)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Schedule:    raw.Schedule,
		HTTPTimeout: httpTimeout,
		Sources:     raw.Sources,
		Filters:     raw.Filters,
		Store:       raw.Store,
		Cache: CacheConfig{
			RedisURL: raw.Cache.RedisURL,
			TTL:      cacheTTL,
		},
		RateLimit:    RateLimitConfig{MinDelay: minDelay},
		Notification: raw.Notification,
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	if cfg.Filters.Regions == nil {
		cfg.Filters.Regions = DefaultRegions
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = defaultSQLitePath
	}
	if cfg.Store.Capacity == 0 {
		cfg.Store.Capacity = defaultCapacity
	}
	if cfg.Notification.Concurrency == 0 {
		cfg.Notification.Concurrency = defaultConcurrency
	}
	if cfg.Notification.Email.Type == "" {
		cfg.Notification.Email.Type = "log"
	}
	if cfg.Notification.Email.From == "" {
		cfg.Notification.Email.From = defaultFrom
	}
	if cfg.Notification.Email.Queue == "" {
		cfg.Notification.Email.Queue = defaultQueue
	}
	if cfg.Notification.Push.Type == "" {
		cfg.Notification.Push.Type = "log"
	}
}

// EnabledSources returns the sources with enabled: true, in file order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("schedule %q is not a valid cron spec: %w", cfg.Schedule, err)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", cfg.HTTPTimeout)
	}

	if len(cfg.EnabledSources()) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	names := make(map[string]bool)
	for _, s := range cfg.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("every source needs a name and a url")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
	}

	switch cfg.Store.Driver {
	case "sqlite", "memory":
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("store.driver must be sqlite, postgres or memory, got %q", cfg.Store.Driver)
	}
	if cfg.Store.Capacity < 0 {
		return fmt.Errorf("store.capacity must be positive, got %d", cfg.Store.Capacity)
	}

	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", cfg.Cache.TTL)
	}
	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}

	n := cfg.Notification
	if n.Concurrency < 0 {
		return fmt.Errorf("notification.concurrency must be positive, got %d", n.Concurrency)
	}
	switch n.Email.Type {
	case "log":
	case "amqp":
		if n.Email.AMQPURL == "" {
			return fmt.Errorf("notification.email.amqp_url is required when type is \"amqp\"")
		}
	default:
		return fmt.Errorf("notification.email.type must be log or amqp, got %q", n.Email.Type)
	}
	switch n.Push.Type {
	case "log":
	case "http":
		if n.Push.GatewayURL == "" {
			return fmt.Errorf("notification.push.gateway_url is required when type is \"http\"")
		}
	default:
		return fmt.Errorf("notification.push.type must be log or http, got %q", n.Push.Type)
	}
	if n.Slack.WebhookURL != "" && !strings.HasPrefix(n.Slack.WebhookURL, slackHookPrefix) {
		return fmt.Errorf("notification.slack.webhook_url must start with %s", slackHookPrefix)
	}

	return nil
}
