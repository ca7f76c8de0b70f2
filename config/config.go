// Package config holds the process configuration. Values are taken from
// environment variables or, optionally, a yaml file plus environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/froosterton/lookup/utils"
)

// Debug has to be set by the main package before the logger is initialized.
var Debug = false

func GetLogLevel() slog.Level {
	if Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Config defines the overall configuration of the crawler. All pacing delays
// are deliberate fixed-rate throttles protecting the browser sessions and the
// downstream services from burst load.
type Config struct {
	WebhookURL         string `yaml:"webhook_url" env:"WEBHOOK_URL"`
	UsernameWebhookURL string `yaml:"username_webhook_url" env:"USERNAME_WEBHOOK_URL"`
	NexusAdminKey      string `yaml:"nexus_admin_key" env:"NEXUS_ADMIN_KEY"`
	NexusAPIURL        string `yaml:"nexus_api_url" env:"NEXUS_API_URL" env-default:"https://discord.nexusdevtools.com/lookup/roblox"`
	ItemIDs            string `yaml:"item_ids" env:"ITEM_IDS" env-default:"74891470"`
	BaseURL            string `yaml:"base_url" env:"BASE_URL" env-default:"https://www.rolimons.com"`
	Port               int    `yaml:"port" env:"PORT" env-default:"3000"`
	ChromePath         string `yaml:"chrome_path" env:"CHROME_PATH"`
	MaxRetries         int    `yaml:"max_retries" env:"MAX_RETRIES" env-default:"3"`

	ListingSettle     time.Duration `yaml:"listing_settle" env:"LISTING_SETTLE" env-default:"5s"`
	TableInit         time.Duration `yaml:"table_init" env:"TABLE_INIT" env-default:"3s"`
	PageFlipSettle    time.Duration `yaml:"page_flip_settle" env:"PAGE_FLIP_SETTLE" env-default:"5s"`
	ProfileSettle     time.Duration `yaml:"profile_settle" env:"PROFILE_SETTLE" env-default:"2s"`
	SkipDelay         time.Duration `yaml:"skip_delay" env:"SKIP_DELAY" env-default:"6s"`
	ProcessedDelay    time.Duration `yaml:"processed_delay" env:"PROCESSED_DELAY" env-default:"10s"`
	RecoveryDelay     time.Duration `yaml:"recovery_delay" env:"RECOVERY_DELAY" env-default:"10s"`
	RetryDelay        time.Duration `yaml:"retry_delay" env:"RETRY_DELAY" env-default:"10s"`
	ProfileRetryDelay time.Duration `yaml:"profile_retry_delay" env:"PROFILE_RETRY_DELAY" env-default:"5s"`
	TableRenderWait   time.Duration `yaml:"table_render_wait" env:"TABLE_RENDER_WAIT" env-default:"15s"`
	PaginatorWait     time.Duration `yaml:"paginator_wait" env:"PAGINATOR_WAIT" env-default:"10s"`
}

// Load reads the configuration. When path is non-empty the given yaml file is
// read first and environment variables override its values.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required")
	}
	if c.UsernameWebhookURL == "" {
		return fmt.Errorf("USERNAME_WEBHOOK_URL is required")
	}
	if c.NexusAdminKey == "" {
		return fmt.Errorf("NEXUS_ADMIN_KEY is required")
	}
	if c.NexusAPIURL == "" {
		return fmt.Errorf("NEXUS_API_URL must not be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid port number, got %d", c.Port)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	for name, d := range map[string]time.Duration{
		"LISTING_SETTLE":      c.ListingSettle,
		"TABLE_INIT":          c.TableInit,
		"PAGE_FLIP_SETTLE":    c.PageFlipSettle,
		"PROFILE_SETTLE":      c.ProfileSettle,
		"SKIP_DELAY":          c.SkipDelay,
		"PROCESSED_DELAY":     c.ProcessedDelay,
		"RECOVERY_DELAY":      c.RecoveryDelay,
		"RETRY_DELAY":         c.RetryDelay,
		"PROFILE_RETRY_DELAY": c.ProfileRetryDelay,
		"TABLE_RENDER_WAIT":   c.TableRenderWait,
		"PAGINATOR_WAIT":      c.PaginatorWait,
	} {
		if d < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	if len(c.ParseItemIDs()) == 0 {
		return fmt.Errorf("ITEM_IDS contains no valid numeric item ids: %q", c.ItemIDs)
	}
	return nil
}

var numericRe = regexp.MustCompile(`^\d+$`)

// ParseItemIDs returns the configured item ids in order, trimmed, with
// non-numeric entries dropped.
func (c *Config) ParseItemIDs() []string {
	var ids []string
	for _, raw := range strings.Split(c.ItemIDs, ",") {
		id := strings.TrimSpace(raw)
		if numericRe.MatchString(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Redacted renders the effective configuration as yaml with secrets
// shortened, for debug logging.
func (c *Config) Redacted() string {
	r := *c
	r.WebhookURL = utils.ShortenString(r.WebhookURL, 50)
	r.UsernameWebhookURL = utils.ShortenString(r.UsernameWebhookURL, 50)
	r.NexusAdminKey = utils.ShortenString(r.NexusAdminKey, 4)
	out, err := yaml.Marshal(&r)
	if err != nil {
		return ""
	}
	return string(out)
}
