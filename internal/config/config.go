package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Journal backends accepted by journal_type.
const (
	JournalBBolt = "bbolt"
	JournalNone  = "none"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIKey         string `mapstructure:"confluent_cloud_api_key"`
	APISecret      string `mapstructure:"confluent_cloud_api_secret"`
	EnvironmentID  string `mapstructure:"confluent_cloud_environment_id"`
	ClusterID      string `mapstructure:"confluent_cloud_cluster_id"`
	OrganizationID string `mapstructure:"confluent_cloud_organization_id"`
	BaseURL        string `mapstructure:"base_url"`
	APIKeyFile     string `mapstructure:"api_key_file"`

	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	JournalType string `mapstructure:"journal_type"`
	JournalPath string `mapstructure:"journal_path"`

	TenantsFile   string `mapstructure:"tenants_file"`
	NotifiersFile string `mapstructure:"notifiers_file"`
}

// Load reads configuration from environment variables and config files.
// Credentials may come from the environment or, as a fallback, from a
// key=value credentials file; the environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "confluent-tenant-manager")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("confluent_cloud_api_key", "")
	v.SetDefault("confluent_cloud_api_secret", "")
	v.SetDefault("confluent_cloud_environment_id", "")
	v.SetDefault("confluent_cloud_cluster_id", "")
	v.SetDefault("confluent_cloud_organization_id", "*")
	v.SetDefault("base_url", "https://api.confluent.cloud")
	v.SetDefault("api_key_file", "")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("journal_type", JournalBBolt)
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("tenants_file", "./configs/tenants.yaml")
	v.SetDefault("notifiers_file", "./configs/notifiers.yaml")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	switch cfg.JournalType {
	case JournalBBolt, JournalNone:
	default:
		return nil, fmt.Errorf("invalid journal_type %q (expected %s or %s)", cfg.JournalType, JournalBBolt, JournalNone)
	}

	if (cfg.APIKey == "" || cfg.APISecret == "") && cfg.APIKeyFile != "" {
		key, secret, err := loadAPIKeyFile(cfg.APIKeyFile)
		if err != nil {
			return nil, err
		}
		if cfg.APIKey == "" {
			cfg.APIKey = key
		}
		if cfg.APISecret == "" {
			cfg.APISecret = secret
		}
	}

	return &cfg, nil
}

// HasCredentials reports whether both halves of the credential pair are set.
// Remote commands require them; the offline helpers do not.
func (c *Config) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != ""
}
