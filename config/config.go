// Package config loads engine configuration from a file plus environment
// overrides using viper.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates all tunable settings for a TenantMesh deployment.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Router    RouterConfig    `mapstructure:"router"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatabaseConfig holds checkpoint store connection parameters.
type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

// IdentityConfig points at the identity verifier endpoint.
type IdentityConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// ResolverConfig tunes execution context resolution.
type ResolverConfig struct {
	TimeoutMS    int      `mapstructure:"timeout_ms"`
	Capabilities []string `mapstructure:"capabilities"`
}

// RouterConfig tunes supervisor behavior.
type RouterConfig struct {
	MaxHops         int `mapstructure:"max_hops"`
	ConflictRetries int `mapstructure:"conflict_retries"`
}

// OpenAIConfig configures the OpenAI classifier.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// AnthropicConfig configures the Anthropic classifier.
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// LoggingConfig selects level and format for the engine logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  "disable",
	}, nil
}

// LoadConfig reads the config file at path, applies defaults and environment
// overrides, and honors a DATABASE_URL environment variable when present.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("identity.timeout_ms", 5000)
	v.SetDefault("resolver.timeout_ms", 5000)
	v.SetDefault("router.max_hops", 8)
	v.SetDefault("router.conflict_retries", 2)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1024)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbCfg, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		dbCfg.UseInMemory = cfg.Database.UseInMemory
		cfg.Database = dbCfg
	}

	return &cfg, nil
}
