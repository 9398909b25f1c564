package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "PODSEARCH"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "podsearch.db"
	defaultIndexPath    = "podsearch.bleve"
	defaultLogLevel     = "info"
	defaultStrategy     = "fulltext"
	strategyRelational  = "relational"
	strategyFullText    = "fulltext"
)

// AppConfig captures runtime configuration for the search service.
type AppConfig struct {
	HTTPAddress  string
	DatabasePath string
	IndexPath    string
	LogLevel     string
	Strategy     string
	StartupQuery string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("index.path", defaultIndexPath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("search.strategy", defaultStrategy)
	configViper.SetDefault("search.startup_query", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:  configViper.GetString("http.address"),
		DatabasePath: configViper.GetString("database.path"),
		IndexPath:    configViper.GetString("index.path"),
		LogLevel:     configViper.GetString("log.level"),
		Strategy:     configViper.GetString("search.strategy"),
		StartupQuery: configViper.GetString("search.startup_query"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.IndexPath) == "" {
		return fmt.Errorf("index.path is required")
	}
	switch c.Strategy {
	case strategyRelational, strategyFullText:
	default:
		return fmt.Errorf("search.strategy must be %q or %q, got %q",
			strategyRelational, strategyFullText, c.Strategy)
	}
	return nil
}
