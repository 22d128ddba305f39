package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/veyronhq/reqforge/pkg/structures"
)

// Config represents the settings-table-backed application configuration.
// It is rebuilt from the database on startup and on every settings write
// (see internal/services/configservice), so values here always reflect
// the authoritative rows rather than the process environment.
type Config struct {
	MediaServer struct {
		Type   structures.Provider `mapstructure:"type"`
		URL    structures.Setting  `mapstructure:"url"`
		APIKey structures.Setting  `mapstructure:"api_key"`
	} `mapstructure:"media_server"`

	TMDB struct {
		APIKey structures.Setting `mapstructure:"api_key"`
	} `mapstructure:"tmdb"`

	General struct {
		BaseURL string `mapstructure:"base_url"`
		Theme   string `mapstructure:"theme"`
	} `mapstructure:"general"`

	Requests struct {
		DefaultMaxRequests int `mapstructure:"default_max_requests"`
	} `mapstructure:"requests"`

	LibrarySync struct {
		Allowlist []string `mapstructure:"allowlist"`
	} `mapstructure:"library_sync"`

	CategoryCache struct {
		TTLSeconds int `mapstructure:"ttl_seconds"`
	} `mapstructure:"category_cache"`
}

// New creates a new Config instance with the given flat settings-table rows.
func New(settings map[string]interface{}) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("media_server.type", "")
	v.SetDefault("media_server.url", "")
	v.SetDefault("media_server.api_key", "")
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("general.base_url", "")
	v.SetDefault("general.theme", "system")
	v.SetDefault("requests.default_max_requests", 0)
	v.SetDefault("library_sync.allowlist", []string{})
	v.SetDefault("category_cache.ttl_seconds", 86400)

	nestedSettings := make(map[string]interface{})
	for key, value := range settings {
		switch key {
		case structures.SettingMediaServerType.String():
			nestedSettings["media_server.type"] = value
		case structures.SettingMediaServerURL.String():
			nestedSettings["media_server.url"] = value
		case structures.SettingMediaServerAPIKey.String():
			nestedSettings["media_server.api_key"] = value
		case structures.SettingTMDBAPIKey.String():
			nestedSettings["tmdb.api_key"] = value
		case structures.SettingBaseURL.String():
			nestedSettings["general.base_url"] = value
		case structures.SettingTheme.String():
			nestedSettings["general.theme"] = value
		case structures.SettingDefaultMaxRequests.String():
			nestedSettings["requests.default_max_requests"] = value
		case structures.SettingLibrarySyncAllowlist.String():
			if s, ok := value.(string); ok && s != "" {
				nestedSettings["library_sync.allowlist"] = strings.Split(s, ",")
			}
		case structures.SettingCategoryCacheTTLSeconds.String():
			nestedSettings["category_cache.ttl_seconds"] = value
		}
	}

	for key, value := range nestedSettings {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// NewEmpty creates a new empty Config instance with default values.
func NewEmpty() *Config {
	cfg, _ := New(make(map[string]interface{}))
	return cfg
}
