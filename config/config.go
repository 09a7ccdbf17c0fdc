package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// APIConfig configures the SAHOOL backend connection.
type APIConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	RetryCount  int
}

// CacheConfig configures the query cache: per-entity staleness windows and an
// optional Redis backend (in-process memory when Addr is empty).
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ActiveSessionTTL time.Duration
	ObservationsTTL  time.Duration
	SummaryTTL       time.Duration
	StatisticsTTL    time.Duration
	HistoryTTL       time.Duration
}

// OfflineConfig configures the durable offline observation store.
type OfflineConfig struct {
	Dir      string
	InMemory bool
}

// MQTTConfig configures the field sensor feed used for weather snapshots.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	// TopicPattern is expanded with the field id, e.g.
	// "sahool/fields/%s/weather".
	TopicPattern string
}

// Config is the full library configuration.
type Config struct {
	API     APIConfig
	Cache   CacheConfig
	Offline OfflineConfig
	MQTT    MQTTConfig

	LogLevel  string
	LogFormat string
}

// Default returns the configuration the library ships with. The 15 second API
// timeout matches the scouting facade's fixed request budget.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "https://api.sahool.app",
			Timeout:    15 * time.Second,
			RetryCount: 2,
		},
		Cache: CacheConfig{
			ActiveSessionTTL: 30 * time.Second,
			ObservationsTTL:  time.Minute,
			SummaryTTL:       time.Minute,
			StatisticsTTL:    5 * time.Minute,
			HistoryTTL:       2 * time.Minute,
		},
		Offline: OfflineConfig{
			Dir: defaultOfflineDir(),
		},
		MQTT: MQTTConfig{
			ClientID:     "sahool-scouting",
			QoS:          1,
			TopicPattern: "sahool/fields/%s/weather",
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

func defaultOfflineDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sahool", "scouting-offline")
}

// LoadFromEnv overrides API settings from SAHOOL_API_* variables.
func (c *APIConfig) LoadFromEnv(prefix string) {
	if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(prefix + "_ACCESS_TOKEN"); v != "" {
		c.AccessToken = v
	}
	if v := os.Getenv(prefix + "_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv(prefix + "_RETRY_COUNT"); v != "" {
		fmt.Sscanf(v, "%d", &c.RetryCount)
	}
}

// LoadFromEnv overrides cache settings from SAHOOL_CACHE_* variables.
func (c *CacheConfig) LoadFromEnv(prefix string) {
	if v := os.Getenv(prefix + "_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv(prefix + "_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv(prefix + "_REDIS_DB"); v != "" {
		fmt.Sscanf(v, "%d", &c.RedisDB)
	}
	if v := os.Getenv(prefix + "_ACTIVE_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ActiveSessionTTL = d
		}
	}
	if v := os.Getenv(prefix + "_STATISTICS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.StatisticsTTL = d
		}
	}
}

// LoadFromEnv overrides offline store settings from SAHOOL_OFFLINE_* variables.
func (c *OfflineConfig) LoadFromEnv(prefix string) {
	if v := os.Getenv(prefix + "_DIR"); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(prefix + "_IN_MEMORY"); v == "true" || v == "1" {
		c.InMemory = true
	}
}

// LoadFromEnv overrides MQTT settings from SAHOOL_MQTT_* variables.
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	if v := os.Getenv(prefix + "_BROKER"); v != "" {
		c.Broker = v
	}
	if v := os.Getenv(prefix + "_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv(prefix + "_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv(prefix + "_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv(prefix + "_TOPIC_PATTERN"); v != "" {
		c.TopicPattern = v
	}
}

// Load builds the default configuration with all SAHOOL_* env overrides
// applied.
func Load() *Config {
	c := Default()
	c.API.LoadFromEnv("SAHOOL_API")
	c.Cache.LoadFromEnv("SAHOOL_CACHE")
	c.Offline.LoadFromEnv("SAHOOL_OFFLINE")
	c.MQTT.LoadFromEnv("SAHOOL_MQTT")
	if v := os.Getenv("SAHOOL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SAHOOL_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return c
}
