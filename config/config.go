package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort                   = "8080"
	defaultTitleCount             = 1500
	defaultFulltextCount          = 100
	defaultDelegateDebounce       = 80 * time.Millisecond
	defaultDelegateCacheSize      = 64
	defaultDelegateCacheTTL       = 30 * time.Second
	defaultRefreshInterval        = time.Hour
	defaultDriveRequestsPerSecond = 8.0
	defaultDriveBurst             = 10
)

type Config struct {
	config *viper.Viper
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	setDefaults(viperConfig)
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

// New wraps an already populated viper instance. Used by tests that build
// configuration in code.
func New(v *viper.Viper) *Config {
	setDefaults(v)
	return &Config{config: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("log.level", "info")
	v.SetDefault("index.title_count", defaultTitleCount)
	v.SetDefault("index.fulltext_count", defaultFulltextCount)
	v.SetDefault("index.refresh_interval", defaultRefreshInterval)
	v.SetDefault("delegate.enabled", true)
	v.SetDefault("delegate.debounce", defaultDelegateDebounce)
	v.SetDefault("delegate.cache_size", defaultDelegateCacheSize)
	v.SetDefault("delegate.cache_ttl", defaultDelegateCacheTTL)
	v.SetDefault("drive.requests_per_second", defaultDriveRequestsPerSecond)
	v.SetDefault("drive.burst", defaultDriveBurst)
}

// getString prefers the flat environment variable over the nested config key.
func (c *Config) getString(envKey string, configKey string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(configKey)
	}

	return value
}

func (c *Config) GetPort() string {
	return c.getString("PORT", "server.port")
}

func (c *Config) GetLogLevel() string {
	return c.getString("LOG_LEVEL", "log.level")
}

func (c *Config) GetStorePath() string {
	return c.getString("STORE_PATH", "database.store_path")
}

func (c *Config) GetIndexPath() string {
	return c.getString("INDEX_PATH", "database.index_path")
}

func (c *Config) GetStoragePath() string {
	return c.getString("STORAGE_PATH", "database.storage_path")
}

func (c *Config) GetTitleCount() int {
	return c.config.GetInt("index.title_count")
}

func (c *Config) GetFulltextCount() int {
	return c.config.GetInt("index.fulltext_count")
}

func (c *Config) GetRefreshInterval() time.Duration {
	return c.config.GetDuration("index.refresh_interval")
}

func (c *Config) IsDelegateEnabled() bool {
	return c.config.GetBool("delegate.enabled")
}

func (c *Config) GetDelegateDebounce() time.Duration {
	return c.config.GetDuration("delegate.debounce")
}

func (c *Config) GetDelegateCacheSize() int {
	return c.config.GetInt("delegate.cache_size")
}

func (c *Config) GetDelegateCacheTTL() time.Duration {
	return c.config.GetDuration("delegate.cache_ttl")
}

func (c *Config) GetDriveAccessToken() string {
	return c.getString("DRIVE_ACCESS_TOKEN", "drive.access_token")
}

func (c *Config) GetDriveEndpoint() string {
	return c.getString("DRIVE_ENDPOINT", "drive.endpoint")
}

func (c *Config) GetDriveRequestsPerSecond() float64 {
	return c.config.GetFloat64("drive.requests_per_second")
}

func (c *Config) GetDriveBurst() int {
	return c.config.GetInt("drive.burst")
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
