package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all daemon settings. It is constructed once at startup and
// threaded through component constructors; nothing reads globals after that.
type Config struct {
	// HTTP API
	Port int `mapstructure:"port"`

	// Deployment identity (labels only, plus the container to watch)
	ContainerName string `mapstructure:"container_name"`
	DeploymentID  string `mapstructure:"deployment_id"`
	AppName       string `mapstructure:"app_name"`

	// Log sources and persistence
	ProvisioningLog string `mapstructure:"provisioning_log"`
	LogDir          string `mapstructure:"log_dir"`

	// Buffer capacities
	LogBufferSize   int `mapstructure:"log_buffer_size"`
	IssueBufferSize int `mapstructure:"issue_buffer_size"`

	Quiet   bool `mapstructure:"quiet"`
	Verbose bool `mapstructure:"verbose"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Port:            9090,
		ContainerName:   "app",
		DeploymentID:    "unknown",
		AppName:         "unknown",
		ProvisioningLog: "/var/log/cloud-init-output.log",
		LogDir:          "/var/log/build-monitor",
		LogBufferSize:   1000,
		IssueBufferSize: 100,
	}
}

// Load loads configuration from files and environment.
// Config file search order (highest precedence first):
// 1. ./.buildwatch.yaml or ./.buildwatch.yml
// 2. ~/.buildwatch.yaml or ~/.buildwatch.yml
// 3. $XDG_CONFIG_HOME/buildwatch/config.yaml
// 4. /etc/buildwatch/config.yaml
// Environment variables override file values.
func Load() (*Config, error) {
	cfg := Default()

	// A .env dropped next to the daemon by the provisioning script carries
	// the BUILD_* identifiers. Missing file is not an error.
	_ = godotenv.Load()

	configFile := findConfigFile()
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}

		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// findConfigFile searches for config file in standard locations.
func findConfigFile() string {
	names := []string{".buildwatch.yaml", ".buildwatch.yml", "buildwatch.yaml", "buildwatch.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string

	cwd, err := os.Getwd()
	if err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "buildwatch"))
	}
	searchPaths = append(searchPaths, "/etc/buildwatch")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to config.
// The BUILD_* names match what the provisioning script exports.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BUILD_CONTAINER_NAME"); v != "" {
		cfg.ContainerName = v
	}
	if v := os.Getenv("BUILD_DEPLOYMENT_ID"); v != "" {
		cfg.DeploymentID = v
	}
	if v := os.Getenv("BUILD_APP_NAME"); v != "" {
		cfg.AppName = v
	}
	if v := os.Getenv("BUILD_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("BUILD_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("BUILD_PROVISIONING_LOG"); v != "" {
		cfg.ProvisioningLog = v
	}
	if v := os.Getenv("BUILD_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("BUILD_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
}

// LogFilePath returns the append-only log file location under LogDir.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.LogDir, "build-monitor.log")
}
