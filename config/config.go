package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global service configuration
type Config struct {
	// General configuration
	General struct {
		// LogLevel is the logging level
		LogLevel string `yaml:"logLevel"`
	} `yaml:"general"`

	// HTTP server configuration
	HTTP struct {
		// Enabled enables the HTTP server
		Enabled bool `yaml:"enabled"`

		// Address to bind the HTTP server
		Address string `yaml:"address"`

		// Port to bind the HTTP server
		Port int `yaml:"port"`

		// CORS configuration
		CORS struct {
			// Enabled enables CORS
			Enabled bool `yaml:"enabled"`

			// AllowedOrigins is the list of allowed origins
			AllowedOrigins []string `yaml:"allowedOrigins"`
		} `yaml:"cors"`
	} `yaml:"http"`

	// Directory watcher configuration
	Watch struct {
		// Mode is "poll" or "fsnotify"
		Mode string `yaml:"mode"`

		// PollInterval is the time between directory scans in poll mode
		PollInterval time.Duration `yaml:"pollInterval"`

		// BaseDir is the folder under the user's home that holds sync folders
		BaseDir string `yaml:"baseDir"`

		// FolderName is the watched subfolder of BaseDir
		FolderName string `yaml:"folderName"`

		// Path overrides home-based resolution when set
		Path string `yaml:"path"`
	} `yaml:"watch"`

	// Upload pipeline configuration
	Upload struct {
		// Prefix is prepended to every destination key
		Prefix string `yaml:"prefix"`

		// MaxConcurrent bounds parallel transfers, 0 means unbounded
		MaxConcurrent int `yaml:"maxConcurrent"`
	} `yaml:"upload"`

	// Remote storage configuration
	Storage struct {
		// Engine is "s3" or "memory"
		Engine string `yaml:"engine"`

		S3 struct {
			Bucket       string `yaml:"bucket"`
			Region       string `yaml:"region"`
			Endpoint     string `yaml:"endpoint"`
			AccessKey    string `yaml:"accessKey"`
			SecretKey    string `yaml:"secretKey"`
			UsePathStyle bool   `yaml:"usePathStyle"`
		} `yaml:"s3"`
	} `yaml:"storage"`

	// Log output configuration, the level lives in general.logLevel
	Logging struct {
		ChannelSize int    `yaml:"channelSize"`
		Format      string `yaml:"format"` // "json" or "text"
		Output      string `yaml:"output"` // "stdout" or "stderr"
	} `yaml:"logging"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	c := &Config{}

	// General configuration
	c.General.LogLevel = "info"

	// HTTP server configuration
	c.HTTP.Enabled = true
	c.HTTP.Address = "0.0.0.0"
	c.HTTP.Port = 5002
	c.HTTP.CORS.Enabled = true
	c.HTTP.CORS.AllowedOrigins = []string{"*"}

	// Watcher configuration
	c.Watch.Mode = "poll"
	c.Watch.PollInterval = time.Second
	c.Watch.BaseDir = "Desktop"
	c.Watch.FolderName = "autoSync"
	c.Watch.Path = ""

	// Upload configuration
	c.Upload.Prefix = "autoSync"
	c.Upload.MaxConcurrent = 0

	// Storage configuration
	c.Storage.Engine = "s3"
	c.Storage.S3.Bucket = "autosync"
	c.Storage.S3.Region = "us-east-1"
	c.Storage.S3.Endpoint = ""
	c.Storage.S3.UsePathStyle = false

	// Logging configuration defaults
	c.Logging.ChannelSize = 1000
	c.Logging.Format = "json"
	c.Logging.Output = "stdout"

	return c
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Load the default configuration
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Relative override paths are resolved against the config file location
	if config.Watch.Path != "" && !filepath.IsAbs(config.Watch.Path) {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		config.Watch.Path = filepath.Join(dir, config.Watch.Path)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Create parent directory if necessary
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	logLevel := strings.ToLower(config.General.LogLevel)
	if logLevel != "debug" && logLevel != "info" && logLevel != "warn" && logLevel != "error" {
		return fmt.Errorf("invalid log level: %s", config.General.LogLevel)
	}

	if config.HTTP.Enabled && (config.HTTP.Port < 1 || config.HTTP.Port > 65535) {
		return fmt.Errorf("invalid HTTP port: %d", config.HTTP.Port)
	}

	mode := strings.ToLower(config.Watch.Mode)
	if mode != "poll" && mode != "fsnotify" {
		return fmt.Errorf("invalid watch mode: %s", config.Watch.Mode)
	}

	if mode == "poll" && config.Watch.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval: %s", config.Watch.PollInterval)
	}

	if config.Watch.Path == "" && config.Watch.FolderName == "" {
		return fmt.Errorf("watch folder name or path must be set")
	}

	if config.Upload.MaxConcurrent < 0 {
		return fmt.Errorf("invalid max concurrent uploads: %d", config.Upload.MaxConcurrent)
	}

	engine := strings.ToLower(config.Storage.Engine)
	if engine != "s3" && engine != "memory" {
		return fmt.Errorf("invalid storage engine: %s", config.Storage.Engine)
	}

	if engine == "s3" && config.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3 bucket must be set")
	}

	return nil
}
