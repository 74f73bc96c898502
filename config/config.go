// Package config loads the YAML configuration shared by the inference
// service and the web UI.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"fraudguard/logging"
)

// Config 全局配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Model    ModelConfig    `yaml:"model"`
	Database DatabaseConfig `yaml:"database"`
	Log      logging.Config `yaml:"log"`
	UI       UIConfig       `yaml:"ui"`
}

// ServerConfig 推理服务配置
type ServerConfig struct {
	Host           string          `yaml:"host"`
	Port           int             `yaml:"port"`
	Timeout        time.Duration   `yaml:"timeout"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	MaxBodyBytes   int64           `yaml:"max_body_bytes"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig disables limiting when RequestsPerSecond <= 0.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type ModelConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// DatabaseConfig enables the prediction log when Path is set.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// UIConfig 前端配置
type UIConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	APIURL        string        `yaml:"api_url"`
	Timeout       time.Duration `yaml:"timeout"`
	HealthTimeout time.Duration `yaml:"health_timeout"`
}

const (
	EnvModelPath    = "FRAUDGUARD_MODEL_PATH"
	EnvDatabasePath = "FRAUDGUARD_DATABASE_PATH"
	EnvLogLevel     = "FRAUDGUARD_LOG_LEVEL"
	EnvAPIURL       = "API_URL"
)

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 20,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Model: ModelConfig{
			Type: "decision_tree",
			Path: "models/fraud_detection_model.json",
		},
		Log: logging.Config{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		UI: UIConfig{
			Host:          "0.0.0.0",
			Port:          8501,
			APIURL:        "http://localhost:8000",
			Timeout:       10 * time.Second,
			HealthTimeout: 2 * time.Second,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path yields the defaults plus environment. Relative model, database
// and log file paths are taken relative to the config file's directory;
// environment values stay relative to the working directory.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		dec := yaml.NewDecoder(file)
		dec.SetStrict(true)
		if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		config.rebase(filepath.Dir(path))
	}
	config.applyEnv()
	config.fillDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) rebase(dir string) {
	c.Model.Path = rebasePath(dir, c.Model.Path)
	c.Database.Path = rebasePath(dir, c.Database.Path)
	c.Log.File = rebasePath(dir, c.Log.File)
}

// rebasePath leaves empty, absolute and SQLite special names (":memory:",
// "file:...") untouched.
func rebasePath(dir, p string) string {
	if p == "" || dir == "." || filepath.IsAbs(p) || strings.HasPrefix(p, ":") || strings.HasPrefix(p, "file:") {
		return p
	}
	return filepath.Join(dir, p)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvModelPath); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.UI.APIURL = v
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = d.Server.Timeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}
	if c.Model.Type == "" {
		c.Model.Type = d.Model.Type
	}
	if c.UI.Host == "" {
		c.UI.Host = d.UI.Host
	}
	if c.UI.Port == 0 {
		c.UI.Port = d.UI.Port
	}
	if c.UI.Timeout == 0 {
		c.UI.Timeout = d.UI.Timeout
	}
	if c.UI.HealthTimeout == 0 {
		c.UI.HealthTimeout = d.UI.HealthTimeout
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.UI.Port < 1 || c.UI.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port %d out of range", c.UI.Port))
	}
	if c.Server.Timeout < 0 || c.UI.Timeout < 0 || c.UI.HealthTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if u, err := url.Parse(c.UI.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("ui.api_url %q must be an absolute http(s) URL", c.UI.APIURL))
	}
	return errors.Join(errs...)
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (u UIConfig) Addr() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}
