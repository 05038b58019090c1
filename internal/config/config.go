package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the sitectl settings.
type Config struct {
	Proxy       ProxyConfig       `mapstructure:"proxy" yaml:"proxy"`
	System      SystemConfig      `mapstructure:"system" yaml:"system"`
	Probe       ProbeConfig       `mapstructure:"probe" yaml:"probe"`
	Certificate CertificateConfig `mapstructure:"certificate" yaml:"certificate"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
}

// ProxyConfig holds the limits rendered into every site definition.
type ProxyConfig struct {
	ClientMaxBodySize string        `mapstructure:"client_max_body_size" yaml:"client_max_body_size"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
}

// SystemConfig holds host pre-flight thresholds.
type SystemConfig struct {
	MinFreeSpace string `mapstructure:"min_free_space" yaml:"min_free_space"`
}

// ProbeConfig holds liveness probe settings.
type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CertificateConfig holds certbot settings.
type CertificateConfig struct {
	Email         string `mapstructure:"email" yaml:"email"`
	RenewSchedule string `mapstructure:"renew_schedule" yaml:"renew_schedule"`
}

// MetricsConfig holds the node exporter textfile target. Empty disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// configDir is the default config directory
const configDir = ".config/sitectl"
const configFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. SITECTL_CERTIFICATE_EMAIL.
const EnvPrefix = "SITECTL"

var bodySizePattern = regexp.MustCompile(`^[0-9]+[kKmMgG]?$`)

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Proxy: ProxyConfig{
			ClientMaxBodySize: "10M",
			ConnectTimeout:    60 * time.Second,
			ReadTimeout:       60 * time.Second,
		},
		System:      SystemConfig{MinFreeSpace: "100MB"},
		Probe:       ProbeConfig{Timeout: 2 * time.Second},
		Certificate: CertificateConfig{RenewSchedule: "0 3 * * *"},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads settings from defaults, the config file at path (default
// location when empty) and SITECTL_* environment variables, in increasing
// precedence. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v, New())

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("proxy.client_max_body_size", d.Proxy.ClientMaxBodySize)
	v.SetDefault("proxy.connect_timeout", d.Proxy.ConnectTimeout.String())
	v.SetDefault("proxy.read_timeout", d.Proxy.ReadTimeout.String())
	v.SetDefault("system.min_free_space", d.System.MinFreeSpace)
	v.SetDefault("probe.timeout", d.Probe.Timeout.String())
	v.SetDefault("certificate.email", d.Certificate.Email)
	v.SetDefault("certificate.renew_schedule", d.Certificate.RenewSchedule)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// Save writes the config to path (default location when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.YAML()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// YAML returns the config as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks settings that would otherwise produce a broken site
// definition or an unusable pre-flight check.
func (c *Config) Validate() error {
	var problems []string

	if !bodySizePattern.MatchString(c.Proxy.ClientMaxBodySize) {
		problems = append(problems, fmt.Sprintf("proxy.client_max_body_size %q must look like 10M", c.Proxy.ClientMaxBodySize))
	}
	if c.Proxy.ConnectTimeout < time.Second {
		problems = append(problems, "proxy.connect_timeout must be at least 1s")
	}
	if c.Proxy.ReadTimeout < time.Second {
		problems = append(problems, "proxy.read_timeout must be at least 1s")
	}
	if _, err := c.MinFreeSpaceBytes(); err != nil {
		problems = append(problems, fmt.Sprintf("system.min_free_space: %v", err))
	}
	if c.Probe.Timeout <= 0 {
		problems = append(problems, "probe.timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MinFreeSpaceBytes parses system.min_free_space ("100MB", "1 GiB").
func (c *Config) MinFreeSpaceBytes() (uint64, error) {
	return humanize.ParseBytes(c.System.MinFreeSpace)
}
