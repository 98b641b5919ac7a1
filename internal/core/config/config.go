package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	API           API           `toml:"api"`
	Verification  Verification  `toml:"verification"`
	Paths         Paths         `toml:"paths"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type API struct {
	AnnotatorURL string        `toml:"annotator_url"`
	VerifierURL  string        `toml:"verifier_url"`
	Timeout      time.Duration `toml:"timeout"`
	AuthToken    string        `toml:"auth_token"`
	Rate         Rate          `toml:"rate"`
}

type Rate struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type Verification struct {
	InlineDependencies    *bool    `toml:"inline_dependencies"`
	PreserveTempArtifacts bool     `toml:"preserve_temp_artifacts"`
	MaxFileSize           int64    `toml:"max_file_size"`
	SupportedExtensions   []string `toml:"supported_extensions"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	TempDir     string `toml:"temp_dir"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// InlineEnabled defaults to true when the key is absent from the file.
func (v Verification) InlineEnabled() bool {
	if v.InlineDependencies == nil {
		return true
	}
	return *v.InlineDependencies
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.API.AnnotatorURL) == "" {
		cfg.API.AnnotatorURL = "http://localhost:8000/annotate"
	}
	if strings.TrimSpace(cfg.API.VerifierURL) == "" {
		cfg.API.VerifierURL = "http://localhost:8001/verify"
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.Rate.RequestsPerSecond <= 0 {
		cfg.API.Rate.RequestsPerSecond = 2
	}
	if cfg.API.Rate.Burst <= 0 {
		cfg.API.Rate.Burst = 4
	}

	if cfg.Verification.MaxFileSize <= 0 {
		cfg.Verification.MaxFileSize = 1024 * 1024
	}
	if len(cfg.Verification.SupportedExtensions) == 0 {
		cfg.Verification.SupportedExtensions = []string{".c", ".h"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9090
	}
	if strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
	}
}

func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateAPI(cfg); err != nil {
		return err
	}
	if err := validateVerification(cfg); err != nil {
		return err
	}
	return validateObservability(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateAPI(cfg *Config) error {
	for key, url := range map[string]string{
		"api.annotator_url": cfg.API.AnnotatorURL,
		"api.verifier_url":  cfg.API.VerifierURL,
	} {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", key, url)
		}
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}
	if cfg.API.Rate.Enabled {
		if cfg.API.Rate.RequestsPerSecond <= 0 {
			return fmt.Errorf("api.rate.requests_per_second must be positive")
		}
		if cfg.API.Rate.Burst <= 0 {
			return fmt.Errorf("api.rate.burst must be positive")
		}
	}
	return nil
}

func validateVerification(cfg *Config) error {
	if cfg.Verification.MaxFileSize <= 0 {
		return fmt.Errorf("verification.max_file_size must be positive, got %d", cfg.Verification.MaxFileSize)
	}
	seen := make(map[string]bool, len(cfg.Verification.SupportedExtensions))
	for _, ext := range cfg.Verification.SupportedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("verification.supported_extensions entries must start with a dot, got %q", ext)
		}
		if seen[ext] {
			return fmt.Errorf("duplicate supported extension %q", ext)
		}
		seen[ext] = true
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be in 1..65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must not be empty when tracing is enabled")
	}
	return nil
}
