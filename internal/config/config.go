package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom/internal/ai"
)

// Global configuration structure.
type Global struct {
	// Planner (optional LLM that turns focus areas into a metric plan)
	APIKey            string `mapstructure:"api_key" yaml:"api_key"`
	PlannerProvider   string `mapstructure:"planner_provider" yaml:"planner_provider"`
	PlannerModel      string `mapstructure:"planner_model" yaml:"planner_model"`
	PlannerTimeoutSec int    `mapstructure:"planner_timeout_sec" yaml:"planner_timeout_sec"`
	OllamaHost        string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Engine
	DefaultDepth string `mapstructure:"default_depth" yaml:"default_depth"`
	Parallelism  int    `mapstructure:"parallelism" yaml:"parallelism"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// HTTP server
	ServerAddr  string   `mapstructure:"server_addr" yaml:"server_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"api_key", "planner_provider", "planner_model", "planner_timeout_sec", "ollama_host",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"default_depth", "parallelism", "log_level", "server_addr", "cors_origins",
}

// DefaultDir returns ~/.tabloom.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded into the environment first when present.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TABLOOM")
	v.AutomaticEnv()

	v.SetDefault("planner_provider", "")
	v.SetDefault("planner_model", "")
	v.SetDefault("planner_timeout_sec", 30)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("default_depth", "detailed")
	v.SetDefault("parallelism", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("cors_origins", []string{"*"})
	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("api_key", "")

	switch {
	case cfgFile != "" && !exists(cfgFile):
		// a missing explicit file is created on the first Save
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	default:
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// comma-separated env values arrive as one element
	if len(c.CORSOrigins) == 1 && strings.Contains(c.CORSOrigins[0], ",") {
		c.CORSOrigins = splitList(c.CORSOrigins[0])
	}
	return &c, nil
}

// Set assigns key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid non-negative int for %s: %q", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "api_key":
		c.APIKey = val
	case "planner_provider":
		switch strings.ToLower(val) {
		case "", "none":
			c.PlannerProvider = ""
		case ai.ProviderOpenRouter:
			c.PlannerProvider = ai.ProviderOpenRouter
		case ai.ProviderOllama, "local":
			c.PlannerProvider = ai.ProviderOllama
		default:
			return fmt.Errorf("invalid planner_provider: %s (use openrouter, ollama or none)", val)
		}
	case "planner_model":
		c.PlannerModel = val
	case "planner_timeout_sec":
		c.PlannerTimeoutSec, err = atoi()
	case "ollama_host":
		c.OllamaHost = val
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi()
	case "default_depth":
		switch strings.ToLower(val) {
		case "basic", "detailed":
			c.DefaultDepth = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid default_depth: %s (use basic or detailed)", val)
		}
	case "parallelism":
		c.Parallelism, err = atoi()
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "server_addr":
		c.ServerAddr = val
	case "cors_origins":
		c.CORSOrigins = splitList(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// RuntimeConfig maps HTTP and retry settings onto the runtime factory knobs.
func (c *Global) RuntimeConfig() ai.RuntimeConfig {
	return ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		Host:        c.OllamaHost,
	}
}

// PlannerTimeout returns the bound on one planning call.
func (c *Global) PlannerTimeout() time.Duration {
	if c.PlannerTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PlannerTimeoutSec) * time.Second
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
