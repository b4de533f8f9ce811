package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"browser-commander/internal/infrastructure/env"
)

type Config struct {
	Headless           bool          `yaml:"headless"`
	Stealth            bool          `yaml:"stealth"`
	CommandTimeout     time.Duration `yaml:"command_timeout"`
	LogDir             string        `yaml:"log_dir"`
	AutoCaptchaVisible bool          `yaml:"auto_captcha_visible"`
	CaptchaWait        time.Duration `yaml:"captcha_wait"`
	CaptchaPoll        time.Duration `yaml:"captcha_poll"`

	LLM        LLMConfig        `yaml:"llm"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Retry      RetryConfig      `yaml:"retry"`
	Store      StoreConfig      `yaml:"store"`
}

type LLMConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (c LLMConfig) Enabled() bool {
	return c.Provider != "" && c.APIKey != "" && c.Model != ""
}

type ClassifierConfig struct {
	LLMThreshold float64 `yaml:"llm_threshold"`
}

type ValidatorConfig struct {
	Threshold float64            `yaml:"threshold"`
	Weights   map[string]float64 `yaml:"weights"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Initial     time.Duration `yaml:"initial"`
	Max         time.Duration `yaml:"max"`
	Factor      float64       `yaml:"factor"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

const (
	ProviderOpenRouter = "openrouter"
	ProviderLangChain  = "langchain"
)

func Default() Config {
	return Config{
		Headless:           true,
		Stealth:            true,
		CommandTimeout:     5 * time.Minute,
		LogDir:             "log",
		AutoCaptchaVisible: true,
		CaptchaWait:        60 * time.Second,
		CaptchaPoll:        2 * time.Second,
		LLM: LLMConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Timeout: 20 * time.Second,
		},
		Classifier: ClassifierConfig{LLMThreshold: 0.6},
		Validator:  ValidatorConfig{Threshold: 0.6},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Initial:     time.Second,
			Max:         30 * time.Second,
			Factor:      2,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment variables.
func Load(path string, e *env.EnvService) (Config, error) {
	cfg := Default()

	if path == "" && e != nil {
		path = e.Get("AGENT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if e != nil {
		applyEnv(&cfg, e)
	}
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *Config, e *env.EnvService) {
	cfg.Headless = e.GetBool("BROWSER_HEADLESS", cfg.Headless)
	cfg.Stealth = e.GetBool("BROWSER_STEALTH", cfg.Stealth)
	cfg.CommandTimeout = e.GetDuration("COMMAND_TIMEOUT", cfg.CommandTimeout)
	cfg.LogDir = e.GetWithDefault("LOG_DIR", cfg.LogDir)
	cfg.AutoCaptchaVisible = e.GetBool("AUTO_CAPTCHA_VISIBLE", cfg.AutoCaptchaVisible)
	cfg.CaptchaWait = e.GetDuration("CAPTCHA_WAIT", cfg.CaptchaWait)

	cfg.LLM.Provider = e.GetWithDefault("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.APIKey = e.GetWithDefault("OPENROUTER_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = e.GetWithDefault("OPENROUTER_MODEL_NAME", cfg.LLM.Model)
	cfg.LLM.BaseURL = e.GetWithDefault("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Timeout = e.GetDuration("LLM_TIMEOUT", cfg.LLM.Timeout)
	if cfg.LLM.Provider == "" && cfg.LLM.APIKey != "" {
		cfg.LLM.Provider = ProviderOpenRouter
	}

	cfg.Classifier.LLMThreshold = e.GetFloat("CLASSIFIER_LLM_THRESHOLD", cfg.Classifier.LLMThreshold)
	cfg.Validator.Threshold = e.GetFloat("VALIDATION_THRESHOLD", cfg.Validator.Threshold)
	cfg.Store.Path = e.GetWithDefault("RUN_STORE_PATH", cfg.Store.Path)
}

// SetLogDir moves the log directory; a store path derived from the old one follows it.
func (c *Config) SetLogDir(dir string) {
	if c.Store.Path == "" || c.Store.Path == filepath.Join(c.LogDir, "runs.db") {
		c.Store.Path = filepath.Join(dir, "runs.db")
	}
	c.LogDir = dir
}

func (c *Config) normalize() {
	if c.LogDir == "" {
		c.LogDir = "log"
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.LogDir, "runs.db")
	}
	if c.CaptchaPoll <= 0 {
		c.CaptchaPoll = 2 * time.Second
	}
	if c.CaptchaWait <= 0 {
		c.CaptchaWait = 60 * time.Second
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
}
