package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultProModel  = "gpt-5.2"
	DefaultFreeModel = "deepseek/deepseek-r1-0528:free"

	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Config holds backend configuration for both tiers.
type Config struct {
	// ProVendor selects the document-native backend.
	// Values: "openai", "anthropic", "gemini", "mock".
	ProVendor string `toml:"pro_vendor"`

	// FreeVendor selects the text-only backend: "openrouter" or "mock".
	FreeVendor string `toml:"free_vendor"`

	OpenAI     VendorConfig `toml:"openai"`
	Anthropic  VendorConfig `toml:"anthropic"`
	Gemini     VendorConfig `toml:"gemini"`
	OpenRouter VendorConfig `toml:"openrouter"`
	Retry      RetryConfig  `toml:"retry"`

	// TimeoutSeconds bounds a single backend call. Default: 300.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// VendorConfig holds credentials and defaults for one vendor.
type VendorConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// RetryConfig configures retry behavior for transient backend failures.
// MaxAttempts of 1 disables retries.
type RetryConfig struct {
	MaxAttempts   int     `toml:"max_attempts"`
	InitialWaitMS int     `toml:"initial_wait_ms"`
	MaxWaitMS     int     `toml:"max_wait_ms"`
	Multiplier    float64 `toml:"multiplier"`
}

func (r RetryConfig) initialWait() time.Duration {
	return time.Duration(r.InitialWaitMS) * time.Millisecond
}

func (r RetryConfig) maxWait() time.Duration {
	return time.Duration(r.MaxWaitMS) * time.Millisecond
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ProVendor:  "openai",
		FreeVendor: "openrouter",
		OpenAI: VendorConfig{
			Model:   DefaultProModel,
			BaseURL: defaultOpenAIBaseURL,
		},
		Anthropic: VendorConfig{
			Model: "claude-sonnet",
		},
		Gemini: VendorConfig{
			Model: "gemini-flash",
		},
		OpenRouter: VendorConfig{
			Model:   DefaultFreeModel,
			BaseURL: defaultOpenRouterBaseURL,
		},
		Retry: RetryConfig{
			MaxAttempts:   1,
			InitialWaitMS: 1000,
			MaxWaitMS:     10000,
			Multiplier:    2.0,
		},
		TimeoutSeconds: 300,
	}
}

// Timeout returns the per-call ceiling.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ApplyEnv overlays environment variables onto c. Project-specific names
// win over the conventional vendor names.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("STUDYQUIZ_PRO_VENDOR"); v != "" {
		c.ProVendor = v
	}
	applyVendorEnv(&c.OpenAI, "OPENAI")
	applyVendorEnv(&c.Anthropic, "ANTHROPIC")
	applyVendorEnv(&c.Gemini, "GEMINI")
	applyVendorEnv(&c.OpenRouter, "OPENROUTER")
}

func applyVendorEnv(v *VendorConfig, vendor string) {
	for _, name := range []string{"STUDYQUIZ_" + vendor + "_API_KEY", vendor + "_API_KEY"} {
		if k := CleanKey(os.Getenv(name)); k != "" {
			v.APIKey = k
			break
		}
	}
	if m := os.Getenv("STUDYQUIZ_" + vendor + "_MODEL"); m != "" {
		v.Model = m
	}
	if u := os.Getenv("STUDYQUIZ_" + vendor + "_BASE_URL"); u != "" {
		v.BaseURL = u
	}
}

// CleanKey strips surrounding whitespace and quote characters from a
// credential value.
func CleanKey(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// keyEnvName is the variable name reported when a credential is missing.
func keyEnvName(vendor string) string {
	return strings.ToUpper(vendor) + "_API_KEY"
}

// Validate checks vendor names and numeric bounds. Missing credentials are
// not an error here: they surface per request as *ConfigError.
func (c Config) Validate() error {
	switch c.ProVendor {
	case "openai", "anthropic", "gemini", "mock":
	default:
		return fmt.Errorf("unknown pro vendor: %q", c.ProVendor)
	}
	switch c.FreeVendor {
	case "openrouter", "mock":
	default:
		return fmt.Errorf("unknown free vendor: %q", c.FreeVendor)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("llm timeout_seconds must be >= 0")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm retry max_attempts must be >= 1")
	}
	return nil
}
