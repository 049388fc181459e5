// Package config loads WebPilot configuration from a YAML file with
// sensible defaults for every field, so a missing or partial file is
// never fatal.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the LLM provider connection.
type LLMConfig struct {
	// APIKey authenticates against the provider. Falls back to the
	// OPENAI_API_KEY environment variable when empty.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint for OpenAI-compatible APIs.
	BaseURL string `yaml:"base_url"`

	// Model is the model used for reasoning and planning.
	Model string `yaml:"model"`
}

// BrowserConfig configures the browser surface provider.
type BrowserConfig struct {
	// Headless controls whether surfaces run without a visible window.
	Headless bool `yaml:"headless"`

	// ViewportWidth and ViewportHeight set the surface viewport in CSS pixels.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// SettleTimeoutMS bounds the best-effort wait for a page to settle
	// after a state-mutating action.
	SettleTimeoutMS int `yaml:"settle_timeout_ms"`

	// NavigationTimeoutMS bounds page navigations.
	NavigationTimeoutMS int `yaml:"navigation_timeout_ms"`
}

// AgentConfig configures the per-task think-act-observe loop.
type AgentConfig struct {
	// MaxSteps is the step budget for a single task loop.
	MaxSteps int `yaml:"max_steps"`

	// MemoryBudgetTokens bounds the estimated size of conversation memory
	// before summarization kicks in.
	MemoryBudgetTokens int `yaml:"memory_budget_tokens"`

	// KeepRecentEntries is how many entries stay verbatim when summarizing.
	KeepRecentEntries int `yaml:"keep_recent_entries"`

	// EntryCapChars truncates any single appended memory entry.
	EntryCapChars int `yaml:"entry_cap_chars"`
}

// Config is the root WebPilot configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Browser BrowserConfig `yaml:"browser"`
	Agent   AgentConfig   `yaml:"agent"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model: "gpt-4o",
		},
		Browser: BrowserConfig{
			Headless:            true,
			ViewportWidth:       1280,
			ViewportHeight:      800,
			SettleTimeoutMS:     3000,
			NavigationTimeoutMS: 30000,
		},
		Agent: AgentConfig{
			MaxSteps:           25,
			MemoryBudgetTokens: 16000,
			KeepRecentEntries:  6,
			EntryCapChars:      8000,
		},
	}
}

// Load reads the configuration at path, layering it over the defaults.
// A missing file returns the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
}
