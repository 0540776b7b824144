// Package config loads and validates Synapse Engine run configuration from
// YAML, with environment variable overrides for anything secret or
// deployment-specific.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"synapse/internal/logging"
)

// Config holds every tunable knob for a single run of the pipeline.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Pool and selection sizing.
	TargetCount      int `yaml:"target_count"`
	CandidatePoolMax int `yaml:"candidate_pool_max"`

	// Selection (MMR) knobs.
	MMRLambda        float64 `yaml:"mmr_lambda"`
	MaxSamePerFacet  int     `yaml:"max_same_per_facet"`
	MaxNearDuplicate int     `yaml:"max_near_duplicate"`

	// Thresholds.
	MinSynapseStrength float64 `yaml:"min_synapse_strength"`
	MinConfidence      float64 `yaml:"min_confidence"`
	MinPassRatio       float64 `yaml:"min_pass_ratio"`

	// Budgets.
	IntentExtractionRetryMax int    `yaml:"intent_extraction_retry_max"`
	ClassificationBudget     int    `yaml:"classification_budget"`
	AdapterConcurrency       int    `yaml:"adapter_concurrency"`
	RunDeadline              string `yaml:"run_deadline"`

	// Versioning, carried into run provenance.
	TaxonomyVersion string `yaml:"taxonomy_version"`

	// LLM configuration.
	LLM LLMConfig `yaml:"llm"`

	// Logging.
	Logging LoggingConfig `yaml:"logging"`

	// Replay/offline adapter configuration.
	Replay ReplayConfig `yaml:"replay"`
}

// LLMConfig configures the LLM-backed intent/synapse adapter.
type LLMConfig struct {
	Provider            string `yaml:"provider"` // "genai" or "offline"
	Model               string `yaml:"model"`
	APIKey              string `yaml:"-"` // never persisted, env-only
	Timeout             string `yaml:"timeout"`
	IntentPromptVersion string `yaml:"intent_prompt_version"`
	SynapsePromptVersion string `yaml:"synapse_prompt_version"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// ReplayConfig configures the sqlite-backed adapter response cache used for
// deterministic test runs.
type ReplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
	Mode    string `yaml:"mode"` // "record" or "replay"
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "synapse",
		Version: "0.1.0",

		TargetCount:      50,
		CandidatePoolMax: 800,

		MMRLambda:        0.75,
		MaxSamePerFacet:  12,
		MaxNearDuplicate: 5,

		MinSynapseStrength: 0.30,
		MinConfidence:      0.60,
		MinPassRatio:       0.70,

		IntentExtractionRetryMax: 3,
		ClassificationBudget:     200,
		AdapterConcurrency:       8,
		RunDeadline:              "90s",

		TaxonomyVersion: "taxonomy-v1",

		LLM: LLMConfig{
			Provider:             "offline",
			Model:                "gemini-2.5-flash",
			Timeout:              "30s",
			IntentPromptVersion:  "intent-v1",
			SynapsePromptVersion: "synapse-v1",
		},

		Logging: LoggingConfig{
			Level:      "info",
			JSONFormat: false,
		},

		Replay: ReplayConfig{
			Enabled: false,
			DBPath:  "data/synapse_replay.db",
			Mode:    "replay",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults if the
// file does not exist, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BootDebug("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		logging.BootError("failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.BootError("failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	logging.Boot("config loaded: target_count=%d pool_max=%d llm_provider=%s", cfg.TargetCount, cfg.CandidatePoolMax, cfg.LLM.Provider)
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "offline" {
			c.LLM.Provider = "genai"
		}
	}
	if model := os.Getenv("SYNAPSE_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if v := os.Getenv("SYNAPSE_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
	if v := os.Getenv("SYNAPSE_ADAPTER_CONCURRENCY"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			c.AdapterConcurrency = n
		}
	}
	if v := os.Getenv("SYNAPSE_TARGET_COUNT"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			c.TargetCount = n
		}
	}
	if path := os.Getenv("SYNAPSE_REPLAY_DB"); path != "" {
		c.Replay.DBPath = path
		c.Replay.Enabled = true
	}
}

func parsePositiveInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive: %s", s)
	}
	return n, nil
}

// RunDeadlineDuration returns the configured run deadline, defaulting to 90s
// if the configured value fails to parse.
func (c *Config) RunDeadlineDuration() time.Duration {
	d, err := time.ParseDuration(c.RunDeadline)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// LLMTimeoutDuration returns the configured LLM call timeout.
func (c *Config) LLMTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate checks invariants the orchestrator relies on before starting a run.
func (c *Config) Validate() error {
	if c.TargetCount <= 0 {
		return fmt.Errorf("target_count must be positive")
	}
	if c.CandidatePoolMax < c.TargetCount {
		return fmt.Errorf("candidate_pool_max (%d) must be >= target_count (%d)", c.CandidatePoolMax, c.TargetCount)
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		return fmt.Errorf("mmr_lambda must be in [0,1], got %f", c.MMRLambda)
	}
	if c.AdapterConcurrency <= 0 {
		return fmt.Errorf("adapter_concurrency must be positive")
	}
	if c.LLM.Provider == "genai" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm provider genai requires GEMINI_API_KEY")
	}
	return nil
}
