// Package config loads and validates cbg configuration.
//
// Precedence, lowest to highest: built-in defaults, .cbg/config.json,
// .cbg/policy.toml (thresholds and safety tables only), CBG_* environment
// variables. Validation runs once at startup; a malformed threshold fails
// fast rather than mid-query.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	cbgerrors "cbg/internal/errors"
)

// Config is the complete cbg configuration.
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Ask        AskConfig        `json:"ask" mapstructure:"ask"`
	Thresholds ThresholdsConfig `json:"thresholds" mapstructure:"thresholds"`
	Ranking    RankingConfig    `json:"ranking" mapstructure:"ranking"`
	Topics     TopicsConfig     `json:"topics" mapstructure:"topics"`
	Safety     SafetyConfig     `json:"safety" mapstructure:"safety"`
	LLM        LLMConfig        `json:"llm" mapstructure:"llm"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// AskConfig bounds evidence retrieval.
type AskConfig struct {
	HopLimit int `json:"hopLimit" mapstructure:"hopLimit"`
	TopK     int `json:"topK" mapstructure:"topK"`
}

// ThresholdsConfig gates the abstain policy.
type ThresholdsConfig struct {
	// MinConfidence: below this the answer is flagged needs_human.
	MinConfidence float64 `json:"minConfidence" mapstructure:"minConfidence"`
	// FlaggedMaxConfidence: a sensitive question whose computed confidence
	// exceeds this cap is forced into escalate mode.
	FlaggedMaxConfidence float64 `json:"flaggedMaxConfidence" mapstructure:"flaggedMaxConfidence"`
}

// RankingConfig holds the evidence scoring weight table.
type RankingConfig struct {
	TermOverlap  float64 `json:"termOverlap" mapstructure:"termOverlap"`
	RelationKind float64 `json:"relationKind" mapstructure:"relationKind"`
	PathLength   float64 `json:"pathLength" mapstructure:"pathLength"`
	Importance   float64 `json:"importance" mapstructure:"importance"`
	// FlowBoost is the fraction of an adjacent item's score propagated along
	// an outgoing calls edge.
	FlowBoost float64 `json:"flowBoost" mapstructure:"flowBoost"`
	// FlowBoostFloor: only items scoring at least this much propagate boost.
	FlowBoostFloor float64 `json:"flowBoostFloor" mapstructure:"flowBoostFloor"`
}

// TopicsConfig maps topic names to trigger keywords.
type TopicsConfig struct {
	Keywords map[string][]string `json:"keywords" mapstructure:"keywords"`
}

// SafetyConfig holds the sensitive-topic category table.
type SafetyConfig struct {
	Categories map[string][]string `json:"categories" mapstructure:"categories"`
}

// LLMConfig controls the optional prose rewriter.
type LLMConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Model     string `json:"model" mapstructure:"model"`
	TimeoutMs int    `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Ask: AskConfig{
			HopLimit: 2,
			TopK:     10,
		},
		Thresholds: ThresholdsConfig{
			MinConfidence:        0.35,
			FlaggedMaxConfidence: 0.65,
		},
		Ranking: RankingConfig{
			TermOverlap:    0.40,
			RelationKind:   0.30,
			PathLength:     0.20,
			Importance:     0.10,
			FlowBoost:      0.50,
			FlowBoostFloor: 0.60,
		},
		Topics: TopicsConfig{
			Keywords: map[string][]string{
				"authentication": {"auth", "login", "token", "oauth", "jwt", "session"},
				"checkout":       {"checkout", "cart", "order"},
				"payment":        {"payment", "billing", "invoice", "charge"},
				"storage":        {"database", "storage", "persistence", "cache"},
			},
		},
		Safety: SafetyConfig{
			Categories: map[string][]string{
				"security":    {"breach", "exploit", "vulnerability", "token leak", "cve"},
				"legal":       {"lawsuit", "legal", "gdpr", "liability"},
				"credentials": {"password", "secret key", "api key", "credential"},
				"compliance":  {"compliance", "audit trail", "pci", "sox"},
				"payments":    {"chargeback", "refund dispute", "stolen card"},
			},
		},
		LLM: LLMConfig{
			Enabled:   false,
			Model:     "gpt-4o-mini",
			TimeoutMs: 15000,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration for a repository root.
func Load(repoRoot string) (*Config, error) {
	cfg, err := loadFile(repoRoot)
	if err != nil {
		return nil, err
	}

	if err := applyPolicyFile(repoRoot, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".cbg"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return Default(), nil
		}
		return nil, cbgerrors.New(cbgerrors.ConfigInvalid, "cannot read .cbg/config.json", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, cbgerrors.New(cbgerrors.ConfigInvalid, "cannot decode .cbg/config.json", err)
	}
	return cfg, nil
}

// applyEnv overlays CBG_* environment variables. Unparseable values are a
// startup error, never a silent default.
func applyEnv(cfg *Config) error {
	if err := envFloat("CBG_MIN_CONFIDENCE", &cfg.Thresholds.MinConfidence); err != nil {
		return err
	}
	if err := envFloat("CBG_FLAGGED_MAX_CONFIDENCE", &cfg.Thresholds.FlaggedMaxConfidence); err != nil {
		return err
	}
	if err := envInt("CBG_HOP_LIMIT", &cfg.Ask.HopLimit); err != nil {
		return err
	}
	if err := envInt("CBG_TOP_K", &cfg.Ask.TopK); err != nil {
		return err
	}
	return nil
}

func envFloat(name string, dst *float64) error {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return cbgerrors.New(cbgerrors.ConfigInvalid, fmt.Sprintf("%s is not a number: %q", name, raw), err)
	}
	*dst = val
	return nil
}

func envInt(name string, dst *int) error {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return cbgerrors.New(cbgerrors.ConfigInvalid, fmt.Sprintf("%s is not an integer: %q", name, raw), err)
	}
	*dst = val
	return nil
}

// Validate checks invariants the query pipeline relies on.
func (c *Config) Validate() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return cbgerrors.New(cbgerrors.ConfigInvalid,
				fmt.Sprintf("%s must be in [0,1], got %v", name, v), nil)
		}
		return nil
	}
	if err := check("thresholds.minConfidence", c.Thresholds.MinConfidence); err != nil {
		return err
	}
	if err := check("thresholds.flaggedMaxConfidence", c.Thresholds.FlaggedMaxConfidence); err != nil {
		return err
	}
	if c.Ask.HopLimit < 1 {
		return cbgerrors.New(cbgerrors.ConfigInvalid, "ask.hopLimit must be >= 1", nil)
	}
	if c.Ask.TopK < 1 {
		return cbgerrors.New(cbgerrors.ConfigInvalid, "ask.topK must be >= 1", nil)
	}
	for name, w := range map[string]float64{
		"ranking.termOverlap":  c.Ranking.TermOverlap,
		"ranking.relationKind": c.Ranking.RelationKind,
		"ranking.pathLength":   c.Ranking.PathLength,
		"ranking.importance":   c.Ranking.Importance,
	} {
		if w < 0 {
			return cbgerrors.New(cbgerrors.ConfigInvalid,
				fmt.Sprintf("%s must be >= 0, got %v", name, w), nil)
		}
	}
	if c.LLM.TimeoutMs <= 0 {
		return cbgerrors.New(cbgerrors.ConfigInvalid, "llm.timeoutMs must be > 0", nil)
	}
	return nil
}

// Save writes the configuration to .cbg/config.json.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".cbg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}
