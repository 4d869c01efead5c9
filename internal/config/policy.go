package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	cbgerrors "cbg/internal/errors"
)

// PolicyFile is the optional per-repo policy overlay. It covers only the
// guardrail surface: thresholds and safety categories. Teams check it in so
// that review policy travels with the repository.
const PolicyFile = "policy.toml"

type policyDoc struct {
	Thresholds struct {
		MinConfidence        *float64 `toml:"minConfidence"`
		FlaggedMaxConfidence *float64 `toml:"flaggedMaxConfidence"`
	} `toml:"thresholds"`
	Safety struct {
		Categories map[string][]string `toml:"categories"`
	} `toml:"safety"`
}

// applyPolicyFile overlays .cbg/policy.toml onto cfg if the file exists.
func applyPolicyFile(repoRoot string, cfg *Config) error {
	path := filepath.Join(repoRoot, ".cbg", PolicyFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cbgerrors.New(cbgerrors.ConfigInvalid, "cannot read policy.toml", err)
	}

	var doc policyDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return cbgerrors.New(cbgerrors.ConfigInvalid, "cannot parse policy.toml", err)
	}

	if doc.Thresholds.MinConfidence != nil {
		cfg.Thresholds.MinConfidence = *doc.Thresholds.MinConfidence
	}
	if doc.Thresholds.FlaggedMaxConfidence != nil {
		cfg.Thresholds.FlaggedMaxConfidence = *doc.Thresholds.FlaggedMaxConfidence
	}
	for category, keywords := range doc.Safety.Categories {
		if cfg.Safety.Categories == nil {
			cfg.Safety.Categories = map[string][]string{}
		}
		cfg.Safety.Categories[category] = keywords
	}
	return nil
}
