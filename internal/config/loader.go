package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if MATCHD_CONFIG is set
//  3. env (prefix MATCHD_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MATCHD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MATCHD_ADDR, MATCHD_SCORE_FLOOR, ...
	// Map env keys like MATCHD_SCORE_FLOOR -> score_floor (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MATCHD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "matchd_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EncoderDims <= 0:
		return fmt.Errorf("%w: encoder_dims must be positive", ErrInvalidConfig)
	case c.ScoreFloor < 0 || c.ScoreFloor > 100:
		return fmt.Errorf("%w: score_floor must be within [0,100]", ErrInvalidConfig)
	case c.GapThreshold <= 0 || c.GapThreshold >= 1:
		return fmt.Errorf("%w: gap_threshold must be within (0,1)", ErrInvalidConfig)
	case c.EncoderProvider != "bge" && c.EncoderProvider != "gemini":
		return fmt.Errorf("%w: unknown encoder_provider %q", ErrInvalidConfig, c.EncoderProvider)
	case c.IndexProvider != "memory" && c.IndexProvider != "pinecone":
		return fmt.Errorf("%w: unknown index_provider %q", ErrInvalidConfig, c.IndexProvider)
	case c.CandidatePageSize <= 0:
		return fmt.Errorf("%w: candidate_page_size must be positive", ErrInvalidConfig)
	}
	return nil
}
