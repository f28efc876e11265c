package config

import (
	"os"
	"regexp"

	domainConfig "github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig represents the pipeline tuning configuration
type AppConfig struct {
	Platforms []Platform `toml:"platform"`
	Identity  Identity   `toml:"identity"`
	Graph     Graph      `toml:"graph"`
	Search    Search     `toml:"search"`
}

// Platform maps URL shapes onto a platform ID
type Platform struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Patterns []string `toml:"patterns"`
}

// Validate checks if the Platform rule is valid
func (p *Platform) Validate() error {
	if p.ID == "" {
		return goerr.Wrap(ErrInvalidConfig, "platform id is required")
	}
	if len(p.Patterns) == 0 {
		return goerr.Wrap(ErrMissingPatterns, "platform rule needs at least one pattern", goerr.V("id", p.ID))
	}
	for _, pattern := range p.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return goerr.Wrap(ErrInvalidPattern, "pattern does not compile",
				goerr.V("id", p.ID), goerr.V("pattern", pattern))
		}
	}
	return nil
}

// Identity holds the probabilistic matcher tuning
type Identity struct {
	AcceptanceThreshold float64 `toml:"acceptance_threshold"`
}

// Graph holds relationship strength policy
type Graph struct {
	LinkStrength        float64 `toml:"link_strength"`
	ReferenceStrength   float64 `toml:"reference_strength"`
	StrengthenIncrement float64 `toml:"strengthen_increment"`
}

// Search holds indexing policy
type Search struct {
	Concepts    []string `toml:"concepts"`
	MaxConcepts int      `toml:"max_concepts"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	platformIDs := make(map[string]bool)
	for _, p := range a.Platforms {
		if err := p.Validate(); err != nil {
			return goerr.Wrap(err, "invalid platform rule")
		}
		if platformIDs[p.ID] {
			return goerr.Wrap(ErrDuplicatePlatformID, "duplicate platform rule", goerr.V("id", p.ID))
		}
		platformIDs[p.ID] = true
	}

	if t := a.Identity.AcceptanceThreshold; t < 0 || t > 1 {
		return goerr.Wrap(ErrInvalidConfig, "acceptance threshold must be within [0, 1]",
			goerr.V("threshold", t))
	}
	for name, v := range map[string]float64{
		"link_strength":        a.Graph.LinkStrength,
		"reference_strength":   a.Graph.ReferenceStrength,
		"strengthen_increment": a.Graph.StrengthenIncrement,
	} {
		if v < 0 || v > 1 {
			return goerr.Wrap(ErrInvalidConfig, "graph strength must be within [0, 1]",
				goerr.V("field", name), goerr.V("value", v))
		}
	}
	if a.Search.MaxConcepts < 0 {
		return goerr.Wrap(ErrInvalidConfig, "max_concepts must not be negative",
			goerr.V("value", a.Search.MaxConcepts))
	}

	return nil
}

// LoadAppConfiguration loads the pipeline configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(ErrConfigNotFound, "failed to read config file", goerr.V("path", path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V("path", path))
	}

	return &config, nil
}

// ToPipelineConfig converts AppConfig to the domain pipeline configuration.
// Unset sections keep their built-in defaults.
func (a *AppConfig) ToPipelineConfig() *domainConfig.PipelineConfig {
	cfg := domainConfig.Default()

	for _, p := range a.Platforms {
		cfg.Platforms = append(cfg.Platforms, domainConfig.PlatformRule{
			ID:       p.ID,
			Name:     p.Name,
			Patterns: p.Patterns,
		})
	}

	if a.Identity.AcceptanceThreshold > 0 {
		cfg.Identity.AcceptanceThreshold = a.Identity.AcceptanceThreshold
	}
	if a.Graph.LinkStrength > 0 {
		cfg.Graph.LinkStrength = a.Graph.LinkStrength
	}
	if a.Graph.ReferenceStrength > 0 {
		cfg.Graph.ReferenceStrength = a.Graph.ReferenceStrength
	}
	if a.Graph.StrengthenIncrement > 0 {
		cfg.Graph.StrengthenIncrement = a.Graph.StrengthenIncrement
	}
	if len(a.Search.Concepts) > 0 {
		cfg.Search.Concepts = a.Search.Concepts
	}
	if a.Search.MaxConcepts > 0 {
		cfg.Search.MaxConcepts = a.Search.MaxConcepts
	}

	return cfg
}
