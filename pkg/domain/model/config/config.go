package config

// PipelineConfig holds the tunable behavior of the ingestion pipeline. Loaded
// from the TOML application config; every field has a working default.
type PipelineConfig struct {
	Platforms []PlatformRule
	Identity  IdentityConfig
	Graph     GraphConfig
	Search    SearchConfig
}

// PlatformRule maps URL shapes onto a platform ID
type PlatformRule struct {
	ID       string
	Name     string
	Patterns []string // regular expressions matched against extracted URLs
}

// IdentityConfig holds the probabilistic matcher tuning.
// AcceptanceThreshold is a calibration knob, not a correctness requirement.
type IdentityConfig struct {
	AcceptanceThreshold float64
}

// GraphConfig holds relationship strength policy
type GraphConfig struct {
	LinkStrength        float64 // explicit hyperlink
	ReferenceStrength   float64 // inferred textual reference
	StrengthenIncrement float64 // added on re-detection, capped at 1.0
}

// SearchConfig holds indexing policy
type SearchConfig struct {
	Concepts    []string // domain keyword list matched into concept tokens
	MaxConcepts int
}

// Default returns the built-in pipeline configuration
func Default() *PipelineConfig {
	return &PipelineConfig{
		Identity: IdentityConfig{
			AcceptanceThreshold: 0.85,
		},
		Graph: GraphConfig{
			LinkStrength:        1.0,
			ReferenceStrength:   0.5,
			StrengthenIncrement: 0.1,
		},
		Search: SearchConfig{
			MaxConcepts: 16,
		},
	}
}
