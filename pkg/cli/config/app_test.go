package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Rubix982/triage/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "valid configuration with all sections",
			content: `
[[platform]]
id = "jira"
name = "Jira"
patterns = ['internal-jira\.corp\.example\.com/browse/']

[[platform]]
id = "confluence"
name = "Confluence"
patterns = ['wiki\.corp\.example\.com/']

[identity]
acceptance_threshold = 0.9

[graph]
link_strength = 1.0
reference_strength = 0.4
strengthen_increment = 0.05

[search]
concepts = ["caching", "authentication", "billing"]
max_concepts = 8
`,
			wantErr: nil,
		},
		{
			name:    "empty configuration keeps defaults",
			content: "\n",
			wantErr: nil,
		},
		{
			name:    "config file not found",
			content: "", // Won't create the file
			wantErr: config.ErrConfigNotFound,
		},
		{
			name: "duplicate platform ID",
			content: `
[[platform]]
id = "jira"
patterns = ['jira\.a\.example\.com/']

[[platform]]
id = "jira"
patterns = ['jira\.b\.example\.com/']
`,
			wantErr: config.ErrDuplicatePlatformID,
		},
		{
			name: "platform rule without patterns",
			content: `
[[platform]]
id = "jira"
name = "Jira"
`,
			wantErr: config.ErrMissingPatterns,
		},
		{
			name: "pattern that does not compile",
			content: `
[[platform]]
id = "jira"
patterns = ['[unclosed']
`,
			wantErr: config.ErrInvalidPattern,
		},
		{
			name: "platform rule without ID",
			content: `
[[platform]]
name = "Jira"
patterns = ['jira\.example\.com/']
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "acceptance threshold out of range",
			content: `
[identity]
acceptance_threshold = 1.5
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "graph strength out of range",
			content: `
[graph]
link_strength = 2.0
`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			// Only create file if content is not empty
			if tt.content != "" {
				err := os.WriteFile(configPath, []byte(tt.content), 0644)
				gt.NoError(t, err).Required()
			}

			appCfg, err := config.LoadAppConfiguration(configPath)

			if tt.wantErr != nil {
				gt.Value(t, err).NotNil()
				if err != nil {
					gt.Error(t, err).Is(tt.wantErr)
				}
				return
			}

			gt.NoError(t, err)
			if err != nil {
				return
			}

			gt.Value(t, appCfg).NotNil()
		})
	}
}

func TestToPipelineConfig(t *testing.T) {
	t.Run("configured values override defaults", func(t *testing.T) {
		appCfg := &config.AppConfig{
			Platforms: []config.Platform{
				{ID: "jira", Name: "Jira", Patterns: []string{`jira\.corp\.example\.com/`}},
			},
			Identity: config.Identity{AcceptanceThreshold: 0.9},
			Graph:    config.Graph{ReferenceStrength: 0.4},
			Search:   config.Search{Concepts: []string{"caching"}, MaxConcepts: 8},
		}
		gt.NoError(t, appCfg.Validate())

		cfg := appCfg.ToPipelineConfig()
		gt.Array(t, cfg.Platforms).Length(1)
		gt.Value(t, cfg.Identity.AcceptanceThreshold).Equal(0.9)
		gt.Value(t, cfg.Graph.ReferenceStrength).Equal(0.4)
		gt.Value(t, cfg.Graph.LinkStrength).Equal(1.0)
		gt.Array(t, cfg.Search.Concepts).Length(1)
		gt.Value(t, cfg.Search.MaxConcepts).Equal(8)
	})

	t.Run("zero config keeps built-in defaults", func(t *testing.T) {
		cfg := (&config.AppConfig{}).ToPipelineConfig()
		gt.Value(t, cfg.Identity.AcceptanceThreshold).Equal(0.85)
		gt.Value(t, cfg.Graph.LinkStrength).Equal(1.0)
		gt.Value(t, cfg.Graph.ReferenceStrength).Equal(0.5)
		gt.Value(t, cfg.Graph.StrengthenIncrement).Equal(0.1)
	})
}
