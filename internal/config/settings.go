// Package config holds the tool-level settings: generation defaults, the
// judge selection, and output preferences. Settings come from defaults,
// an optional YAML file, and flags layered on top by the CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Output formats for the final report.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// APIKeyEnv is the environment variable carrying the completion API key.
const APIKeyEnv = "OPENAI_API_KEY"

// Settings are the debate tool defaults.
type Settings struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Seed        *int    `yaml:"seed,omitempty"`
	Rounds      int     `yaml:"rounds"`
	Judge       string  `yaml:"judge"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	OutputDir   string  `yaml:"output_dir"`
	Format      string  `yaml:"format"`
}

// Default returns the baseline settings.
func Default() Settings {
	return Settings{
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		MaxTokens:   800,
		Rounds:      2,
		Judge:       "single",
		OutputDir:   "runs",
		Format:      FormatJSON,
	}
}

// Load overlays the YAML file at path onto the defaults. A missing file
// is not an error; it simply yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Validate checks the settings fields the CLI does not bound itself.
func (s Settings) Validate() error {
	if s.Format != FormatJSON && s.Format != FormatMarkdown {
		return fmt.Errorf("unknown output format: %q (expected json or markdown)", s.Format)
	}
	return nil
}

// APIKey returns the completion API key from the environment.
func APIKey() string {
	return os.Getenv(APIKeyEnv)
}
