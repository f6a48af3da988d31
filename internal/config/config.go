package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
)

const DefaultFileName = "gqlcollect.yaml"

var (
	DefaultInclude = []string{
		"**/*.graphql",
		"**/*.gql",
		"**/*.go",
	}
	DefaultExclude = []string{
		"**/*_test.go",
		"**/*.test.*",
		"**/__tests__/**",
		"**/testdata/**",
		"**/vendor/**",
		"**/node_modules/**",
	}
)

type Config struct {
	// Root is the directory that is scanned.
	Root string `yaml:"root"`
	// RootMarker is where displayed file names start.
	RootMarker string   `yaml:"rootMarker"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	OutputDir  string   `yaml:"outputDir"`
	// ReportFile receives a YAML summary when set.
	ReportFile      string `yaml:"reportFile"`
	Verbose         bool   `yaml:"verbose"`
	FailOnDuplicate bool   `yaml:"failOnDuplicate"`
}

func Default() *Config {
	return &Config{
		Root:      ".",
		Include:   append([]string(nil), DefaultInclude...),
		Exclude:   append([]string(nil), DefaultExclude...),
		OutputDir: "generated",
	}
}

// Load reads filePath over the defaults. A missing file is not an error when optional is true.
func Load(filePath string, optional bool) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(filePath)
	if optional && errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	err = Parse(b, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	return cfg, nil
}

// Parse decodes YAML into cfg. Keys not present keep their current values.
func Parse(b []byte, cfg *Config) error {
	return yaml.UnmarshalWithOptions(b, cfg, yaml.DisallowUnknownField())
}

func (cfg *Config) Validate() error {
	if cfg.Root == "" {
		return errors.New("root is required")
	}
	if cfg.OutputDir == "" {
		return errors.New("outputDir is required")
	}
	if len(cfg.Include) == 0 {
		return errors.New("at least one include pattern is required")
	}

	for _, pattern := range append(append([]string(nil), cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid pattern: %s", pattern)
		}
	}

	return nil
}
