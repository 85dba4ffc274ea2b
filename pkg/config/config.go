package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for scry.
type Config struct {
	// Analysis toggles and extractor selection
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Clone detection tuning
	Duplicates DuplicateConfig `koanf:"duplicates" toml:"duplicates"`

	// Additional security rules
	Security SecurityConfig `koanf:"security" toml:"security"`

	// Dependency audit settings
	Dependencies DependencyConfig `koanf:"dependencies" toml:"dependencies"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Report cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// Extractor names accepted by AnalysisConfig.Extractor.
const (
	ExtractorHeuristic  = "heuristic"
	ExtractorTreeSitter = "treesitter"
)

// AnalysisConfig controls which analyses run.
type AnalysisConfig struct {
	Complexity   bool   `koanf:"complexity" toml:"complexity"`
	Security     bool   `koanf:"security" toml:"security"`
	Duplicates   bool   `koanf:"duplicates" toml:"duplicates"`
	Dependencies bool   `koanf:"dependencies" toml:"dependencies"`
	Extractor    string `koanf:"extractor" toml:"extractor"`
	MaxFileSize  int64  `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = no limit
	Workers      int    `koanf:"workers" toml:"workers"`             // 0 = 2x NumCPU
}

// DuplicateConfig tunes the sliding-window clone detector.
type DuplicateConfig struct {
	MinLines        int     `koanf:"min_lines" toml:"min_lines"`
	Threshold       float64 `koanf:"threshold" toml:"threshold"`
	MinAnchorLength int     `koanf:"min_anchor_length" toml:"min_anchor_length"`
	MaxWindow       int     `koanf:"max_window" toml:"max_window"`
	MaxFragments    int     `koanf:"max_fragments" toml:"max_fragments"`
	Ranked          bool    `koanf:"ranked" toml:"ranked"`
}

// SecurityConfig holds user-defined scanner rules.
type SecurityConfig struct {
	Rules         []RuleConfig `koanf:"rules" toml:"rules"`
	DisabledRules []string     `koanf:"disabled_rules" toml:"disabled_rules"`
}

// RuleSeverities lists the severity names a custom rule may use, lowest
// first. An empty severity means medium.
var RuleSeverities = []string{"low", "medium", "high", "critical"}

// RuleConfig defines a custom line-level security rule.
type RuleConfig struct {
	ID       string `koanf:"id" toml:"id"`
	Pattern  string `koanf:"pattern" toml:"pattern"`
	Type     string `koanf:"type" toml:"type"`
	Severity string `koanf:"severity" toml:"severity"`
	Message  string `koanf:"message" toml:"message"`
}

// DependencyConfig controls manifest auditing.
type DependencyConfig struct {
	Audit          bool     `koanf:"audit" toml:"audit"`
	AuditCommand   []string `koanf:"audit_command" toml:"audit_command"`
	Outdated       bool     `koanf:"outdated" toml:"outdated"`
	TimeoutSeconds int      `koanf:"timeout_seconds" toml:"timeout_seconds"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caller-side report caching.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
}

// Analysis names accepted by AnalysisConfig.Only.
const (
	AnalysisComplexity   = "complexity"
	AnalysisSecurity     = "security"
	AnalysisDuplicates   = "duplicates"
	AnalysisDependencies = "dependencies"
)

// Only returns a copy with just the named analysis enabled.
func (a AnalysisConfig) Only(name string) AnalysisConfig {
	a.Complexity = name == AnalysisComplexity
	a.Security = name == AnalysisSecurity
	a.Duplicates = name == AnalysisDuplicates
	a.Dependencies = name == AnalysisDependencies
	return a
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Complexity:   true,
			Security:     true,
			Duplicates:   true,
			Dependencies: true,
			Extractor:    ExtractorHeuristic,
		},
		Duplicates: DuplicateConfig{
			MinLines:        6,
			Threshold:       0.85,
			MinAnchorLength: 5,
			MaxWindow:       50,
			MaxFragments:    50,
		},
		Dependencies: DependencyConfig{
			Audit:          true,
			AuditCommand:   []string{"npm", "audit", "--json"},
			TimeoutSeconds: 30,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.bundle.js",
				"*.d.ts",
			},
			Dirs: []string{
				"node_modules",
				"vendor",
				".git",
				".scry",
				"dist",
				"build",
				"coverage",
				"__pycache__",
				"target",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".scry/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched in order by Find.
var configNames = []string{
	"scry.toml",
	"scry.yaml",
	"scry.yml",
	"scry.json",
	".scry.toml",
	".scry.yaml",
	".scry.yml",
	".scry.json",
}

// Find returns the first config file found under dir or dir/.scry.
// Returns an empty string when none exists.
func Find(dir string) string {
	for _, sub := range []string{"", ".scry"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads the first config found in the working directory,
// falling back to defaults when none exists or it fails to load.
func LoadOrDefault() *Config {
	if path := Find("."); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// Validate checks value ranges and compiles custom rule patterns.
func (c *Config) Validate() error {
	switch c.Analysis.Extractor {
	case "", ExtractorHeuristic, ExtractorTreeSitter:
	default:
		return fmt.Errorf("analysis.extractor must be %q or %q (got %q)", ExtractorHeuristic, ExtractorTreeSitter, c.Analysis.Extractor)
	}

	d := c.Duplicates
	if d.MinLines < 1 {
		return fmt.Errorf("duplicates.min_lines must be >= 1 (got %d)", d.MinLines)
	}
	if d.Threshold <= 0 || d.Threshold > 1 {
		return fmt.Errorf("duplicates.threshold must be in (0, 1] (got %g)", d.Threshold)
	}
	if d.MaxWindow < 2 {
		return fmt.Errorf("duplicates.max_window must be >= 2 (got %d)", d.MaxWindow)
	}
	if d.MaxFragments < 1 {
		return fmt.Errorf("duplicates.max_fragments must be >= 1 (got %d)", d.MaxFragments)
	}

	for _, r := range c.Security.Rules {
		if r.ID == "" {
			return fmt.Errorf("security rule with pattern %q has no id", r.Pattern)
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("security rule %s: %w", r.ID, err)
		}
		if r.Severity != "" && !slices.Contains(RuleSeverities, r.Severity) {
			return fmt.Errorf("security rule %s: severity must be one of %s (got %q)", r.ID, strings.Join(RuleSeverities, ", "), r.Severity)
		}
	}

	if c.Dependencies.TimeoutSeconds < 0 {
		return fmt.Errorf("dependencies.timeout_seconds must be >= 0 (got %d)", c.Dependencies.TimeoutSeconds)
	}

	return nil
}

// ExcludePatterns returns gitignore-style patterns for all configured
// exclusions, with directory names expressed as "name/".
func (c *Config) ExcludePatterns() []string {
	patterns := make([]string, 0, len(c.Exclude.Patterns)+len(c.Exclude.Dirs))
	patterns = append(patterns, c.Exclude.Patterns...)
	for _, dir := range c.Exclude.Dirs {
		patterns = append(patterns, strings.TrimSuffix(dir, "/")+"/")
	}
	return patterns
}
