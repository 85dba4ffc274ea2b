package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if !cfg.Analysis.Complexity || !cfg.Analysis.Security || !cfg.Analysis.Duplicates || !cfg.Analysis.Dependencies {
		t.Error("all analyses should be enabled by default")
	}
	if cfg.Analysis.Extractor != ExtractorHeuristic {
		t.Errorf("Analysis.Extractor = %q, want %q", cfg.Analysis.Extractor, ExtractorHeuristic)
	}

	if cfg.Duplicates.MinLines != 6 {
		t.Errorf("Duplicates.MinLines = %d, want 6", cfg.Duplicates.MinLines)
	}
	if cfg.Duplicates.Threshold != 0.85 {
		t.Errorf("Duplicates.Threshold = %f, want 0.85", cfg.Duplicates.Threshold)
	}
	if cfg.Duplicates.MaxWindow != 50 {
		t.Errorf("Duplicates.MaxWindow = %d, want 50", cfg.Duplicates.MaxWindow)
	}
	if cfg.Duplicates.MaxFragments != 50 {
		t.Errorf("Duplicates.MaxFragments = %d, want 50", cfg.Duplicates.MaxFragments)
	}
	if cfg.Duplicates.Ranked {
		t.Error("Duplicates.Ranked should be false by default")
	}

	if cfg.Dependencies.TimeoutSeconds != 30 {
		t.Errorf("Dependencies.TimeoutSeconds = %d, want 30", cfg.Dependencies.TimeoutSeconds)
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scry.toml")

	content := `
[analysis]
dependencies = false
extractor = "treesitter"

[duplicates]
min_lines = 8
threshold = 0.9
ranked = true

[[security.rules]]
id = "no-console"
pattern = "console\\.log\\("
type = "debug-output"
severity = "low"
message = "console.log left in code"

[output]
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Analysis.Dependencies {
		t.Error("Analysis.Dependencies should be false")
	}
	if !cfg.Analysis.Complexity {
		t.Error("Analysis.Complexity should keep its default")
	}
	if cfg.Analysis.Extractor != ExtractorTreeSitter {
		t.Errorf("Analysis.Extractor = %q, want treesitter", cfg.Analysis.Extractor)
	}
	if cfg.Duplicates.MinLines != 8 {
		t.Errorf("Duplicates.MinLines = %d, want 8", cfg.Duplicates.MinLines)
	}
	if cfg.Duplicates.Threshold != 0.9 {
		t.Errorf("Duplicates.Threshold = %f, want 0.9", cfg.Duplicates.Threshold)
	}
	if !cfg.Duplicates.Ranked {
		t.Error("Duplicates.Ranked should be true")
	}
	if cfg.Duplicates.MaxWindow != 50 {
		t.Errorf("Duplicates.MaxWindow = %d, want default 50", cfg.Duplicates.MaxWindow)
	}
	if len(cfg.Security.Rules) != 1 || cfg.Security.Rules[0].ID != "no-console" {
		t.Fatalf("Security.Rules = %+v, want one no-console rule", cfg.Security.Rules)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scry.yaml")

	content := `
analysis:
  security: false

dependencies:
  audit: false
  timeout_seconds: 5

output:
  format: markdown
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Analysis.Security {
		t.Error("Analysis.Security should be false")
	}
	if cfg.Dependencies.Audit {
		t.Error("Dependencies.Audit should be false")
	}
	if cfg.Dependencies.TimeoutSeconds != 5 {
		t.Errorf("Dependencies.TimeoutSeconds = %d, want 5", cfg.Dependencies.TimeoutSeconds)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Output.Format = %s, want markdown", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scry.json")

	content := `{
  "duplicates": {
    "max_fragments": 10
  },
  "cache": {
    "enabled": true,
    "ttl": 2
  }
}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Duplicates.MaxFragments != 10 {
		t.Errorf("Duplicates.MaxFragments = %d, want 10", cfg.Duplicates.MaxFragments)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true")
	}
	if cfg.Cache.TTL != 2 {
		t.Errorf("Cache.TTL = %d, want 2", cfg.Cache.TTL)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/scry.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scry.toml")

	if err := os.WriteFile(configPath, []byte("[analysis\ninvalid toml"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scry.toml")

	if err := os.WriteFile(configPath, []byte("[duplicates]\nthreshold = 1.5\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should reject threshold > 1")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown extractor", func(c *Config) { c.Analysis.Extractor = "ast" }, true},
		{"zero min lines", func(c *Config) { c.Duplicates.MinLines = 0 }, true},
		{"zero threshold", func(c *Config) { c.Duplicates.Threshold = 0 }, true},
		{"tiny window", func(c *Config) { c.Duplicates.MaxWindow = 1 }, true},
		{"no fragments", func(c *Config) { c.Duplicates.MaxFragments = 0 }, true},
		{"negative timeout", func(c *Config) { c.Dependencies.TimeoutSeconds = -1 }, true},
		{"rule without id", func(c *Config) {
			c.Security.Rules = []RuleConfig{{Pattern: "x"}}
		}, true},
		{"rule with bad regex", func(c *Config) {
			c.Security.Rules = []RuleConfig{{ID: "bad", Pattern: "("}}
		}, true},
		{"rule with unknown severity", func(c *Config) {
			c.Security.Rules = []RuleConfig{{ID: "x", Pattern: "foo", Severity: "urgent"}}
		}, true},
		{"rule with every known severity", func(c *Config) {
			for _, sev := range RuleSeverities {
				c.Security.Rules = append(c.Security.Rules, RuleConfig{ID: sev, Pattern: "foo", Severity: sev})
			}
		}, false},
		{"valid rule", func(c *Config) {
			c.Security.Rules = []RuleConfig{{ID: "ok", Pattern: `debugger;`}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFind(t *testing.T) {
	tmpDir := t.TempDir()

	if got := Find(tmpDir); got != "" {
		t.Errorf("Find() = %q, want empty", got)
	}

	nested := filepath.Join(tmpDir, ".scry")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(nested, "scry.yaml")
	if err := os.WriteFile(want, []byte("output:\n  format: json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := Find(tmpDir); got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}

	top := filepath.Join(tmpDir, "scry.toml")
	if err := os.WriteFile(top, []byte("[output]\nformat = \"json\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := Find(tmpDir); got != top {
		t.Errorf("Find() = %q, want %q (top-level wins)", got, top)
	}
}

func TestLoadOrDefault(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cfg := LoadOrDefault()
	if cfg == nil {
		t.Fatal("LoadOrDefault() returned nil")
	}
	if cfg.Duplicates.MinLines != 6 {
		t.Errorf("expected default MinLines, got %d", cfg.Duplicates.MinLines)
	}
}

func TestExcludePatterns(t *testing.T) {
	cfg := &Config{
		Exclude: ExcludeConfig{
			Patterns: []string{"*.min.js"},
			Dirs:     []string{"node_modules", "dist/"},
		},
	}

	got := cfg.ExcludePatterns()
	want := []string{"*.min.js", "node_modules/", "dist/"}
	if len(got) != len(want) {
		t.Fatalf("ExcludePatterns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExcludePatterns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAnalysisOnly(t *testing.T) {
	for _, name := range []string{AnalysisComplexity, AnalysisSecurity, AnalysisDuplicates, AnalysisDependencies} {
		t.Run(name, func(t *testing.T) {
			a := DefaultConfig().Analysis.Only(name)
			enabled := map[string]bool{
				AnalysisComplexity:   a.Complexity,
				AnalysisSecurity:     a.Security,
				AnalysisDuplicates:   a.Duplicates,
				AnalysisDependencies: a.Dependencies,
			}
			for n, on := range enabled {
				if on != (n == name) {
					t.Errorf("Only(%q): %s enabled = %v", name, n, on)
				}
			}
			if a.Extractor != ExtractorHeuristic {
				t.Errorf("Only should keep the extractor, got %q", a.Extractor)
			}
		})
	}
}
