package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"IgnoreFileName", cfg.IgnoreFileName, ".tldrsignore"},
		{"UseGitignore", cfg.UseGitignore, false},
		{"DefaultBudgetTokens", cfg.DefaultBudgetTokens, 8000},
		{"DefaultZoomLevel", cfg.DefaultZoomLevel, 2},
		{"DefaultCompression", cfg.DefaultCompression, CompressionTwoStage},
		{"DiffContextLines", cfg.DiffContextLines, 6},
		{"SessionTTLSeconds", cfg.SessionTTLSeconds, 7 * 24 * 3600},
		{"UseDefaultSession", cfg.UseDefaultSession, true},
		{"BlobCompressThresholdBytes", cfg.BlobCompressThresholdBytes, 4096},
		{"BlobGCMaxAgeDays", cfg.BlobGCMaxAgeDays, 30},
		{"BlobGCMaxSizeMB", cfg.BlobGCMaxSizeMB, 512},
		{"BlobGCKeepLast", cfg.BlobGCKeepLast, 50},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:    "default config is valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:        "invalid compression",
			mutate:      func(c *Config) { c.DefaultCompression = "bogus" },
			wantErr:     true,
			errContains: "invalid default_compression",
		},
		{
			name:        "zoom level too high",
			mutate:      func(c *Config) { c.DefaultZoomLevel = 5 },
			wantErr:     true,
			errContains: "default_zoom_level must be between 0 and 4",
		},
		{
			name:        "zoom level negative",
			mutate:      func(c *Config) { c.DefaultZoomLevel = -1 },
			wantErr:     true,
			errContains: "default_zoom_level must be between 0 and 4",
		},
		{
			name:        "budget not positive",
			mutate:      func(c *Config) { c.DefaultBudgetTokens = 0 },
			wantErr:     true,
			errContains: "default_budget_tokens must be positive",
		},
		{
			name:        "diff context lines not positive",
			mutate:      func(c *Config) { c.DiffContextLines = 0 },
			wantErr:     true,
			errContains: "diff_context_lines must be positive",
		},
		{
			name:        "session ttl not positive",
			mutate:      func(c *Config) { c.SessionTTLSeconds = 0 },
			wantErr:     true,
			errContains: "session_ttl_seconds must be positive",
		},
		{
			name:        "negative blob compress threshold",
			mutate:      func(c *Config) { c.BlobCompressThresholdBytes = -1 },
			wantErr:     true,
			errContains: "blob_compress_threshold_bytes must be non-negative",
		},
		{
			name:        "negative keep last",
			mutate:      func(c *Config) { c.BlobGCKeepLast = -1 },
			wantErr:     true,
			errContains: "blob_gc_keep_last must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errContains)
				}
				if !contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yaml := `
ignore_file_name: .customignore
use_gitignore: true
default_budget_tokens: 12000
default_zoom_level: 3
default_compression: blocks
diff_context_lines: 8
session_ttl_seconds: 3600
verbose: true
`
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.IgnoreFileName != ".customignore" {
		t.Errorf("IgnoreFileName = %v, want .customignore", cfg.IgnoreFileName)
	}
	if !cfg.UseGitignore {
		t.Error("UseGitignore = false, want true")
	}
	if cfg.DefaultBudgetTokens != 12000 {
		t.Errorf("DefaultBudgetTokens = %v, want 12000", cfg.DefaultBudgetTokens)
	}
	if cfg.DefaultZoomLevel != 3 {
		t.Errorf("DefaultZoomLevel = %v, want 3", cfg.DefaultZoomLevel)
	}
	if cfg.DefaultCompression != CompressionBlocks {
		t.Errorf("DefaultCompression = %v, want blocks", cfg.DefaultCompression)
	}
	if cfg.DiffContextLines != 8 {
		t.Errorf("DiffContextLines = %v, want 8", cfg.DiffContextLines)
	}
	if cfg.SessionTTLSeconds != 3600 {
		t.Errorf("SessionTTLSeconds = %v, want 3600", cfg.SessionTTLSeconds)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := LoadFromFile(filepath.Join(tmpDir, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected missing config file to fall back to defaults, got error: %v", err)
	}
	if cfg.DefaultBudgetTokens != DefaultConfig().DefaultBudgetTokens {
		t.Errorf("expected default budget, got %v", cfg.DefaultBudgetTokens)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("default_budget_tokens: [not, a, scalar"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if !contains(err.Error(), "failed to parse") {
		t.Errorf("error = %q, should mention parse failure", err.Error())
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	keys := []string{
		"TLDRS_IGNORE_FILE", "TLDRS_USE_GITIGNORE", "TLDRS_BUDGET_TOKENS",
		"TLDRS_ZOOM_LEVEL", "TLDRS_COMPRESSION", "TLDRS_DIFF_CONTEXT_LINES",
		"TLDRS_SESSION_TTL_SECONDS", "TLDRS_VERBOSE",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
	defer func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	}()

	os.Setenv("TLDRS_BUDGET_TOKENS", "20000")
	os.Setenv("TLDRS_COMPRESSION", "blocks")
	os.Setenv("TLDRS_VERBOSE", "1")
	os.Setenv("TLDRS_ZOOM_LEVEL", "0")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.DefaultBudgetTokens != 20000 {
		t.Errorf("DefaultBudgetTokens = %v, want 20000", cfg.DefaultBudgetTokens)
	}
	if cfg.DefaultCompression != CompressionBlocks {
		t.Errorf("DefaultCompression = %v, want blocks", cfg.DefaultCompression)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	if cfg.DefaultZoomLevel != 0 {
		t.Errorf("DefaultZoomLevel = %v, want 0", cfg.DefaultZoomLevel)
	}
}

func TestApplyEnvOverridesIgnoresInvalidNumbers(t *testing.T) {
	os.Unsetenv("TLDRS_BUDGET_TOKENS")
	os.Setenv("TLDRS_BUDGET_TOKENS", "not-a-number")
	defer os.Unsetenv("TLDRS_BUDGET_TOKENS")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.DefaultBudgetTokens != DefaultConfig().DefaultBudgetTokens {
		t.Errorf("DefaultBudgetTokens = %v, want unchanged default", cfg.DefaultBudgetTokens)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"0", 0},
		{"100", 100},
		{"512", 512},
		{"invalid", 0},
		{"", 0},
		{"abc123", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseInt(tt.input)
			if result != tt.expected {
				t.Errorf("parseInt(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func contains(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
