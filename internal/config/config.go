// Package config loads and validates workspace-level configuration for the
// context-pack pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CompressionMode names a difflens compression strategy.
type CompressionMode string

const (
	CompressionNone         CompressionMode = "none"
	CompressionTwoStage     CompressionMode = "two-stage"
	CompressionBlocks       CompressionMode = "blocks"
	CompressionChunkSummary CompressionMode = "chunk-summary"
)

// Config holds all pipeline configuration for tldrs.
type Config struct {
	// Workspace scanning
	IgnoreFileName  string   `yaml:"ignore_file_name" env:"TLDRS_IGNORE_FILE"`
	UseGitignore    bool     `yaml:"use_gitignore" env:"TLDRS_USE_GITIGNORE"`
	DefaultExcludes []string `yaml:"default_excludes"`
	PackageFilter   []string `yaml:"package_filter"`

	// Pack builder
	DefaultBudgetTokens int             `yaml:"default_budget_tokens" env:"TLDRS_BUDGET_TOKENS"`
	DefaultZoomLevel    int             `yaml:"default_zoom_level" env:"TLDRS_ZOOM_LEVEL"`
	DefaultCompression  CompressionMode `yaml:"default_compression" env:"TLDRS_COMPRESSION"`
	DiffContextLines    int             `yaml:"diff_context_lines" env:"TLDRS_DIFF_CONTEXT_LINES"`

	// Delivery cache
	SessionTTLSeconds int  `yaml:"session_ttl_seconds" env:"TLDRS_SESSION_TTL_SECONDS"`
	UseDefaultSession bool `yaml:"use_default_session" env:"TLDRS_USE_DEFAULT_SESSION"`

	// Blob store
	BlobCompressThresholdBytes int `yaml:"blob_compress_threshold_bytes" env:"TLDRS_BLOB_COMPRESS_THRESHOLD"`
	BlobGCMaxAgeDays           int `yaml:"blob_gc_max_age_days" env:"TLDRS_BLOB_GC_MAX_AGE_DAYS"`
	BlobGCMaxSizeMB            int `yaml:"blob_gc_max_size_mb" env:"TLDRS_BLOB_GC_MAX_SIZE_MB"`
	BlobGCKeepLast             int `yaml:"blob_gc_keep_last" env:"TLDRS_BLOB_GC_KEEP_LAST"`

	// Logging
	Verbose bool `yaml:"verbose" env:"TLDRS_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		IgnoreFileName: ".tldrsignore",
		UseGitignore:   false,
		DefaultExcludes: []string{
			"node_modules", ".git", "__pycache__", ".venv", "venv",
			"dist", "build", ".idea", ".vscode", "vendor", ".hg",
			".svn", "CVS", ".tox", ".nox", "target", "bin", "obj",
		},
		DefaultBudgetTokens:        8000,
		DefaultZoomLevel:           2,
		DefaultCompression:         CompressionTwoStage,
		DiffContextLines:           6,
		SessionTTLSeconds:          7 * 24 * 3600,
		UseDefaultSession:          true,
		BlobCompressThresholdBytes: 4096,
		BlobGCMaxAgeDays:           30,
		BlobGCMaxSizeMB:            512,
		BlobGCKeepLast:             50,
		Verbose:                    false,
	}
}

// configFilePath returns the default config file path for the workspace rooted at dir.
func configFilePath(dir string) string {
	return filepath.Join(dir, ".tldrs", "config.yaml")
}

// Load reads configuration from the workspace's .tldrs/config.yaml and applies
// environment variable overrides.
func Load(workspaceRoot string) (*Config, error) {
	return LoadFromFile(configFilePath(workspaceRoot))
}

// LoadFromFile reads configuration from a specific YAML file path. Missing
// files are not an error: defaults (plus env overrides) are returned instead.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TLDRS_IGNORE_FILE"); v != "" {
		cfg.IgnoreFileName = v
	}
	if v := os.Getenv("TLDRS_USE_GITIGNORE"); v != "" {
		cfg.UseGitignore = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("TLDRS_BUDGET_TOKENS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.DefaultBudgetTokens = i
		}
	}
	if v := os.Getenv("TLDRS_ZOOM_LEVEL"); v != "" {
		if i := parseInt(v); i >= 0 {
			cfg.DefaultZoomLevel = i
		}
	}
	if v := os.Getenv("TLDRS_COMPRESSION"); v != "" {
		cfg.DefaultCompression = CompressionMode(v)
	}
	if v := os.Getenv("TLDRS_DIFF_CONTEXT_LINES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.DiffContextLines = i
		}
	}
	if v := os.Getenv("TLDRS_SESSION_TTL_SECONDS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.SessionTTLSeconds = i
		}
	}
	if v := os.Getenv("TLDRS_USE_DEFAULT_SESSION"); v != "" {
		cfg.UseDefaultSession = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("TLDRS_BLOB_COMPRESS_THRESHOLD"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.BlobCompressThresholdBytes = i
		}
	}
	if v := os.Getenv("TLDRS_BLOB_GC_MAX_AGE_DAYS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.BlobGCMaxAgeDays = i
		}
	}
	if v := os.Getenv("TLDRS_BLOB_GC_MAX_SIZE_MB"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.BlobGCMaxSizeMB = i
		}
	}
	if v := os.Getenv("TLDRS_BLOB_GC_KEEP_LAST"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.BlobGCKeepLast = i
		}
	}
	if v := os.Getenv("TLDRS_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields.
func (c *Config) Validate() error {
	switch c.DefaultCompression {
	case CompressionNone, CompressionTwoStage, CompressionBlocks, CompressionChunkSummary:
	default:
		return fmt.Errorf("invalid default_compression: %s", c.DefaultCompression)
	}

	if c.DefaultZoomLevel < 0 || c.DefaultZoomLevel > 4 {
		return fmt.Errorf("default_zoom_level must be between 0 and 4")
	}
	if c.DefaultBudgetTokens <= 0 {
		return fmt.Errorf("default_budget_tokens must be positive")
	}
	if c.DiffContextLines <= 0 {
		return fmt.Errorf("diff_context_lines must be positive")
	}
	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("session_ttl_seconds must be positive")
	}
	if c.BlobCompressThresholdBytes < 0 {
		return fmt.Errorf("blob_compress_threshold_bytes must be non-negative")
	}
	if c.BlobGCKeepLast < 0 {
		return fmt.Errorf("blob_gc_keep_last must be non-negative")
	}

	return nil
}

// parseInt attempts to parse a string as int, returning 0 on failure.
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
