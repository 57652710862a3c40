package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// AnalysisURL is the endpoint of the remote image-analysis service.
	// It receives a multipart form with "file" and "gender" fields.
	AnalysisURL string `json:"analysis_url"`

	// ChatURL is the endpoint of the remote chat service.
	ChatURL string `json:"chat_url"`

	// ShopSearchURL is the search-engine base used for shopping links.
	// The search term is appended as the "k" query parameter.
	ShopSearchURL string `json:"shop_search_url"`

	// HistorySlot names the durable slot that holds the history log.
	HistorySlot string `json:"history_slot"`

	// DefaultGender is the attribute selector value before the user picks one.
	DefaultGender string `json:"default_gender"`

	// Genders lists the accepted attribute selector values.
	Genders []string `json:"genders,omitempty"`

	// RequestTimeoutSeconds bounds each remote call. 0 means the default.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`

	// EmbedPreview stores the photo preview (data URI) inside each history entry.
	// Off by default: previews make the history slot large.
	EmbedPreview bool `json:"embed_preview,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AnalysisURL:           "http://127.0.0.1:5000/predict",
		ChatURL:               "http://127.0.0.1:5000/chat",
		ShopSearchURL:         "https://www.amazon.com/s",
		HistorySlot:           "styleHistory",
		DefaultGender:         "Neutral",
		Genders:               []string{"Male", "Female", "Neutral"},
		RequestTimeoutSeconds: 60,
		LogLevel:              "info",
	}
}

// RequestTimeout returns the per-call remote timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ValidGender reports whether g is one of the configured attribute values
// (case-insensitive) and returns its canonical spelling.
func (c *Config) ValidGender(g string) (string, bool) {
	g = strings.TrimSpace(g)
	for _, known := range c.Genders {
		if strings.EqualFold(known, g) {
			return known, true
		}
	}
	return "", false
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.drape.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars. Genders from the overlay
// replace the base list; DisabledTools are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.AnalysisURL = firstNonEmpty(overlay.AnalysisURL, base.AnalysisURL)
	result.ChatURL = firstNonEmpty(overlay.ChatURL, base.ChatURL)
	result.ShopSearchURL = firstNonEmpty(overlay.ShopSearchURL, base.ShopSearchURL)
	result.HistorySlot = firstNonEmpty(overlay.HistorySlot, base.HistorySlot)
	result.DefaultGender = firstNonEmpty(overlay.DefaultGender, base.DefaultGender)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.RequestTimeoutSeconds = overlay.RequestTimeoutSeconds
	if result.RequestTimeoutSeconds == 0 {
		result.RequestTimeoutSeconds = base.RequestTimeoutSeconds
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.EmbedPreview = base.EmbedPreview || overlay.EmbedPreview

	result.Genders = mergeStringSlice(nil, base.Genders)
	if overlayGenders := mergeStringSlice(nil, overlay.Genders); overlayGenders != nil {
		result.Genders = overlayGenders
	}
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
