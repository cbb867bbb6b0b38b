package model

import "time"

// Config holds the full runtime configuration. Values come from flags, then
// TEXTIFIER_* environment variables, then the config file, then defaults.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Labels   LabelConfig    `yaml:"labels" mapstructure:"labels"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Defaults DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`
}

// HTTPConfig configures the upstream knowledge-base client.
type HTTPConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig configures the layered raw-payload cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LabelConfig configures the persistent label store.
type LabelConfig struct {
	Path    string        `yaml:"path" mapstructure:"path"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxRows int           `yaml:"max_rows" mapstructure:"max_rows"`
}

// ServerConfig configures the HTTP request layer.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LLMConfig configures the optional summary provider. It never affects the
// normalization pipeline.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout   int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// DefaultsConfig holds default request parameters.
type DefaultsConfig struct {
	Lang         string `yaml:"lang" mapstructure:"lang"`
	FallbackLang string `yaml:"fallback_lang" mapstructure:"fallback_lang"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			BaseURL:           "https://www.wikidata.org",
			Timeout:           2 * time.Minute,
			UserAgent:         "textifier/0.2 (+https://github.com/korolevd/textifier)",
			MaxBodyBytes:      8_000_000,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.textifier/cache at startup
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Labels: LabelConfig{
			Path:    "", // resolved to ~/.textifier/labels.db at startup
			TTL:     90 * 24 * time.Hour,
			MaxRows: 500_000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 1000,
			Timeout:   30,
		},
		Defaults: DefaultsConfig{
			Lang:         "en",
			FallbackLang: "en",
		},
	}
}
