package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Provider names for model backends
const (
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

// Config is the root application configuration
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Logging        LoggingConfig     `toml:"logging"`
	Storage        StorageConfig     `toml:"storage"`
	Upload         UploadConfig      `toml:"upload"`
	OpenAI         OpenAIConfig      `toml:"openai"`
	HuggingFace    HuggingFaceConfig `toml:"huggingface"`
	Transcription  ModelConfig       `toml:"transcription"`
	Classification ModelConfig       `toml:"classification"`
	Entities       ModelConfig       `toml:"entities"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
	MaxConnections      int      `toml:"max_connections"` // 0 means unlimited
	CORSAllowedOrigins  []string `toml:"cors_allowed_origins"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig configures the complaint store
type StorageConfig struct {
	Path string `toml:"path"`
}

// UploadConfig configures the audio upload boundary
type UploadConfig struct {
	Dir             string   `toml:"dir"`
	MaxSizeMB       int      `toml:"max_size_mb"`
	AcceptedFormats []string `toml:"accepted_formats"`
}

// OpenAIConfig holds OpenAI API credentials
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// HuggingFaceConfig holds Hugging Face Inference API credentials
type HuggingFaceConfig struct {
	APIToken string `toml:"api_token"`
	BaseURL  string `toml:"base_url"`
}

// ModelConfig selects and tunes one model backend
type ModelConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

// Load reads .env (if present), then decodes the TOML file at path with
// ${VAR} references expanded from the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(os.ExpandEnv(string(data)))
}

// Parse decodes TOML content, applies defaults and validates the result
func Parse(content string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 30
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "complaints.db"
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = os.TempDir()
	}
	if c.Upload.MaxSizeMB == 0 {
		c.Upload.MaxSizeMB = 25
	}
	if len(c.Upload.AcceptedFormats) == 0 {
		c.Upload.AcceptedFormats = []string{"mp3"}
	}
	for i, f := range c.Upload.AcceptedFormats {
		c.Upload.AcceptedFormats[i] = strings.ToLower(strings.TrimPrefix(f, "."))
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1/"
	}
	if c.HuggingFace.BaseURL == "" {
		c.HuggingFace.BaseURL = "https://api-inference.huggingface.co/models"
	}

	c.Transcription.setDefaults(ProviderOpenAI, map[string]string{
		ProviderOpenAI:      "whisper-1",
		ProviderHuggingFace: "openai/whisper-base",
	})
	c.Classification.setDefaults(ProviderHuggingFace, map[string]string{
		ProviderOpenAI:      "gpt-4o-mini",
		ProviderHuggingFace: "facebook/bart-large-mnli",
	})
	c.Entities.setDefaults(ProviderHuggingFace, map[string]string{
		ProviderOpenAI:      "gpt-4o-mini",
		ProviderHuggingFace: "dslim/bert-base-NER",
	})

	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = c.RequestBudgetSeconds()
	}
}

// writeTimeoutMarginSeconds covers storage and rendering after the model calls
const writeTimeoutMarginSeconds = 30

// RequestBudgetSeconds is the longest a complaint upload can take: reading
// the body plus every model stage running to its timeout on each attempt.
// The server write timeout must not be shorter, or a slow response is cut
// off after the complaint is already stored.
func (c *Config) RequestBudgetSeconds() int {
	total := c.Server.ReadTimeoutSeconds + writeTimeoutMarginSeconds
	for _, m := range []ModelConfig{c.Transcription, c.Classification, c.Entities} {
		total += m.TimeoutSeconds * (m.MaxRetries + 1)
	}
	return total
}

func (m *ModelConfig) setDefaults(provider string, models map[string]string) {
	if m.Provider == "" {
		m.Provider = provider
	}
	m.Provider = strings.ToLower(m.Provider)
	if m.Model == "" {
		m.Model = models[m.Provider]
	}
	if m.TimeoutSeconds == 0 {
		m.TimeoutSeconds = 120
	}
}

// Validate checks provider selection and credentials
func (c *Config) Validate() error {
	stages := []struct {
		name string
		cfg  ModelConfig
	}{
		{"transcription", c.Transcription},
		{"classification", c.Classification},
		{"entities", c.Entities},
	}

	for _, stage := range stages {
		switch stage.cfg.Provider {
		case ProviderOpenAI:
			if c.OpenAI.APIKey == "" {
				return fmt.Errorf("%s: openai.api_key is required for provider %q", stage.name, ProviderOpenAI)
			}
		case ProviderHuggingFace:
			if c.HuggingFace.APIToken == "" {
				return fmt.Errorf("%s: huggingface.api_token is required for provider %q", stage.name, ProviderHuggingFace)
			}
		default:
			return fmt.Errorf("%s: unsupported provider %q", stage.name, stage.cfg.Provider)
		}
		if stage.cfg.MaxRetries < 0 {
			return fmt.Errorf("%s: max_retries must not be negative", stage.name)
		}
	}

	if c.Upload.MaxSizeMB < 0 {
		return fmt.Errorf("upload.max_size_mb must not be negative")
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
