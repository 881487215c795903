package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".social-writer"

// Provider names accepted in llm.provider
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// ConfigOverrides allows overriding embedded defaults with file paths
type ConfigOverrides struct {
	SettingsPath *string
	PersonaPath  *string
	PromptsDir   *string
	APIKey       *string
}

//go:embed config/settings.yaml
var defaultSettings string

// CORSSettings controls the cross-origin policy of the HTTP API
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// ServerSettings configures the HTTP listener
type ServerSettings struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSSettings  `yaml:"cors"`
}

// Addr returns the host:port the server listens on
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderConfig is the typed configuration of the LLM completion provider
type ProviderConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SearchSettings configures the web search engine
type SearchSettings struct {
	Engine     string        `yaml:"engine"`
	Endpoint   string        `yaml:"endpoint"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
}

// PipelineSettings configures how the generator reacts to failed model phases
type PipelineSettings struct {
	OnPhaseFailure PhaseFailurePolicy `yaml:"on_phase_failure"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	Server   ServerSettings   `yaml:"server"`
	LLM      ProviderConfig   `yaml:"llm"`
	Search   SearchSettings   `yaml:"search"`
	Pipeline PipelineSettings `yaml:"pipeline"`
}

// LoadSettings reads settings from the override path or the default config
// directory, layered over the embedded defaults, then applies environment
// variables. An explicit settings path must exist.
func LoadSettings(overrides *ConfigOverrides) (*Settings, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}

	settings, err := parseSettings([]byte(defaultSettings), nil)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded settings: %w", err)
	}

	if overrides != nil && overrides.SettingsPath != nil {
		data, err := os.ReadFile(*overrides.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("reading settings file %s: %w", *overrides.SettingsPath, err)
		}
		if settings, err = parseSettings(data, settings); err != nil {
			return nil, fmt.Errorf("parsing settings file %s: %w", *overrides.SettingsPath, err)
		}
	} else {
		if err := ensureConfigExists(defaultConfigDir); err != nil {
			return nil, fmt.Errorf("ensuring config files exist: %w", err)
		}
		settingsPath := filepath.Join(defaultConfigDir, "settings.yaml")
		if data, err := os.ReadFile(settingsPath); err == nil {
			if settings, err = parseSettings(data, settings); err != nil {
				return nil, fmt.Errorf("parsing settings file %s: %w", settingsPath, err)
			}
		}
	}

	applyEnvOverrides(settings)
	if overrides != nil && overrides.APIKey != nil && *overrides.APIKey != "" {
		settings.LLM.APIKey = *overrides.APIKey
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// parseSettings unmarshals data on top of base so absent keys keep their values
func parseSettings(data []byte, base *Settings) (*Settings, error) {
	settings := &Settings{}
	if base != nil {
		copied := *base
		settings = &copied
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the settings for values the service cannot run with
func (s *Settings) Validate() error {
	switch s.LLM.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm provider %q (want %s, %s or %s)",
			s.LLM.Provider, ProviderOpenAI, ProviderGemini, ProviderAnthropic)
	}
	if s.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	switch s.Pipeline.OnPhaseFailure {
	case PolicyDegrade, PolicyAbort:
	case "":
		s.Pipeline.OnPhaseFailure = PolicyDegrade
	default:
		return fmt.Errorf("unknown pipeline.on_phase_failure %q", s.Pipeline.OnPhaseFailure)
	}
	if s.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must not be negative, got %d", s.Search.MaxResults)
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", s.Server.Port)
	}
	return nil
}

// applyEnvOverrides lets the environment win over the YAML file
func applyEnvOverrides(s *Settings) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		s.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		s.LLM.Provider = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		s.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		s.LLM.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			s.Server.Port = port
		}
	}
}

// loadEnvFiles loads .env.local then .env; missing files are ignored
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// ensureConfigExists creates the config directory and writes settings.yaml if needed
func ensureConfigExists(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsFile := filepath.Join(configDir, "settings.yaml")
	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing settings.yaml: %w", err)
		}
	}

	return nil
}
