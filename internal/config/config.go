// Package config loads the service configuration from YAML with
// environment-variable overrides for secrets and deployment-specific
// values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`
	DevMode  bool   `yaml:"devMode"`

	// DatabaseURL selects the store backend: a postgres DSN, or a path
	// prefixed with "sqlite:" for embedded deployments.
	DatabaseURL string `yaml:"databaseURL"`

	UploadDir      string `yaml:"uploadDir"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
	YtDlpPath      string `yaml:"ytDlpPath"`

	Transcriber TranscriberConfig `yaml:"transcriber"`
	AI          AIConfig          `yaml:"ai"`
	RateLimit   RateLimitConfig   `yaml:"rateLimit"`
}

// TranscriberConfig selects and parameterizes the transcription backend.
type TranscriberConfig struct {
	Backend        string   `yaml:"backend"` // http | command | stream
	ServiceURL     string   `yaml:"serviceURL"`
	Command        string   `yaml:"command"`
	CommandArgs    []string `yaml:"commandArgs"`
	StreamURL      string   `yaml:"streamURL"`
	StreamToken    string   `yaml:"streamToken"`
	TimeoutSeconds int      `yaml:"timeoutSeconds"`
}

// AIConfig selects the text-generation provider.
type AIConfig struct {
	Provider        string `yaml:"provider"` // gemini | ollama | openai
	GenerationModel string `yaml:"generationModel"`
	GeminiAPIKey    string `yaml:"geminiAPIKey"`
	OllamaBaseURL   string `yaml:"ollamaBaseURL"`
	OpenAIBaseURL   string `yaml:"openAIBaseURL"`
	OpenAIAPIKey    string `yaml:"openAIAPIKey"`
}

// RateLimitConfig caps generation requests per owner. Disabled when
// RedisAddr is empty.
type RateLimitConfig struct {
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	Limit         int    `yaml:"limit"`
	WindowSeconds int    `yaml:"windowSeconds"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnvOverrides(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *FileConfig) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("TRANSCRIBE_SERVICE_URL"); v != "" {
		cfg.Transcriber.ServiceURL = v
	}
	if v := os.Getenv("TRANSCRIBE_STREAM_TOKEN"); v != "" {
		cfg.Transcriber.StreamToken = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.GeminiAPIKey = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.AI.OllamaBaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.OpenAIAPIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RateLimit.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RateLimit.RedisPassword = v
	}
	if v := os.Getenv("DEV_MODE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.DevMode = parsed
		}
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.UploadDir == "" {
		return errors.New("config: uploadDir is required (set in config.yaml)")
	}

	switch cfg.Transcriber.Backend {
	case "http":
		if cfg.Transcriber.ServiceURL == "" {
			return errors.New("config: transcriber.serviceURL is required for the http backend")
		}
	case "command":
		if cfg.Transcriber.Command == "" {
			return errors.New("config: transcriber.command is required for the command backend")
		}
	case "stream":
		if cfg.Transcriber.StreamURL == "" {
			return errors.New("config: transcriber.streamURL is required for the stream backend")
		}
	case "":
		return errors.New("config: transcriber.backend is required (http, command or stream)")
	default:
		return fmt.Errorf("config: unknown transcriber.backend %q", cfg.Transcriber.Backend)
	}

	if cfg.AI.GenerationModel == "" {
		return errors.New("config: ai.generationModel is required (set in config.yaml)")
	}
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.GeminiAPIKey == "" {
			return errors.New("config: ai.geminiAPIKey is required (set in config.yaml or GEMINI_API_KEY)")
		}
	case "ollama":
		if cfg.AI.OllamaBaseURL == "" {
			return errors.New("config: ai.ollamaBaseURL is required (set in config.yaml or OLLAMA_BASE_URL)")
		}
	case "openai":
		if cfg.AI.OpenAIBaseURL == "" {
			return errors.New("config: ai.openAIBaseURL is required (set in config.yaml)")
		}
	case "":
		return errors.New("config: ai.provider is required (gemini, ollama or openai)")
	default:
		return fmt.Errorf("config: unknown ai.provider %q", cfg.AI.Provider)
	}

	if cfg.RateLimit.RedisAddr != "" {
		if cfg.RateLimit.Limit <= 0 {
			return errors.New("config: rateLimit.limit must be positive when redisAddr is set")
		}
		if cfg.RateLimit.WindowSeconds <= 0 {
			return errors.New("config: rateLimit.windowSeconds must be positive when redisAddr is set")
		}
	}
	return nil
}
