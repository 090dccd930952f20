package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the triage backend. Values come
// from the environment, optionally seeded from a .env file.
type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	OperatorOrigins  []string      `mapstructure:"OPERATOR_ORIGINS"`
	DeepgramAPIKey   string        `mapstructure:"DEEPGRAM_API_KEY"`
	DeepgramSTTModel string        `mapstructure:"DEEPGRAM_STT_MODEL"`
	DeepgramTTSModel string        `mapstructure:"DEEPGRAM_TTS_MODEL"`
	LLMAPIKey        string        `mapstructure:"LLM_API_KEY"`
	LLMBaseURL       string        `mapstructure:"LLM_BASE_URL"`
	LLMModel         string        `mapstructure:"LLM_MODEL"`
	AudioDir         string        `mapstructure:"AUDIO_DIR"`
	FallbackPatient  string        `mapstructure:"FALLBACK_PATIENT_NAME"`
	STTTimeout       time.Duration `mapstructure:"STT_TIMEOUT"`
	LLMTimeout       time.Duration `mapstructure:"LLM_TIMEOUT"`
	TTSTimeout       time.Duration `mapstructure:"TTS_TIMEOUT"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("OPERATOR_ORIGINS", "http://localhost:3001")
	v.SetDefault("DEEPGRAM_STT_MODEL", "nova-2")
	v.SetDefault("DEEPGRAM_TTS_MODEL", "aura-asteria-en")
	v.SetDefault("LLM_MODEL", "llama-4-scout-17b-16e-instruct")
	v.SetDefault("AUDIO_DIR", "static/audio")
	v.SetDefault("FALLBACK_PATIENT_NAME", "John Smith")
	// Zero disables the per-call timeout, matching the original behaviour
	// of waiting on external services indefinitely.
	v.SetDefault("STT_TIMEOUT", time.Duration(0))
	v.SetDefault("LLM_TIMEOUT", time.Duration(0))
	v.SetDefault("TTS_TIMEOUT", time.Duration(0))

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("OPERATOR_ORIGINS")
	v.BindEnv("DEEPGRAM_API_KEY")
	v.BindEnv("DEEPGRAM_STT_MODEL")
	v.BindEnv("DEEPGRAM_TTS_MODEL")
	v.BindEnv("LLM_API_KEY")
	v.BindEnv("LLM_BASE_URL")
	v.BindEnv("LLM_MODEL")
	v.BindEnv("AUDIO_DIR")
	v.BindEnv("FALLBACK_PATIENT_NAME")
	v.BindEnv("STT_TIMEOUT")
	v.BindEnv("LLM_TIMEOUT")
	v.BindEnv("TTS_TIMEOUT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = splitOrigins(v.GetString("CORS_ORIGINS"))
	}
	if cfg.OperatorOrigins == nil {
		cfg.OperatorOrigins = splitOrigins(v.GetString("OPERATOR_ORIGINS"))
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.IsProduction() {
		if cfg.DeepgramAPIKey == "" {
			return nil, fmt.Errorf("DEEPGRAM_API_KEY is required in production")
		}
		if cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required in production")
		}
	}

	return cfg, nil
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether the server is configured for production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
