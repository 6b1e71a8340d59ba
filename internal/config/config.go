// Package config handles loading and validating the translynk configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the translynk daemon and CLI.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Backends   BackendsConfig   `mapstructure:"backends"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Playback   PlaybackConfig   `mapstructure:"playback"`
	Capture    CaptureConfig    `mapstructure:"capture"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Languages  LanguagesConfig  `mapstructure:"languages"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each exposed API surface.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC health endpoint.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`

	// MaxUploadBytes caps image and audio uploads.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// BackendsConfig locates the OCR, speech-to-text and translation services.
type BackendsConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	OCRPath          string        `mapstructure:"ocr_path"`
	SpeechToTextPath string        `mapstructure:"speech_to_text_path"`
	TranslatePath    string        `mapstructure:"translate_path"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"api_key"` // sent as a bearer token when set
}

// TTSConfig configures the speech synthesis fallback chain.
type TTSConfig struct {
	Enabled   bool            `mapstructure:"enabled"`
	NonLatin  []string        `mapstructure:"non_latin"` // base subtags routed to the remote backend first
	Rate      float64         `mapstructure:"rate"`
	Pitch     float64         `mapstructure:"pitch"`
	VoiceWait time.Duration   `mapstructure:"voice_wait"`
	Remote    RemoteTTSConfig `mapstructure:"remote"`
	Local     LocalTTSConfig  `mapstructure:"local"`
}

// RemoteTTSConfig points at the high-fidelity synthesis backend.
type RemoteTTSConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LocalTTSConfig selects the local synthesis engine.
type LocalTTSConfig struct {
	Backend string      `mapstructure:"backend"` // "piper" or "none"
	Piper   PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
type PiperConfig struct {
	Endpoint string            `mapstructure:"endpoint"` // Wyoming TCP endpoint (host:port)
	Voices   map[string]string `mapstructure:"voices"`   // base language code -> default Piper voice
}

// PlaybackConfig configures the audio output command.
type PlaybackConfig struct {
	Command []string `mapstructure:"command"` // audio is written to the command's stdin
}

// CaptureConfig configures the microphone.
type CaptureConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SampleRate uint32 `mapstructure:"sample_rate"`
	Channels   uint32 `mapstructure:"channels"`
}

// PipelineConfig holds the language defaults applied by the coordinator.
type PipelineConfig struct {
	DefaultSource string `mapstructure:"default_source"` // used when speech recognition detects nothing
	ImageSource   string `mapstructure:"image_source"`   // OCR has no language detection
	DefaultTarget string `mapstructure:"default_target"`
}

// LanguagesConfig optionally replaces the built-in language table.
type LanguagesConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./translynk.yaml, ./configs/translynk.yaml, /etc/translynk/translynk.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("translynk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/translynk")
	}

	// Environment variables: TRANSLYNK_BACKENDS_BASE_URL, TRANSLYNK_TTS_ENABLED, etc.
	v.SetEnvPrefix("TRANSLYNK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Backends.APIKey = resolveEnvRef(cfg.Backends.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.max_upload_bytes", 25<<20)
	v.SetDefault("backends.base_url", "http://localhost:3000")
	v.SetDefault("backends.ocr_path", "/api/ocr")
	v.SetDefault("backends.speech_to_text_path", "/api/speech-to-text")
	v.SetDefault("backends.translate_path", "/api/translate")
	v.SetDefault("backends.timeout", 30*time.Second)
	v.SetDefault("backends.api_key", "")
	v.SetDefault("tts.enabled", true)
	v.SetDefault("tts.non_latin", []string{"ja", "ko", "zh", "hi", "ar", "ta"})
	v.SetDefault("tts.rate", 0.9)
	v.SetDefault("tts.pitch", 1.0)
	v.SetDefault("tts.voice_wait", 2*time.Second)
	v.SetDefault("tts.remote.enabled", true)
	v.SetDefault("tts.remote.endpoint", "http://127.0.0.1:5002/tts")
	v.SetDefault("tts.remote.timeout", 10*time.Second)
	v.SetDefault("tts.local.backend", "piper")
	v.SetDefault("tts.local.piper.endpoint", "localhost:10200")
	v.SetDefault("playback.command", []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-"})
	v.SetDefault("capture.enabled", true)
	v.SetDefault("capture.sample_rate", 16000)
	v.SetDefault("capture.channels", 1)
	v.SetDefault("pipeline.default_source", "en")
	v.SetDefault("pipeline.image_source", "en")
	v.SetDefault("pipeline.default_target", "es")
	v.SetDefault("languages.file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks settings that would otherwise fail deep inside a pipeline run.
func (c *Config) Validate() error {
	if c.Backends.BaseURL == "" {
		return fmt.Errorf("config: backends.base_url must be set")
	}
	if c.TTS.Rate <= 0 {
		return fmt.Errorf("config: tts.rate must be positive, got %v", c.TTS.Rate)
	}
	switch c.TTS.Local.Backend {
	case "piper", "none", "":
	default:
		return fmt.Errorf("config: unknown tts.local.backend %q (supported: piper, none)", c.TTS.Local.Backend)
	}
	if c.Capture.Enabled && (c.Capture.SampleRate == 0 || c.Capture.Channels == 0) {
		return fmt.Errorf("config: capture.sample_rate and capture.channels must be non-zero")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
