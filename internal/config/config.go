package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	AI      AI      `mapstructure:"ai"`
	Storage Storage `mapstructure:"storage"`
	Server  Server  `mapstructure:"server"`
	Logging Logging `mapstructure:"logging"`
	Output  Output  `mapstructure:"output"`
}

// App holds general application configuration
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// AI holds generation service configuration
type AI struct {
	Provider string       `mapstructure:"provider"` // "gemini" or "openai"
	Timeout  string       `mapstructure:"timeout"`  // Per-request timeout
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// OpenAIConfig holds configuration for OpenAI-compatible providers
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// Storage holds saved-worksheet persistence configuration
type Storage struct {
	Backend    string `mapstructure:"backend"`     // "file", "sqlite" or "memory"
	Key        string `mapstructure:"key"`         // Storage key holding the saved documents
	SQLiteFile string `mapstructure:"sqlite_file"` // Database file name inside app.data_dir
}

// Server holds HTTP server configuration
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORS          `mapstructure:"cors"`
}

// CORS holds cross-origin settings for the HTTP API
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Output holds printed worksheet output configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

// Load loads the configuration from .env, the config file, and the environment.
// A missing config file is not an error; missing credentials are reported later,
// when the generation service is first used.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".tamgu")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.SetEnvPrefix("TAMGU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.debug", false)
	v.SetDefault("app.data_dir", ".tamgu")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("ai.openai.model", "gpt-4o-mini")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.key", "inquiryLifeDocs_v3")
	v.SetDefault("storage.sqlite_file", "tamgu.db")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors.enabled", false)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("output.directory", "worksheets")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	// API_KEY is accepted for older deployments
	bindEnvKeys(v, "ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"API_KEY",
	})

	bindEnvKeys(v, "ai.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys(v, "ai.openai.base_url", []string{
		"OPENAI_BASE_URL",
	})

	bindEnvKeys(v, "ai.provider", []string{
		"TAMGU_AI_PROVIDER",
		"AI_PROVIDER",
	})

	bindEnvKeys(v, "app.debug", []string{
		"DEBUG",
		"TAMGU_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Output.Directory != "" {
		config.Output.Directory = expandPath(config.Output.Directory)
	}

	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	if config.AI.Timeout != "" {
		if _, err := time.ParseDuration(config.AI.Timeout); err != nil {
			return fmt.Errorf("invalid duration for ai.timeout: %s", config.AI.Timeout)
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig checks values that would make the application misbehave
func validateConfig(config *Config) error {
	var errs []string

	switch config.AI.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Sprintf("Unknown AI provider: %s. Supported: gemini, openai", config.AI.Provider))
	}

	switch config.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Sprintf("Unknown storage backend: %s. Supported: file, sqlite, memory", config.Storage.Backend))
	}

	if strings.TrimSpace(config.Storage.Key) == "" {
		errs = append(errs, "storage.key must not be empty")
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port out of range: %d", config.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// RequestTimeout returns the parsed per-request AI timeout (zero means none).
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ActiveAPIKey returns the credential of the selected provider.
func (c *Config) ActiveAPIKey() string {
	if c.AI.Provider == "openai" {
		return c.AI.OpenAI.APIKey
	}
	return c.AI.Gemini.APIKey
}

// HasValidAPIKey reports whether the selected provider has a usable credential.
func (c *Config) HasValidAPIKey() bool {
	return isValidAPIKey(c.ActiveAPIKey())
}

// isValidAPIKey checks if an API key is valid (not empty and not a placeholder)
func isValidAPIKey(apiKey string) bool {
	if strings.TrimSpace(apiKey) == "" {
		return false
	}

	placeholders := []string{
		"your-api-key", "your-gemini-key", "your-openai-key",
		"YOUR_API_KEY", "PLACEHOLDER", "TODO", "CHANGE_ME",
	}

	for _, placeholder := range placeholders {
		if apiKey == placeholder {
			return false
		}
	}

	return true
}
