package infrastructure

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/pep299/iracify/internal/model"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.5-flash"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Model API settings
	ModelProvider string        `json:"model_provider"`
	OpenAIAPIKey  string        `json:"-"` // Don't expose in JSON
	OpenAIBaseURL string        `json:"openai_base_url,omitempty"`
	GeminiAPIKey  string        `json:"-"` // Don't expose in JSON
	ModelName     string        `json:"model_name"`
	ModelTimeout  time.Duration `json:"model_timeout"`
	FetchTimeout  time.Duration `json:"fetch_timeout"`

	// Admin settings
	AdminToken string `json:"-"` // Don't expose in JSON

	// Validation settings
	QuizReferencePolicy model.ReferencePolicy `json:"quiz_reference_policy"`
	RepromptOnInvalid   bool                  `json:"reprompt_on_invalid"`

	// Session settings
	SessionTTL           time.Duration `json:"session_ttl"`
	SessionSweepSchedule string        `json:"session_sweep_schedule"`

	// Observability
	LogMode      string `json:"log_mode"`
	OTelEnabled  bool   `json:"otel_enabled"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`

	// gs:// input support
	GCSEnabled bool `json:"gcs_enabled"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	provider := strings.ToLower(getEnvOrDefault("MODEL_PROVIDER", ProviderOpenAI))
	defaultModel := defaultOpenAIModel
	if provider == ProviderGemini {
		defaultModel = defaultGeminiModel
	}

	config := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		ModelProvider:        provider,
		OpenAIAPIKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnvOrDefault("OPENAI_BASE_URL", ""),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		ModelName:            getEnvOrDefault("MODEL_NAME", defaultModel),
		ModelTimeout:         time.Duration(getEnvOrDefaultInt("MODEL_TIMEOUT_SECONDS", 60)) * time.Second,
		FetchTimeout:         time.Duration(getEnvOrDefaultInt("FETCH_TIMEOUT_SECONDS", 20)) * time.Second,
		AdminToken:           getEnvOrDefault("ADMIN_TOKEN", ""),
		QuizReferencePolicy:  model.ReferencePolicy(strings.ToLower(getEnvOrDefault("QUIZ_REFERENCE_POLICY", string(model.ReferencePolicyDrop)))),
		RepromptOnInvalid:    getEnvOrDefaultBool("REPROMPT_ON_INVALID", false),
		SessionTTL:           time.Duration(getEnvOrDefaultInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		SessionSweepSchedule: getEnvOrDefault("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		LogMode:              getEnvOrDefault("LOG_MODE", "production"),
		OTelEnabled:          getEnvOrDefaultBool("OTEL_ENABLED", false),
		OTLPEndpoint:         getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		GCSEnabled:           getEnvOrDefaultBool("GCS_ENABLED", false),
	}

	return config, config.validate()
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	switch c.ModelProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Message: "OpenAI API key is required"}
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return &ConfigError{Field: "GEMINI_API_KEY", Message: "Gemini API key is required"}
		}
	default:
		return &ConfigError{Field: "MODEL_PROVIDER", Message: "must be openai or gemini"}
	}
	if c.ModelTimeout <= 0 {
		return &ConfigError{Field: "MODEL_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	if c.FetchTimeout <= 0 {
		return &ConfigError{Field: "FETCH_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	if _, ok := model.ParseReferencePolicy(string(c.QuizReferencePolicy)); !ok {
		return &ConfigError{Field: "QUIZ_REFERENCE_POLICY", Message: "must be drop or strict"}
	}
	if c.SessionTTL <= 0 {
		return &ConfigError{Field: "SESSION_TTL_MINUTES", Message: "must be positive"}
	}
	if _, err := cron.ParseStandard(c.SessionSweepSchedule); err != nil {
		return &ConfigError{Field: "SESSION_SWEEP_SCHEDULE", Message: err.Error()}
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// AdminEnabled reports whether the settings panel can be unlocked at all.
func (c *Config) AdminEnabled() bool {
	return c.AdminToken != ""
}

// DefaultSettings are the session settings a new visitor starts with.
func (c *Config) DefaultSettings() model.Settings {
	return model.Settings{
		Model:           c.ModelName,
		TopK:            12,
		Temperature:     0.1,
		QuizQuestions:   model.MaxQuizQuestions,
		ReferencePolicy: c.QuizReferencePolicy,
	}.Clamp()
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
