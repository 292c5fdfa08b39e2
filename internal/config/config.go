package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration with validation
type Config struct {
	// Application settings
	Port     int    `validate:"required,min=1,max=65535"`
	LogLevel string `validate:"required,oneof=debug info warn error"`

	// Remote equipment API
	RemoteAPI RemoteAPIConfig

	// Equipment form rules
	Workflow WorkflowConfig

	// Submission journal, disabled when DSN is empty
	Journal JournalConfig

	// External services
	NotificationService NotificationConfig

	// Security settings
	Security SecurityConfig

	// Performance settings
	Server ServerConfig
}

// RemoteAPIConfig holds the equipment API client configuration
type RemoteAPIConfig struct {
	BaseURL      string        `validate:"required,url"`
	Timeout      time.Duration `validate:"required"`
	UserAgent    string
	MaxBodyBytes int64 `validate:"min=1024"`
}

// WorkflowConfig holds the accepted equipment states
type WorkflowConfig struct {
	States     []string
	StatesFile string
}

// JournalConfig holds the journal database configuration
type JournalConfig struct {
	DSN             string
	MaxOpenConns    int `validate:"min=1"`
	MaxIdleConns    int `validate:"min=1"`
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Enabled reports whether submissions are journaled.
func (j JournalConfig) Enabled() bool {
	return j.DSN != ""
}

// NotificationConfig holds notification service configuration
type NotificationConfig struct {
	URL            string        `validate:"omitempty,url"`
	Timeout        time.Duration `validate:"required"`
	RetryAttempts  int           `validate:"min=0,max=10"`
	RetryDelay     time.Duration
	MaxPayloadSize int64 `validate:"min=1024"`
}

// Enabled reports whether outcome notifications are sent.
func (n NotificationConfig) Enabled() bool {
	return n.URL != ""
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitRPS    int           `validate:"min=1"`
	RateLimitBurst  int           `validate:"min=1"`
	RequestTimeout  time.Duration `validate:"required"`
	ShutdownTimeout time.Duration `validate:"required"`
	EnableCORS      bool
	AllowedOrigins  []string
	TrustedProxies  []string
}

// ServerConfig holds server performance configuration
type ServerConfig struct {
	ReadTimeout    time.Duration `validate:"required"`
	WriteTimeout   time.Duration `validate:"required"`
	IdleTimeout    time.Duration `validate:"required"`
	MaxHeaderBytes int           `validate:"min=1024"`
}

// statesFile is the layout of CONSOLE_STATES_FILE.
type statesFile struct {
	States []string `yaml:"states"`
}

// LoadConfig loads and validates the configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:     getEnvAsInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RemoteAPI: RemoteAPIConfig{
			BaseURL:      strings.TrimRight(getEnv("CONSOLE_API_BASE_URL", "http://localhost:5000/api"), "/"),
			Timeout:      getEnvAsDuration("CONSOLE_API_TIMEOUT", 15*time.Second),
			UserAgent:    getEnv("CONSOLE_API_USER_AGENT", "equipment-console/1.0"),
			MaxBodyBytes: getEnvAsInt64("CONSOLE_API_MAX_BODY_BYTES", 4<<20),
		},

		Workflow: WorkflowConfig{
			States:     getEnvAsSlice("CONSOLE_STATES", nil),
			StatesFile: getEnv("CONSOLE_STATES_FILE", ""),
		},

		Journal: JournalConfig{
			DSN:             getEnv("JOURNAL_DSN", ""),
			MaxOpenConns:    getEnvAsInt("JOURNAL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("JOURNAL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("JOURNAL_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("JOURNAL_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},

		NotificationService: NotificationConfig{
			URL:            getEnv("NOTIFIER_URL", ""),
			Timeout:        getEnvAsDuration("NOTIFIER_TIMEOUT", 10*time.Second),
			RetryAttempts:  getEnvAsInt("NOTIFIER_RETRY_ATTEMPTS", 3),
			RetryDelay:     getEnvAsDuration("NOTIFIER_RETRY_DELAY", time.Second),
			MaxPayloadSize: getEnvAsInt64("NOTIFIER_MAX_PAYLOAD_SIZE", 1024*1024),
		},

		Security: SecurityConfig{
			RateLimitRPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 200),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			EnableCORS:      getEnvAsBool("ENABLE_CORS", true),
			AllowedOrigins:  getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:  getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},

		Server: ServerConfig{
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxHeaderBytes: getEnvAsInt("SERVER_MAX_HEADER_BYTES", 1<<20), // 1MB
		},
	}

	if len(config.Workflow.States) == 0 && config.Workflow.StatesFile != "" {
		states, err := LoadStatesFile(config.Workflow.StatesFile)
		if err != nil {
			return nil, err
		}
		config.Workflow.States = states
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadStatesFile reads the accepted equipment states from a YAML file of the form
//
//	states:
//	  - En Service
//	  - En panne
func LoadStatesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read states file: %w", err)
	}
	var f statesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse states file %s: %w", path, err)
	}
	if len(f.States) == 0 {
		return nil, fmt.Errorf("states file %s lists no states", path)
	}
	return f.States, nil
}

// validateConfig checks the struct rules and the cross-field constraints
func validateConfig(config *Config) error {
	var errors []string

	if err := validator.New().Struct(config); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				errors = append(errors, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errors = append(errors, err.Error())
		}
	}

	if config.Journal.MaxIdleConns > config.Journal.MaxOpenConns {
		errors = append(errors, "journal max idle connections cannot exceed max open connections")
	}
	if config.Security.RateLimitBurst < config.Security.RateLimitRPS {
		errors = append(errors, "rate limit burst must be at least the rate limit")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return defaultValue
}
