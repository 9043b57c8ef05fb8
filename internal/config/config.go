package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Google scopes requested at login. Classroom and Calendar are read through the proxy routes.
const defaultScopes = "openid email profile " +
	"https://www.googleapis.com/auth/classroom.courses.readonly " +
	"https://www.googleapis.com/auth/classroom.coursework.me.readonly " +
	"https://www.googleapis.com/auth/calendar.readonly"

// ErrOAuthNotConfigured is returned by OAuthClientConfig.Validate when provider credentials are absent
var ErrOAuthNotConfigured = errors.New("google oauth is not configured")

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	Environment    string   `json:"environment"`
	AllowedOrigins []string `json:"allowed_origins"`

	// Database configuration
	DBDriver    string `json:"db_driver"`
	DatabaseURL string `json:"database_url"`
	DBHost      string `json:"db_host"`
	DBPort      string `json:"db_port"`
	DBName      string `json:"db_name"`
	DBUser      string `json:"db_user"`
	DBPassword  string `json:"db_password"`
	DBSSLMode   string `json:"db_sslmode"`
	DBPath      string `json:"db_path"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret          string        `json:"jwt_secret"`
	AdminTokenTTL      time.Duration `json:"admin_token_ttl"`
	RateLimitPerSecond int           `json:"rate_limit_per_second"`
	RateLimitBurst     int           `json:"rate_limit_burst"`

	// Provider configuration
	OAuth  OAuthClientConfig `json:"oauth"`
	Google GoogleAPIConfig   `json:"google"`
}

// OAuthClientConfig holds the Google OAuth client registration used by the login flow.
// It is built once at startup and passed to the orchestrator explicitly.
type OAuthClientConfig struct {
	ClientID     string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string   `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:8080/auth/callback"`
	FrontendURL  string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:" "`

	// Endpoint overrides, empty means Google's published endpoints
	AuthURL     string `env:"OAUTH_AUTH_URL"`
	TokenURL    string `env:"OAUTH_TOKEN_URL"`
	UserInfoURL string `env:"OAUTH_USERINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v2/userinfo"`

	StateTTL          time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	SessionTTLMinutes int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`

	// EmailHintSkipsPrompt drops the prompt parameter when an email hint matches an
	// account that already has a refresh token. Disable it to stop the redirect shape
	// from revealing whether an account exists.
	EmailHintSkipsPrompt bool `env:"OAUTH_EMAIL_HINT_SKIPS_PROMPT" envDefault:"true"`
}

// GoogleAPIConfig holds the base URLs of the Google APIs proxied for signed in accounts
type GoogleAPIConfig struct {
	ClassroomBaseURL string `env:"GOOGLE_CLASSROOM_BASE_URL" envDefault:"https://classroom.googleapis.com/v1"`
	CalendarBaseURL  string `env:"GOOGLE_CALENDAR_BASE_URL" envDefault:"https://www.googleapis.com/calendar/v3"`
}

// Configured reports whether provider credentials are present
func (c OAuthClientConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SessionTTL returns the lifetime of issued session tokens
func (c OAuthClientConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Validate checks the client registration. Missing credentials yield ErrOAuthNotConfigured.
func (c OAuthClientConfig) Validate() error {
	if !c.Configured() {
		return ErrOAuthNotConfigured
	}
	if _, err := url.ParseRequestURI(c.RedirectURI); err != nil {
		return fmt.Errorf("invalid GOOGLE_REDIRECT_URI: %w", err)
	}
	if _, err := url.ParseRequestURI(c.FrontendURL); err != nil {
		return fmt.Errorf("invalid FRONTEND_URL: %w", err)
	}
	if c.StateTTL <= 0 {
		return fmt.Errorf("OAUTH_STATE_TTL must be positive, got %s", c.StateTTL)
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	return nil
}

// String returns a string representation of OAuthClientConfig with the secret masked
func (c OAuthClientConfig) String() string {
	return fmt.Sprintf("OAuthClientConfig{ClientID: %s, ClientSecret: [REDACTED], RedirectURI: %s, FrontendURL: %s, Scopes: %v, StateTTL: %s, SessionTTLMinutes: %d, EmailHintSkipsPrompt: %t}",
		c.ClientID, c.RedirectURI, c.FrontendURL, c.Scopes, c.StateTTL, c.SessionTTLMinutes, c.EmailHintSkipsPrompt)
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, Environment: %s, DBDriver: %s, DatabaseURL: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, JWTSecret: [REDACTED], OAuth: %s}",
		c.Port, c.Host, c.Environment, c.DBDriver, maskDatabaseURL(c.DatabaseURL), c.DBHost, c.DBName, c.DBUser, c.LogLevel, c.OAuth.String())
}

// maskDatabaseURL masks password in database URL
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// It also validates formats like DatabaseURL and the OAuth block.
// Missing Google credentials are not an error: the /auth routes answer "not configured" instead.
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	dbURL := GetEnvWithDefault("DATABASE_URL", "")
	if dbURL != "" {
		if _, err := url.ParseRequestURI(dbURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL format: %w", err)
		}
	}

	adminTTL, err := time.ParseDuration(GetEnvWithDefault("ADMIN_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TOKEN_TTL: %w", err)
	}

	oauthConf, err := LoadOAuthClientConfig()
	if err != nil {
		return nil, err
	}

	var google GoogleAPIConfig
	if err := env.Parse(&google); err != nil {
		return nil, fmt.Errorf("failed to parse google api configuration: %w", err)
	}

	config := &Config{
		Port:               port,
		Host:               GetEnvWithDefault("APP_HOST", "localhost"),
		Environment:        GetEnvWithDefault("APP_ENV", "development"),
		AllowedOrigins:     splitList(GetEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		DBDriver:           GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DatabaseURL:        dbURL,
		DBHost:             GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:             GetEnvWithDefault("DB_PORT", "5432"),
		DBName:             GetEnvWithDefault("DB_NAME", "insighthub"),
		DBUser:             GetEnvWithDefault("DB_USER", "user"),
		DBPassword:         GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:          GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:             GetEnvWithDefault("DB_PATH", "insighthub.sqlite"),
		LogLevel:           GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:          GetEnvWithDefault("JWT_SECRET", "dev-secret-key-change-in-production"),
		AdminTokenTTL:      adminTTL,
		RateLimitPerSecond: GetEnvAsType("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     GetEnvAsType("RATE_LIMIT_BURST", 10),
		OAuth:              oauthConf,
		Google:             google,
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// LoadOAuthClientConfig parses the OAuth block from the environment
func LoadOAuthClientConfig() (OAuthClientConfig, error) {
	var conf OAuthClientConfig
	if err := env.Parse(&conf); err != nil {
		return OAuthClientConfig{}, fmt.Errorf("failed to parse oauth configuration: %w", err)
	}
	if len(conf.Scopes) == 0 {
		conf.Scopes = strings.Fields(defaultScopes)
	}
	if !conf.Configured() {
		log.Warn("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, /auth routes are disabled")
	}
	return conf, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
