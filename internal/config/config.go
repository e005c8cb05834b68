package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	AI        AIConfig        `mapstructure:"ai"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Env             string        `mapstructure:"env" validate:"oneof=development staging production test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Driver             string `mapstructure:"driver" validate:"oneof=badger postgres supabase"`
	BadgerPath         string `mapstructure:"badger_path"`
	InMemory           bool   `mapstructure:"in_memory"`
	PostgresURL        string `mapstructure:"postgres_url"`
	SupabaseURL        string `mapstructure:"supabase_url" validate:"omitempty,url"`
	SupabaseServiceKey string `mapstructure:"supabase_service_key"`
}

// AIConfig configures the remote advice service
type AIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RawAPIKey   string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	Model       string        `mapstructure:"model" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1,max=5"`

	// APIKey holds the key in locked memory once Load returns; RawAPIKey is cleared
	APIKey *Secret `mapstructure:"-"`
}

// AuthConfig selects how bearer tokens are verified
type AuthConfig struct {
	Mode      string `mapstructure:"mode" validate:"oneof=jwt supabase"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// LoggingConfig configures the process logger
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// TelemetryConfig configures metrics export
type TelemetryConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	ServiceName    string `mapstructure:"service_name" validate:"required"`
}

// WorkerConfig configures the background jobs
type WorkerConfig struct {
	WeeklyEnabled bool          `mapstructure:"weekly_enabled"`
	Interval      time.Duration `mapstructure:"interval" validate:"gte=1m"`
	MaxTries      uint          `mapstructure:"max_tries" validate:"min=1,max=10"`
	Concurrency   int           `mapstructure:"concurrency" validate:"min=1,max=64"`
	Timezone      string        `mapstructure:"timezone" validate:"timezone"`
	RetentionDays int           `mapstructure:"retention_days" validate:"min=0"`
}

// Location resolves the worker timezone
func (w WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("storage.driver", "badger")
	v.SetDefault("storage.badger_path", "./data/heldairy")
	v.SetDefault("storage.in_memory", false)
	v.SetDefault("storage.postgres_url", "")
	v.SetDefault("storage.supabase_url", "")
	v.SetDefault("storage.supabase_service_key", "")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://api.deepseek.com")
	v.SetDefault("ai.model", "deepseek-chat")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.max_attempts", 2)

	v.SetDefault("auth.mode", "jwt")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.service_name", "heldairy-api")

	v.SetDefault("worker.weekly_enabled", true)
	v.SetDefault("worker.interval", "6h")
	v.SetDefault("worker.max_tries", 3)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.timezone", "UTC")
	v.SetDefault("worker.retention_days", 90)
}

// Load reads configuration from an optional .env file, environment variables
// and an optional config file
func Load() (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HELDAIRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also bind to non-prefixed environment variables used by hosting platforms
	_ = v.BindEnv("server.port", "HELDAIRY_SERVER_PORT", "PORT")
	_ = v.BindEnv("storage.supabase_url", "HELDAIRY_STORAGE_SUPABASE_URL", "SUPABASE_URL")
	_ = v.BindEnv("storage.supabase_service_key", "HELDAIRY_STORAGE_SUPABASE_SERVICE_KEY", "SUPABASE_SERVICE_KEY")
	_ = v.BindEnv("storage.postgres_url", "HELDAIRY_STORAGE_POSTGRES_URL", "DATABASE_URL")
	_ = v.BindEnv("ai.api_key", "HELDAIRY_AI_API_KEY", "DEEPSEEK_API_KEY")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.AI.APIKey = NewSecret(strings.TrimSpace(cfg.AI.RawAPIKey))
	cfg.AI.RawAPIKey = ""

	if err := cfg.Validate(); err != nil {
		cfg.AI.APIKey.Destroy()
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the settings each selected mode requires
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Storage.Driver {
	case "badger":
		if !c.Storage.InMemory && strings.TrimSpace(c.Storage.BadgerPath) == "" {
			return errors.New("storage.badger_path is required unless storage.in_memory is set")
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.PostgresURL) == "" {
			return errors.New("storage.postgres_url is required for the postgres driver")
		}
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseServiceKey == "" {
			return errors.New("storage.supabase_url and storage.supabase_service_key are required for the supabase driver")
		}
	}

	switch c.Auth.Mode {
	case "jwt":
		secret := strings.TrimSpace(c.Auth.JWTSecret)
		if secret == "" {
			return errors.New("auth.jwt_secret is required in jwt mode")
		}
		if len(secret) < 16 {
			return errors.New("auth.jwt_secret is too short; use at least 16 characters")
		}
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseServiceKey == "" {
			return errors.New("supabase auth requires storage.supabase_url and storage.supabase_service_key")
		}
	}

	// A missing API key is not fatal; advice requests then report ErrMissingAPIKey
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
