// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file
// when one is present), loads them into structured Go types, and
// validates that required values are present so they can be reused
// across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map the flat env names (DB_HOST, PORT, ...) into a nested config.
//   - Provide sane defaults for everything that is optional.
//   - Validate required values so the app fails fast on bad/missing config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: triggers godotenv's autoload feature.
	// If a `.env` file exists, it gets loaded into the process env
	// before any code reads env vars.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ServiceName tags logs, traces and the New Relic application.
const ServiceName = "items"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are stored as seconds and converted when the http.Server is built.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required,numeric"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimitRPS is the per-client request rate. Zero disables the limiter.
	RateLimitRPS float64 `koanf:"rate_limit_rps" validate:"min=0"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
//
// AdminName is the maintenance database the seeder connects to while it
// checks for (and creates) Name.
type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required,min=1,max=65535"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name" validate:"required"`
	AdminName       string        `koanf:"admin_name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int32         `koanf:"max_conns" validate:"min=1"`
	MinConns        int32         `koanf:"min_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

// envKeys maps the recognised environment variable names to koanf key paths.
// Anything not listed here is ignored.
var envKeys = map[string]string{
	"APP_ENV": "primary.env",

	"PORT":                 "server.port",
	"SERVER_READ_TIMEOUT":  "server.read_timeout",
	"SERVER_WRITE_TIMEOUT": "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":  "server.idle_timeout",
	"CORS_ALLOWED_ORIGINS": "server.cors_allowed_origins",
	"RATE_LIMIT_RPS":       "server.rate_limit_rps",

	"DB_HOST":               "database.host",
	"DB_PORT":               "database.port",
	"DB_USER":               "database.user",
	"DB_PASSWORD":           "database.password",
	"DB_NAME":               "database.name",
	"DB_ADMIN_NAME":         "database.admin_name",
	"DB_SSL_MODE":           "database.ssl_mode",
	"DB_MAX_CONNS":          "database.max_conns",
	"DB_MIN_CONNS":          "database.min_conns",
	"DB_CONN_MAX_LIFETIME":  "database.conn_max_lifetime",
	"DB_CONN_MAX_IDLE_TIME": "database.conn_max_idle_time",

	"LOG_LEVEL":                     "observability.logging.level",
	"LOG_FORMAT":                    "observability.logging.format",
	"LOG_SLOW_QUERY_THRESHOLD":      "observability.logging.slow_query_threshold",
	"NEW_RELIC_LICENSE_KEY":         "observability.new_relic.license_key",
	"NEW_RELIC_APP_LOG_FORWARDING":  "observability.new_relic.app_log_forwarding_enabled",
	"NEW_RELIC_DISTRIBUTED_TRACING": "observability.new_relic.distributed_tracing_enabled",
	"NEW_RELIC_DEBUG":               "observability.new_relic.debug_logging",
	"HEALTH_CHECK_ENABLED":          "observability.health_checks.enabled",
	"HEALTH_CHECK_TIMEOUT":          "observability.health_checks.timeout",
}

// Default returns a Config populated with every optional default.
// Required values (database host, user and name) are left empty.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "5550",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			RateLimitRPS:       20,
		},
		Database: DatabaseConfig{
			Port:            5432,
			AdminName:       "postgres",
			SSLMode:         "disable",
			MaxConns:        10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables on top of
// Default(), validates it and returns the result.
//
// Behavior summary:
//   - Only the names in envKeys are read; each is mapped to a nested key
//   - Unmarshal leaves untouched fields at their default value
//   - Comma separated values are split into slices
//   - Validates required config blocks/fields
//   - Forces the observability service name + environment
//   - Validates observability config as well
func LoadConfig() (*Config, error) {
	// The "." is the key-path delimiter koanf uses to represent nesting,
	// e.g. "database.host" means Config.Database.Host.
	k := koanf.New(".")

	err := k.Load(env.Provider("", ".", func(s string) string {
		// Returning "" makes the provider skip the variable.
		return envKeys[strings.ToUpper(s)]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()
	// koanf's default decoder has no string-to-slice hook, so comma lists
	// such as CORS_ALLOWED_ORIGINS would land as a single element.
	err = k.UnmarshalWithConf("", mainConfig, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           mainConfig,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config so
	// logs and traces carry consistent labels.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
