package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Database holds the document store connection.
	Database DatabaseConfig `mapstructure:",squash"`

	// Redis holds the ephemeral cache connection.
	Redis RedisConfig `mapstructure:",squash"`

	// Auth holds the token verification settings.
	Auth AuthConfig `mapstructure:",squash"`

	// Notifications holds the dispatcher, queue and transport settings.
	Notifications NotificationConfig `mapstructure:",squash"`

	// Identifiers holds the business number generator settings.
	Identifiers IdentifierConfig `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver string `mapstructure:"DB_DRIVER" default:"postgres"`
	// DSN is the driver specific connection string.
	DSN string `mapstructure:"DB_DSN" required:"true"`
	// MaxOpenConns caps the connection pool.
	MaxOpenConns int `mapstructure:"DB_MAX_OPEN_CONNS" default:"10"`
	// MaxIdleConns caps idle pooled connections.
	MaxIdleConns int `mapstructure:"DB_MAX_IDLE_CONNS" default:"5"`
	// ConnMaxLifetimeMin is the connection lifetime in minutes.
	ConnMaxLifetimeMin int `mapstructure:"DB_CONN_MAX_LIFETIME_MIN" default:"30"`
}

// RedisConfig holds the cache configuration.
type RedisConfig struct {
	// URL is the redis connection URL (redis://[:password@]host[:port][/database]).
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
	// QuoteTTL is how long a computed quote stays retrievable.
	QuoteTTL time.Duration `mapstructure:"QUOTE_TTL" default:"30m"`
}

// AuthConfig holds the JWT settings.
type AuthConfig struct {
	// JWTSecret is the HMAC key used to verify bearer tokens.
	JWTSecret string `mapstructure:"JWT_SECRET" required:"true"`
}

// NotificationConfig holds the notification pipeline settings.
type NotificationConfig struct {
	// Transport selects the delivery collaborator: log, webhook or kafka.
	Transport string `mapstructure:"NOTIFY_TRANSPORT" default:"log"`
	// From is the sender address placed on every message.
	From string `mapstructure:"NOTIFY_FROM" default:"no-reply@freight-booking.local"`
	// WebhookURL is the relay endpoint for the webhook transport.
	WebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`
	// KafkaBrokers is a comma separated broker list for the kafka transport.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the topic rendered messages are published to.
	KafkaTopic string `mapstructure:"KAFKA_TOPIC" default:"notifications.email"`
	// MaxAttempts is the number of delivery attempts per dispatch.
	MaxAttempts int `mapstructure:"NOTIFY_MAX_ATTEMPTS" default:"3"`
	// Backoff is the delay before the second attempt; it doubles afterwards.
	Backoff time.Duration `mapstructure:"NOTIFY_BACKOFF" default:"500ms"`
	// SendDelay is the pause between two queued sends.
	SendDelay time.Duration `mapstructure:"NOTIFY_SEND_DELAY" default:"200ms"`
	// MaxRequeues is how many times a failed job goes back on the queue before it is dropped.
	MaxRequeues int `mapstructure:"NOTIFY_MAX_REQUEUES" default:"3"`
}

// Brokers splits KafkaBrokers into a list.
func (n NotificationConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(n.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// IdentifierConfig holds the number generator settings.
type IdentifierConfig struct {
	// TrackingPrefix is the fixed three letter tracking number prefix.
	TrackingPrefix string `mapstructure:"TRACKING_PREFIX" default:"TRK"`
	// MaxAttempts caps regeneration on collisions.
	MaxAttempts int `mapstructure:"IDENTIFIER_MAX_ATTEMPTS" default:"10"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := validateChoices(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// walkFields calls fn for every leaf field of a (possibly nested) config struct.
func walkFields(val reflect.Value, fn func(field reflect.StructField, value reflect.Value) error) error {
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() == reflect.Struct {
			if err := walkFields(val.Field(i), fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(field, val.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// processTags binds every tagged key to the environment and registers its default.
func processTags(v *viper.Viper, config any) error {
	return walkFields(reflect.ValueOf(config), func(field reflect.StructField, _ reflect.Value) error {
		key := field.Tag.Get("mapstructure")
		if key == "" {
			return nil
		}
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
		if def := field.Tag.Get("default"); def != "" {
			v.SetDefault(key, def)
		}
		return nil
	})
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config any) error {
	return walkFields(reflect.ValueOf(config), func(field reflect.StructField, value reflect.Value) error {
		if field.Tag.Get("required") == "true" && value.IsZero() {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
		return nil
	})
}

// validateChoices checks driver and transport selections and their dependent keys.
func validateChoices(cfg *AppConfig) error {
	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid configuration DB_DRIVER: %q", cfg.Database.Driver)
	}

	switch cfg.Notifications.Transport {
	case "log":
	case "webhook":
		if cfg.Notifications.WebhookURL == "" {
			return errors.New("missing required configuration: NOTIFY_WEBHOOK_URL")
		}
	case "kafka":
		if len(cfg.Notifications.Brokers()) == 0 {
			return errors.New("missing required configuration: KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("invalid configuration NOTIFY_TRANSPORT: %q", cfg.Notifications.Transport)
	}

	if len(cfg.Identifiers.TrackingPrefix) != 3 {
		return fmt.Errorf("invalid configuration TRACKING_PREFIX: %q must be three letters", cfg.Identifiers.TrackingPrefix)
	}
	return nil
}
