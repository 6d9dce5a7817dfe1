package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/currency"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// Location stores accepted by LOCATION_STORE.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Position providers accepted by POSITION_PROVIDER.
const (
	PositionStatic = "static"
	PositionIPAPI  = "ipapi"
	PositionDenied = "denied"
)

// keyLength is what gorilla/csrf requires for its authentication key.
const keyLength = 32

// Config holds all application configuration.
type Config struct {
	OrderAPI OrderAPIConfig
	Geo      GeoConfig
	Store    StoreConfig
	Server   ServerConfig
	Log      LogConfig
	Workers  WorkerConfig
	Currency currency.Unit
}

// OrderAPIConfig points at the backend that owns orders.
type OrderAPIConfig struct {
	URL     string
	Timeout time.Duration
}

// GeoConfig contains reverse geocoding and device position settings.
type GeoConfig struct {
	GeocoderURL      string
	UserAgent        string
	PositionProvider string
	IPAPIURL         string
	Default          domain.Coordinates
}

// StoreConfig selects where the last location and order receipts are kept.
type StoreConfig struct {
	Kind           string
	SQLitePath     string
	RedisAddr      string
	RedisKeyPrefix string
	MySQLDSN       string
}

// ServerConfig contains listener and cookie settings.
type ServerConfig struct {
	HTTPAddr     string
	GRPCAddr     string
	SessionKey   string
	CSRFKey      string
	CookieSecure bool
}

type LogConfig struct {
	Format string
	Level  slog.Level
}

type WorkerConfig struct {
	Count     int
	QueueSize int
}

// Load reads the configuration from the environment. SESSION_KEY and
// CSRF_KEY have no defaults.
func Load() (*Config, error) {
	cfg, err := load("", "")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but falls back to fixed development secrets.
// Only meant for local runs and the CLI.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load("dev-session-key-change-me-000000", "dev-csrf-key-change-me-000000000")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(sessionKey, csrfKey string) (*Config, error) {
	var errs []error

	timeout, err := getEnvDuration("HTTP_TIMEOUT", 10*time.Second)
	errs = append(errs, err)
	lat, err := getEnvFloat("DEFAULT_LAT", domain.DefaultCoordinates.Lat)
	errs = append(errs, err)
	lng, err := getEnvFloat("DEFAULT_LNG", domain.DefaultCoordinates.Lng)
	errs = append(errs, err)
	secure, err := getEnvBool("COOKIE_SECURE", false)
	errs = append(errs, err)
	workers, err := getEnvInt("WORKER_COUNT", 4)
	errs = append(errs, err)
	queue, err := getEnvInt("QUEUE_SIZE", 1000)
	errs = append(errs, err)

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	unit, err := currency.ParseISO(getEnv("CURRENCY", "INR"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid CURRENCY: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Config{
		OrderAPI: OrderAPIConfig{
			URL:     getEnv("ORDER_API_URL", "http://localhost:5000/api/orders"),
			Timeout: timeout,
		},
		Geo: GeoConfig{
			GeocoderURL:      getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:        getEnv("GEOCODER_USER_AGENT", "order-desk/1.0"),
			PositionProvider: getEnv("POSITION_PROVIDER", PositionIPAPI),
			IPAPIURL:         getEnv("IPAPI_URL", "http://ip-api.com/json/?fields=status,message,lat,lon"),
			Default:          domain.Coordinates{Lat: lat, Lng: lng},
		},
		Store: StoreConfig{
			Kind:           getEnv("LOCATION_STORE", StoreSQLite),
			SQLitePath:     getEnv("SQLITE_PATH", "orderdesk.db"),
			RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
			RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "orderdesk:"),
			MySQLDSN:       getEnv("MYSQL_DSN", ""),
		},
		Server: ServerConfig{
			HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:     getEnv("GRPC_ADDR", ":50051"),
			SessionKey:   getEnv("SESSION_KEY", sessionKey),
			CSRFKey:      getEnv("CSRF_KEY", csrfKey),
			CookieSecure: secure,
		},
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "text"),
			Level:  level,
		},
		Workers: WorkerConfig{
			Count:     workers,
			QueueSize: queue,
		},
		Currency: unit,
	}, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if err := absoluteURL("ORDER_API_URL", c.OrderAPI.URL); err != nil {
		errs = append(errs, err)
	}
	if err := absoluteURL("GEOCODER_URL", c.Geo.GeocoderURL); err != nil {
		errs = append(errs, err)
	}
	if c.OrderAPI.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.Geo.UserAgent == "" {
		errs = append(errs, errors.New("GEOCODER_USER_AGENT must not be empty"))
	}
	if err := c.Geo.Default.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_LAT/DEFAULT_LNG: %w", err))
	}

	switch c.Geo.PositionProvider {
	case PositionStatic, PositionDenied:
	case PositionIPAPI:
		if err := absoluteURL("IPAPI_URL", c.Geo.IPAPIURL); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown POSITION_PROVIDER %q", c.Geo.PositionProvider))
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	case StoreMySQL:
		if c.Store.MySQLDSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required for the mysql store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LOCATION_STORE %q", c.Store.Kind))
	}

	if len(c.Server.SessionKey) < keyLength {
		errs = append(errs, fmt.Errorf("SESSION_KEY must be at least %d bytes", keyLength))
	}
	if len(c.Server.CSRFKey) != keyLength {
		errs = append(errs, fmt.Errorf("CSRF_KEY must be exactly %d bytes", keyLength))
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}
	if c.Workers.Count < 1 {
		errs = append(errs, errors.New("WORKER_COUNT must be at least 1"))
	}
	if c.Workers.QueueSize < 0 {
		errs = append(errs, errors.New("QUEUE_SIZE must not be negative"))
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{OrderAPI: %s, Geocoder: %s, Position: %s, Store: %s, HTTP: %s, gRPC: %s, Workers: %d, Currency: %s, Secrets: *** (masked) ***}",
		c.OrderAPI.URL, c.Geo.GeocoderURL, c.Geo.PositionProvider, c.Store.Kind,
		c.Server.HTTPAddr, c.Server.GRPCAddr, c.Workers.Count, c.Currency)
}

func absoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	if value, exists := os.LookupEnv(key); exists {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %w", key, err)
		}
		return f, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	}
	return defaultVal, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}
