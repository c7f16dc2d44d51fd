package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Location dataset sources.
const (
	LocationSourceEmbedded = "embedded"
	LocationSourceFile     = "file"
	LocationSourcePostgres = "postgres"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	APIBaseURL           string        `mapstructure:"API_BASE_URL"`
	BackendTimeout       time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit            string        `mapstructure:"BODY_LIMIT"`
	SessionCookieName    string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionMaxAge        time.Duration `mapstructure:"SESSION_MAX_AGE"`
	SessionRefreshWindow time.Duration `mapstructure:"SESSION_REFRESH_WINDOW"`
	SessionStrictLogout  bool          `mapstructure:"SESSION_STRICT_LOGOUT"`
	RefreshRevalidate    time.Duration `mapstructure:"REFRESH_REVALIDATE"`
	LocationSource       string        `mapstructure:"LOCATION_SOURCE"`
	LocationDataset      string        `mapstructure:"LOCATION_DATASET"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	NotifyFrom           string        `mapstructure:"NOTIFY_FROM"`
}

var keys = []string{
	"PORT",
	"ENV",
	"API_BASE_URL",
	"BACKEND_TIMEOUT",
	"REQUEST_TIMEOUT",
	"CORS_ORIGINS",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"BODY_LIMIT",
	"SESSION_COOKIE_NAME",
	"SESSION_MAX_AGE",
	"SESSION_REFRESH_WINDOW",
	"SESSION_STRICT_LOGOUT",
	"REFRESH_REVALIDATE",
	"LOCATION_SOURCE",
	"LOCATION_DATASET",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"NOTIFY_FROM",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BODY_LIMIT", "64K")
	v.SetDefault("SESSION_COOKIE_NAME", "accessToken")
	v.SetDefault("SESSION_MAX_AGE", "720h")
	v.SetDefault("SESSION_REFRESH_WINDOW", "24h")
	v.SetDefault("SESSION_STRICT_LOGOUT", false)
	v.SetDefault("REFRESH_REVALIDATE", "60s")
	v.SetDefault("LOCATION_SOURCE", LocationSourceEmbedded)
	v.SetDefault("DB_MAX_CONNS", 5)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("NOTIFY_FROM", "no-reply@rokto.org")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); session cookies are not marked Secure.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks cross-field rules that viper cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set, got %d", c.RateLimitBurst)
	}
	if c.RefreshRevalidate < 0 {
		return fmt.Errorf("REFRESH_REVALIDATE must not be negative")
	}

	switch c.LocationSource {
	case LocationSourceEmbedded:
	case LocationSourceFile:
		if c.LocationDataset == "" {
			return fmt.Errorf("LOCATION_DATASET is required when LOCATION_SOURCE is %q", LocationSourceFile)
		}
	case LocationSourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when LOCATION_SOURCE is %q", LocationSourcePostgres)
		}
	default:
		return fmt.Errorf("LOCATION_SOURCE must be %q, %q, or %q, got %q",
			LocationSourceEmbedded, LocationSourceFile, LocationSourcePostgres, c.LocationSource)
	}

	return nil
}
