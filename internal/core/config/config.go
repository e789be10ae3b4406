package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Client configures the CLI front end.
type Client struct {
	APIURL       string        `env:"TOOLROOM_API_URL" envDefault:"http://localhost:8000/api"`
	Timeout      time.Duration `env:"TOOLROOM_TIMEOUT" envDefault:"15s"`
	SessionFile  string        `env:"TOOLROOM_SESSION_FILE"`
	PollInterval time.Duration `env:"TOOLROOM_POLL_INTERVAL" envDefault:"30s"`
	LogLevel     string        `env:"TOOLROOM_LOG_LEVEL" envDefault:"info"`
	// TimeZone is used for calendar date filters.
	TimeZone string `env:"TOOLROOM_TIMEZONE" envDefault:"Local"`
}

// Server configures the development backend.
type Server struct {
	Listen          string        `env:"TOOLROOM_LISTEN" envDefault:":8000"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	JWTSecret       string        `env:"JWT_SECRET"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`
	MigrationsDir   string        `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"5m"`
	DefaultPassword string        `env:"DEFAULT_PASSWORD" envDefault:"changeme"`
	LogLevel        string        `env:"TOOLROOM_LOG_LEVEL" envDefault:"info"`

	BootstrapOfficerUsername string `env:"BOOTSTRAP_OFFICER_USERNAME"`
	BootstrapOfficerPassword string `env:"BOOTSTRAP_OFFICER_PASSWORD"`
}

// LoadDotEnv reads .env files without overriding variables already set.
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadClient() (Client, error) {
	var cfg Client
	if err := ParseEnv(&cfg); err != nil {
		return Client{}, err
	}
	return cfg, cfg.Validate()
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	return cfg, cfg.Validate()
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Client) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid TOOLROOM_API_URL %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("TOOLROOM_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("TOOLROOM_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid TOOLROOM_LOG_LEVEL: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone.
func (c Client) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TOOLROOM_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (s Server) Validate() error {
	if s.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	if s.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive, got %s", s.SessionDuration)
	}
	if s.LoginRateLimit <= 0 || s.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	if (s.BootstrapOfficerUsername == "") != (s.BootstrapOfficerPassword == "") {
		return errors.New("BOOTSTRAP_OFFICER_USERNAME and BOOTSTRAP_OFFICER_PASSWORD must be set together")
	}
	if _, err := zapcore.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid TOOLROOM_LOG_LEVEL: %w", err)
	}
	return nil
}

// UsesPostgres reports whether a database is configured. Without one the
// backend keeps everything in memory.
func (s Server) UsesPostgres() bool {
	return s.DatabaseURL != ""
}
