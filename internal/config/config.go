// Package config loads the bridge's startup configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// MinLookupSecretLength is the shortest accepted lookup secret in bytes.
const MinLookupSecretLength = 16

// Store kinds selected by the STORE_URL scheme.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds every setting the process needs. It is parsed once at
// startup and passed down explicitly.
type Config struct {
	GitHubClientID     string   `env:"GITHUB_CLIENT_ID,required,notEmpty"`
	GitHubClientSecret string   `env:"GITHUB_CLIENT_SECRET,required,notEmpty"`
	GitHubTokenURL     string   `env:"GITHUB_TOKEN_URL" envDefault:"https://github.com/login/oauth/access_token"`
	GitHubAuthorizeURL string   `env:"GITHUB_AUTHORIZE_URL" envDefault:"https://github.com/login/oauth/authorize"`
	GitHubScopes       []string `env:"GITHUB_SCOPES" envSeparator:","`
	RedirectURL        string   `env:"REDIRECT_URL,required,notEmpty"`

	StoreURL       string `env:"STORE_URL,required,notEmpty"`
	StoreKeyPrefix string `env:"STORE_KEY_PREFIX"`

	LookupSecret       string `env:"LOOKUP_SECRET,required,notEmpty"`
	LookupSecretHeader string `env:"LOOKUP_SECRET_HEADER" envDefault:"X-Bridge-Secret"`

	BindAddr        string `env:"BIND_ADDR,required,notEmpty"`
	TelegramBotName string `env:"TELEGRAM_BOT_NAME"`

	HandleTTL           time.Duration `env:"HANDLE_TTL" envDefault:"10m"`
	HandleSweepInterval time.Duration `env:"HANDLE_SWEEP_INTERVAL" envDefault:"1m"`
	UpstreamTimeout     time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads optional dotenv files (".env" when none are given) into the
// process environment and then parses it. Missing dotenv files are ignored;
// variables already set in the environment take precedence.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse(env.ToMap(os.Environ()))
}

// Parse builds a Config from the given variables and validates it.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that the env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.StoreKind(); err != nil {
		errs = append(errs, err)
	}
	if len(c.LookupSecret) < MinLookupSecretLength {
		errs = append(errs, fmt.Errorf("LOOKUP_SECRET must be at least %d bytes", MinLookupSecretLength))
	}
	if strings.TrimSpace(c.LookupSecretHeader) == "" {
		errs = append(errs, errors.New("LOOKUP_SECRET_HEADER must not be blank"))
	}
	if _, _, err := net.SplitHostPort(c.BindAddr); err != nil {
		errs = append(errs, fmt.Errorf("BIND_ADDR: %w", err))
	}
	for name, raw := range map[string]string{
		"REDIRECT_URL":         c.RedirectURL,
		"GITHUB_TOKEN_URL":     c.GitHubTokenURL,
		"GITHUB_AUTHORIZE_URL": c.GitHubAuthorizeURL,
	} {
		if err := checkHTTPURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.HandleTTL <= 0 {
		errs = append(errs, errors.New("HANDLE_TTL must be positive"))
	}
	if c.HandleSweepInterval <= 0 {
		errs = append(errs, errors.New("HANDLE_SWEEP_INTERVAL must be positive"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// StoreKind reports which durable store STORE_URL points at.
func (c *Config) StoreKind() (string, error) {
	u, err := url.Parse(c.StoreURL)
	if err != nil {
		return "", fmt.Errorf("STORE_URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss":
		return StoreRedis, nil
	case "postgres", "postgresql":
		return StorePostgres, nil
	default:
		return "", fmt.Errorf("STORE_URL: unsupported scheme %q", u.Scheme)
	}
}

// Scopes returns the configured provider scopes with blanks dropped.
func (c *Config) Scopes() []string {
	scopes := make([]string, 0, len(c.GitHubScopes))
	for _, s := range c.GitHubScopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}
