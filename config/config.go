// Package config loads the service settings from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-inventory"
)

// Config holds every setting of the inventory service.
type Config struct {
	Env    string `env:"APP_ENV,default=local"`
	Listen string `env:"LISTEN_ADDR,default=:8080"`
	Debug  bool   `env:"DEBUG,default=false"`

	DatabaseURL string `env:"DATABASE_URL,default=file:inventory.db?cache=shared"`

	Auth    Auth
	Advisor Advisor
	Limits  Limits

	SuperAdminEmail string        `env:"SUPER_ADMIN_EMAIL"`
	PhoneRegion     string        `env:"PHONE_REGION,default=US"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT,default=15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Auth configures session tokens and the hosted identity provider.
type Auth struct {
	SigningKey            string `env:"AUTH_SIGNING_KEY"`
	ContextKey            string `env:"AUTH_CONTEXT_KEY,default=inventory_session"`
	TokenExpiration       int    `env:"AUTH_TOKEN_EXPIRATION_HOURS,default=24"`
	ExtendedTokenDuration int    `env:"AUTH_EXTENDED_TOKEN_HOURS,default=720"`
	TokenLookup           string `env:"AUTH_TOKEN_LOOKUP"`
	AuthScheme            string `env:"AUTH_SCHEME,default=Bearer"`
	Issuer                string `env:"AUTH_ISSUER,default=go-inventory"`
	Audience              string `env:"AUTH_AUDIENCE,default=inventory"`
	SecureCookies         bool   `env:"AUTH_SECURE_COOKIES,default=true"`

	HostedJWKSURL  string `env:"AUTH_HOSTED_JWKS_URL"`
	HostedIssuer   string `env:"AUTH_HOSTED_ISSUER"`
	HostedAudience string `env:"AUTH_HOSTED_AUDIENCE"`
}

// Advisor configures the Gemini text generation.
type Advisor struct {
	APIKey           string        `env:"GEMINI_API_KEY"`
	DescriptionModel string        `env:"GEMINI_DESCRIPTION_MODEL"`
	AnalysisModel    string        `env:"GEMINI_ANALYSIS_MODEL"`
	CacheSize        int           `env:"ADVISOR_CACHE_SIZE,default=256"`
	Timeout          time.Duration `env:"ADVISOR_TIMEOUT,default=30s"`
}

// Limits configures the per key rate limits, in events per minute.
type Limits struct {
	LoginPerMinute   float64 `env:"LOGIN_RATE_PER_MINUTE,default=10"`
	AdvisorPerMinute float64 `env:"ADVISOR_RATE_PER_MINUTE,default=6"`
	Burst            int     `env:"RATE_BURST,default=3"`
}

var _ inventory.Config = (*Config)(nil)

// ErrMissingSigningKey is returned outside local environments when no
// signing key is configured.
var ErrMissingSigningKey = errors.New("AUTH_SIGNING_KEY is required")

// devSigningKey signs tokens in local environments without a configured key.
const devSigningKey = "inventory-local-development-signing-key"

// Load reads the optional dotenv files and decodes the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills derived defaults and checks required settings.
func (c *Config) Validate() error {
	c.SuperAdminEmail = inventory.NormalizeEmail(c.SuperAdminEmail)
	c.PhoneRegion = strings.ToUpper(strings.TrimSpace(c.PhoneRegion))

	if c.Auth.TokenLookup == "" {
		c.Auth.TokenLookup = "header:Authorization,cookie:" + c.Auth.ContextKey
	}

	if c.Auth.SigningKey == "" {
		if !c.IsLocal() {
			return ErrMissingSigningKey
		}
		c.Auth.SigningKey = devSigningKey
	}
	return nil
}

// IsLocal reports whether the service runs in a development environment.
func (c *Config) IsLocal() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "local", "dev", "development", "test":
		return true
	}
	return false
}

func (c *Config) GetSigningKey() string {
	return c.Auth.SigningKey
}

func (c *Config) GetContextKey() string {
	return c.Auth.ContextKey
}

func (c *Config) GetTokenExpiration() int {
	return c.Auth.TokenExpiration
}

func (c *Config) GetExtendedTokenDuration() int {
	return c.Auth.ExtendedTokenDuration
}

func (c *Config) GetTokenLookup() string {
	return c.Auth.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetAudience() []string {
	return splitList(c.Auth.Audience)
}

// HostedAudience returns the audiences accepted from the hosted provider.
func (c *Config) HostedAudience() []string {
	return splitList(c.Auth.HostedAudience)
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
