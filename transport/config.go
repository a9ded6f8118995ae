package transport

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// Environments a project can be addressed in.
const (
	EnvironmentDevelopment = "Development"
	EnvironmentProduction  = "Production"
)

// DefaultBaseURL is the public Catalyst API host.
const DefaultBaseURL = "https://api.catalyst.zoho.com"

// Config holds the configuration for the HTTP transport.
//
// Configuration can be built using the fluent builder pattern:
//
//	cfg := transport.DefaultConfig().
//	    WithProjectID("2136000000007001").
//	    WithEnvironment(transport.EnvironmentProduction).
//	    WithAdminToken(os.Getenv("CATALYST_ADMIN_TOKEN")).
//	    WithTimeout(10 * time.Second)
//
//	t, err := transport.New(cfg)
type Config struct {
	// BaseURL is the API host, without the service prefix.
	// Default: "https://api.catalyst.zoho.com"
	BaseURL string

	// ProjectID is the numeric id of the Catalyst project. Required.
	ProjectID string

	// Environment is sent in the Environment header.
	// Default: "Development"
	Environment string

	// Credentials holds the tokens attached per request role.
	Credentials Credentials

	// Timeout is the HTTP request timeout.
	// Default: 30s
	Timeout time.Duration

	// Pool configures connection pooling.
	Pool PoolConfig

	// Headers are extra headers added to every request.
	Headers map[string]string

	// UserAgent is sent in the User-Agent header.
	UserAgent string

	// Observer is notified around every request. Default: core.NoopObserver
	Observer core.Observer

	// Logger receives request logs. Default: telemetry.L()
	Logger logrus.FieldLogger
}

// Credentials are static OAuth tokens, one per request role. Token refresh
// is the caller's concern.
type Credentials struct {
	AdminToken string
	UserToken  string
}

// Token returns the token for role.
func (c Credentials) Token(role core.AuthRole) (string, error) {
	var token string
	switch role {
	case core.RoleAdmin, "":
		token = c.AdminToken
	case core.RoleUser:
		token = c.UserToken
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrMissingCredential, role)
	}
	if token == "" {
		return "", fmt.Errorf("%w: no token for role %q", ErrMissingCredential, role)
	}
	return token, nil
}

// PoolConfig holds HTTP connection pool settings.
type PoolConfig struct {
	// Default: 100
	MaxIdleConns int
	// Default: 10
	MaxConnsPerHost int
	// Default: 90s
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults. ProjectID and at
// least one token still have to be set.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Environment: EnvironmentDevelopment,
		Timeout:     30 * time.Second,
		Pool: PoolConfig{
			MaxIdleConns:    100,
			MaxConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
		},
		Headers:   make(map[string]string),
		UserAgent: "catalyst-go-sdk/" + Version,
		Observer:  core.NoopObserver{},
	}
}

// NewConfigFromEnv builds a Config from CATALYST_* environment variables
// on top of DefaultConfig:
//
//	CATALYST_PROJECT_ID    project id (required)
//	CATALYST_ENVIRONMENT   Development or Production
//	CATALYST_API_URL       API host
//	CATALYST_ADMIN_TOKEN   admin OAuth token
//	CATALYST_USER_TOKEN    user OAuth token
//	CATALYST_TIMEOUT       request timeout, e.g. "10s"
func NewConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = getEnv("CATALYST_API_URL", cfg.BaseURL)
	cfg.ProjectID = os.Getenv("CATALYST_PROJECT_ID")
	cfg.Environment = getEnv("CATALYST_ENVIRONMENT", cfg.Environment)
	cfg.Credentials = Credentials{
		AdminToken: os.Getenv("CATALYST_ADMIN_TOKEN"),
		UserToken:  os.Getenv("CATALYST_USER_TOKEN"),
	}

	if v := os.Getenv("CATALYST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CATALYST_TIMEOUT: %w", err)
		}
		cfg.Timeout = timeout
	}

	return cfg, cfg.Validate()
}

// WithBaseURL sets the API host.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithProjectID sets the project id.
func (c *Config) WithProjectID(id string) *Config {
	c.ProjectID = id
	return c
}

// WithEnvironment sets the Environment header value.
func (c *Config) WithEnvironment(env string) *Config {
	c.Environment = env
	return c
}

// WithAdminToken sets the token used for admin-scoped requests.
func (c *Config) WithAdminToken(token string) *Config {
	c.Credentials.AdminToken = token
	return c
}

// WithUserToken sets the token used for user-scoped requests.
func (c *Config) WithUserToken(token string) *Config {
	c.Credentials.UserToken = token
	return c
}

// WithTimeout sets the request timeout.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithHeader adds a header sent with every request.
//
// Example:
//
//	cfg := transport.DefaultConfig().
//	    WithHeader("X-Tenant-ID", "tenant-123")
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithObserver sets the request observer.
func (c *Config) WithObserver(observer core.Observer) *Config {
	c.Observer = observer
	return c
}

// WithLogger sets the request logger.
func (c *Config) WithLogger(logger logrus.FieldLogger) *Config {
	c.Logger = logger
	return c
}

// Validate checks required fields and fills in defaults for the rest.
// It is called by New.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL cannot be empty", ErrInvalidConfig)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.ProjectID == "" {
		return fmt.Errorf("%w: project id cannot be empty", ErrInvalidConfig)
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Pool.MaxIdleConns <= 0 {
		c.Pool.MaxIdleConns = 100
	}
	if c.Pool.MaxConnsPerHost <= 0 {
		c.Pool.MaxConnsPerHost = 10
	}
	if c.Pool.IdleConnTimeout <= 0 {
		c.Pool.IdleConnTimeout = 90 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "catalyst-go-sdk/" + Version
	}
	if c.Observer == nil {
		c.Observer = core.NoopObserver{}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
