package api

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
)

// EnvAPISecret is the environment variable holding the API JWT signing secret.
const EnvAPISecret = "EMUDECKY_API_SECRET"

// APIConfig configures the REST API HTTP server.
type APIConfig struct {
	// Enabled controls whether the API server runs. Default: true
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`

	// Host is the address the API binds to. When empty the API binds to
	// loopback unless a JWT secret is configured, in which case it listens
	// on all interfaces.
	Host string `mapstructure:"host" yaml:"host,omitempty"`

	// Port is the HTTP port for the API endpoints.
	// Default: 8765
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 35s, above the 30s request timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// JWT configures bearer authentication. Authentication is off when no
	// secret is configured.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig configures JWT token generation and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key, at least 32 characters.
	// EMUDECKY_API_SECRET takes precedence over the config file.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// TokenDuration is the lifetime of minted tokens.
	// Default: 720h
	TokenDuration time.Duration `mapstructure:"token_duration" yaml:"token_duration"`
}

// ApplyDefaults fills in zero values.
func (c *APIConfig) ApplyDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.Port == 0 {
		c.Port = 8765
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 35 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.JWT.TokenDuration == 0 {
		c.JWT.TokenDuration = 30 * 24 * time.Hour
	}
}

// IsEnabled reports whether the API server should run.
func (c *APIConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// GetJWTSecret returns the JWT secret, preferring the environment variable.
// Returns empty string if neither is set.
func (c *APIConfig) GetJWTSecret() string {
	envSecret := os.Getenv(EnvAPISecret)
	if envSecret != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvAPISecret)
		}
		return envSecret
	}
	return c.JWT.Secret
}

// LoopbackHost is the bind address used while authentication is off.
const LoopbackHost = "127.0.0.1"

// ListenAddr returns the host:port the server binds to.
func (c *APIConfig) ListenAddr() string {
	host := c.Host
	if host == "" && !c.HasJWTSecret() {
		host = LoopbackHost
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// HasJWTSecret returns whether a JWT secret is configured.
func (c *APIConfig) HasJWTSecret() bool {
	return c.GetJWTSecret() != ""
}
