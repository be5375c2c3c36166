// Package config loads the server configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
	CORS     CORSConfig
	WS       WSConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port         int    `env:"SERVER_PORT" envDefault:"8000"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `env:"DATABASE_PATH" envDefault:"./data/socialspace.db"`
}

// JWTConfig holds token settings. Secret must be kept private.
type JWTConfig struct {
	Secret      string `env:"JWT_SECRET,required,notEmpty"`
	ExpiryHours int    `env:"JWT_EXPIRY_HOURS" envDefault:"24"`
}

// UploadConfig holds blob storage settings.
type UploadConfig struct {
	Dir     string `env:"UPLOAD_DIR" envDefault:"./data/uploads"`
	MaxSize int64  `env:"UPLOAD_MAX_SIZE" envDefault:"10485760"` // 10MB
}

// CORSConfig lists the browser origins allowed to call the API and open sockets.
type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// WSConfig holds socket settings.
type WSConfig struct {
	SendBuffer int `env:"WS_SEND_BUFFER" envDefault:"256"`
}

// Load reads .env (if any) and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("invalid JWT_EXPIRY_HOURS: %d", c.JWT.ExpiryHours)
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_SIZE: %d", c.Upload.MaxSize)
	}
	if c.WS.SendBuffer <= 0 {
		return fmt.Errorf("invalid WS_SEND_BUFFER: %d", c.WS.SendBuffer)
	}
	return nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8000".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TokenTTL returns the JWT lifetime.
func (c *JWTConfig) TokenTTL() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}
