package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "./data/socialspace.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL())
	assert.Equal(t, int64(10485760), cfg.Upload.MaxSize)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.Origins)
	assert.Equal(t, 256, cfg.WS.SendBuffer)
	assert.False(t, cfg.Server.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("WS_SEND_BUFFER", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins)
	assert.True(t, cfg.Server.CookieSecure)
	assert.Equal(t, 16, cfg.WS.SendBuffer)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad port", map[string]string{"JWT_SECRET": "x", "SERVER_PORT": "abc"}},
		{"port out of range", map[string]string{"JWT_SECRET": "x", "SERVER_PORT": "70000"}},
		{"zero expiry", map[string]string{"JWT_SECRET": "x", "JWT_EXPIRY_HOURS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
