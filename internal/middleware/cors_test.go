package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley/internal/config"
)

func TestAllowOrigin(t *testing.T) {
	defer func() { config.GlobalConfig = nil }()

	// No config loaded: permissive default.
	config.GlobalConfig = nil
	assert.Equal(t, "*", allowOrigin("https://app.example.com"))

	// Empty allow-list: permissive default.
	config.GlobalConfig = &config.Config{}
	assert.Equal(t, "*", allowOrigin("https://app.example.com"))

	config.GlobalConfig = &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"https://app.example.com", "https://admin.example.com"},
		},
	}
	assert.Equal(t, "https://app.example.com", allowOrigin("https://app.example.com"))
	assert.Equal(t, "https://admin.example.com", allowOrigin("https://admin.example.com"))
	assert.Equal(t, "", allowOrigin("https://evil.example.com"))

	config.GlobalConfig = &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
	}
	assert.Equal(t, "*", allowOrigin("https://anything.example.com"))
}
