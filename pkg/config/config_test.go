package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	type cfg struct {
		Port     int           `env:"TEST_HTTP_PORT" envDefault:"8080"`
		LogLevel string        `env:"TEST_LOG_LEVEL" envDefault:"info"`
		Timeout  time.Duration `env:"TEST_TIMEOUT" envDefault:"15s"`
	}

	var c cfg
	require.NoError(t, Load(&c))

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 15*time.Second, c.Timeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TEST_HTTP_PORT", "9090")
	t.Setenv("TEST_LOG_LEVEL", "debug")

	type cfg struct {
		Port     int    `env:"TEST_HTTP_PORT" envDefault:"8080"`
		LogLevel string `env:"TEST_LOG_LEVEL" envDefault:"info"`
	}

	var c cfg
	require.NoError(t, Load(&c))

	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("TEST_HTTP_PORT", "not-a-port")

	type cfg struct {
		Port int `env:"TEST_HTTP_PORT"`
	}

	var c cfg
	err := Load(&c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
