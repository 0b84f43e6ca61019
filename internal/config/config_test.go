package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"garden-app/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("FORM_VARIANT", "")
	t.Setenv("REDIRECT_DELAY", "")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	require.Equal(t, "username", cfg.Form.Variant)
	require.Equal(t, 2*time.Second, cfg.Form.RedirectDelay)
	require.Equal(t, config.StorageMemory, cfg.Storage.Driver)
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.example.com/")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "http://api.example.com", cfg.API.BaseURL)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"variant":  {"FORM_VARIANT": "email", "STORAGE_DRIVER": "memory"},
		"driver":   {"STORAGE_DRIVER": "sqlite"},
		"base url": {"API_BASE_URL": "localhost", "STORAGE_DRIVER": "memory"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestDatabaseConfig_URL(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", DBName: "garden", SSLMode: "disable"}
	require.Equal(t, "postgres://u:p%40ss@db:5432/garden?sslmode=disable", d.URL())
}
