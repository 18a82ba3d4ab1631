package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/provider"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JSONAUTH_POSTGRES_URL", "postgres://localhost/forum")
	t.Setenv("JSONAUTH_ASSERTION_URL", "https://auth.example.com/auth/external/")
	t.Setenv("JSONAUTH_SHARED_COOKIE_NAME", "appsession")
	t.Setenv("JSONAUTH_PROVIDER_COOKIE_NAME", "appsession")
	t.Setenv("JSONAUTH_LOGOUT_URL", "https://auth.example.com/logout")
	t.Setenv("JSONAUTH_LOGIN_REDIRECT_URL", "https://auth.example.com/login")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "phpbb_", cfg.Database.TablePrefix)
	assert.Equal(t, "memory", cfg.Sessions.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "@every 15m", cfg.Sessions.RevalidateSchedule)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.OTel.Enabled)
	assert.False(t, cfg.Provider.InsecureSkipTLSVerify)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JSONAUTH_PORT", "9999")
	t.Setenv("JSONAUTH_TABLE_PREFIX", "forum_")
	t.Setenv("JSONAUTH_POSTGRES_MAX_CONNS", "42")
	t.Setenv("JSONAUTH_SESSION_TTL", "1h")
	t.Setenv("JSONAUTH_LOG_LEVEL", "debug")
	t.Setenv("JSONAUTH_FETCH_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "forum_", cfg.Database.TablePrefix)
	assert.Equal(t, 42, cfg.Database.MaxConns)
	assert.Equal(t, time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Provider.FetchTimeout)
}

func TestLoadConfig_MissingPostgresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JSONAUTH_POSTGRES_URL", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "postgres URL is required")
}

func TestLoadConfig_IncompleteProviderSettings(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JSONAUTH_ASSERTION_URL", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "provider settings incomplete")
}

func TestLoadConfig_RedisBackendRequiresURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JSONAUTH_SESSIONS_BACKEND", "redis")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "redis URL is required")

	t.Setenv("JSONAUTH_REDIS_URL", "localhost:6379")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Sessions.Backend)
}

func TestLoadConfig_InvalidSessionBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JSONAUTH_SESSIONS_BACKEND", "cassandra")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "invalid session backend")
}

func TestLoadConfig_SettingsFileTakesPrecedence(t *testing.T) {
	setRequiredEnv(t)
	path := writeSettings(t, `{
		"assertion_url": "https://sso.internal/check",
		"shared_cookie_name": "portal",
		"provider_cookie_name": "portal",
		"logout_url": "https://sso.internal/logout",
		"login_redirect_url": "https://sso.internal/login"
	}`)
	t.Setenv("JSONAUTH_PROVIDER_SETTINGS", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://sso.internal/check", cfg.Provider.AssertionURL)
	assert.Equal(t, "portal", cfg.Provider.SharedCookieName)
}

func writeSettings(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jsonauth.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadProviderSettings(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeSettings(t, `{
			"assertion_url": "https://auth.example.com/auth/external/",
			"shared_cookie_name": "appsession",
			"provider_cookie_name": "appsession",
			"logout_url": "https://auth.example.com/logout",
			"login_redirect_url": "https://auth.example.com/login",
			"fetch_timeout": 5000000000
		}`)

		cfg, err := LoadProviderSettings(path)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProviderSettings(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorContains(t, err, "failed to read settings file")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := LoadProviderSettings(writeSettings(t, `{`))
		assert.ErrorContains(t, err, "failed to parse settings file")
	})

	t.Run("incomplete settings", func(t *testing.T) {
		_, err := LoadProviderSettings(writeSettings(t, `{"assertion_url": "https://x"}`))
		assert.ErrorIs(t, err, provider.ErrConfigurationMissing)
	})
}

func TestWatchProviderSettings(t *testing.T) {
	path := writeSettings(t, `{
		"assertion_url": "https://auth.example.com/auth/external/",
		"shared_cookie_name": "appsession",
		"provider_cookie_name": "appsession",
		"logout_url": "https://auth.example.com/logout",
		"login_redirect_url": "https://auth.example.com/login"
	}`)

	applied := make(chan provider.Config, 4)
	sw, err := WatchProviderSettings(path, observability.NewNopLogger(), func(cfg provider.Config) error {
		applied <- cfg
		return nil
	})
	require.NoError(t, err)
	defer sw.Close()

	// An invalid revision must be skipped without tearing down the watcher.
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	require.NoError(t, os.WriteFile(path, []byte(`{
		"assertion_url": "https://sso.internal/check",
		"shared_cookie_name": "portal",
		"provider_cookie_name": "portal",
		"logout_url": "https://sso.internal/logout",
		"login_redirect_url": "https://sso.internal/login"
	}`), 0o644))

	select {
	case cfg := <-applied:
		assert.Equal(t, "https://sso.internal/check", cfg.AssertionURL)
	case <-time.After(5 * time.Second):
		t.Fatal("settings change was not applied")
	}
}
