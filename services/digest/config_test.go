package digest

import (
	"os"
	"path/filepath"
	"testing"

	"mimiecho/lib/scrapers/navercafe"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("CAFE_URL_NAME", "testcafe")
	t.Setenv("CAFE_BOARD_ID", "5")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("NAVER_COOKIES", "NID_AUT=a;NID_SES=b")
}

func missingConfigPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "mimiecho.json5")
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig(missingConfigPath(t))
	require.NoError(t, err)

	require.Equal(t, "testcafe", cfg.CafeName)
	require.Equal(t, "5", cfg.BoardID)
	require.Equal(t, DefaultMaxBatch, cfg.MaxBatch)
	require.Equal(t, DefaultMaxContentChars, cfg.MaxContentChars)
	require.Equal(t, DefaultModel, cfg.Model)
	require.Equal(t, DefaultStateFile, cfg.StateFile)
	require.False(t, cfg.NotifyNoPosts)
}

func TestLoadConfigFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "mimiecho.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// tunables only, secrets stay in the environment
		max_batch: 5,
		notify_no_posts: true,
		model: "gemini-2.5-pro",
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxBatch)
	require.True(t, cfg.NotifyNoPosts)
	require.Equal(t, "gemini-2.5-pro", cfg.Model)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_BATCH", "3")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash-lite")

	path := filepath.Join(t.TempDir(), "mimiecho.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{max_batch: 10, model: "gemini-2.5-pro"}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MaxBatch)
	require.Equal(t, "gemini-2.5-flash-lite", cfg.Model)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := LoadConfig(missingConfigPath(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "DISCORD_WEBHOOK_URL")
	require.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadConfigRequiresSomeCredential(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NAVER_COOKIES", "")
	t.Setenv("NAVER_ID", "")
	t.Setenv("NAVER_PW", "")

	_, err := LoadConfig(missingConfigPath(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "NAVER_COOKIES")
}

func TestLoadConfigGoogleAPIKeyFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")

	cfg, err := LoadConfig(missingConfigPath(t))
	require.NoError(t, err)
	require.Equal(t, "fallback-key", cfg.GeminiAPIKey)
}

func TestCredentialPrefersCookies(t *testing.T) {
	cfg := Config{
		NaverCookies: "NID_AUT=a",
		NaverID:      "user",
		NaverPW:      "pass",
	}
	require.Equal(t, navercafe.CookieCredential{Raw: "NID_AUT=a"}, cfg.Credential())

	cfg.NaverCookies = ""
	require.Equal(t, navercafe.PasswordCredential{Username: "user", Password: "pass"}, cfg.Credential())
}
