package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("AUTH_SIGNING_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "inventory_session", cfg.GetContextKey())
	assert.Equal(t, "header:Authorization,cookie:inventory_session", cfg.GetTokenLookup())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, 24, cfg.GetTokenExpiration())
	assert.Equal(t, 720, cfg.GetExtendedTokenDuration())
	assert.Equal(t, []string{"inventory"}, cfg.GetAudience())
	assert.Equal(t, devSigningKey, cfg.GetSigningKey())
	assert.Equal(t, "US", cfg.PhoneRegion)
	assert.Equal(t, 30*time.Second, cfg.Advisor.Timeout)
	assert.Equal(t, 3, cfg.Limits.Burst)
}

func TestLoadFromDotEnv(t *testing.T) {
	t.Setenv("APP_ENV", "local")

	file := filepath.Join(t.TempDir(), "test.env")
	content := "SUPER_ADMIN_EMAIL= Owner@Example.com \n" +
		"AUTH_AUDIENCE=inventory, mobile\n" +
		"LOGIN_RATE_PER_MINUTE=2.5\n" +
		"PHONE_REGION=cn\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("SUPER_ADMIN_EMAIL")
		os.Unsetenv("AUTH_AUDIENCE")
		os.Unsetenv("LOGIN_RATE_PER_MINUTE")
		os.Unsetenv("PHONE_REGION")
	})

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "owner@example.com", cfg.SuperAdminEmail)
	assert.Equal(t, []string{"inventory", "mobile"}, cfg.GetAudience())
	assert.Equal(t, 2.5, cfg.Limits.LoginPerMinute)
	assert.Equal(t, "CN", cfg.PhoneRegion)
}

func TestLoadRequiresSigningKeyOutsideLocal(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_SIGNING_KEY", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestExplicitTokenLookupIsKept(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("AUTH_TOKEN_LOOKUP", "header:Authorization")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
}

func TestHostedAudience(t *testing.T) {
	cfg := &Config{Auth: Auth{HostedAudience: "authenticated,"}}
	assert.Equal(t, []string{"authenticated"}, cfg.HostedAudience())
	assert.Empty(t, (&Config{}).HostedAudience())
}
