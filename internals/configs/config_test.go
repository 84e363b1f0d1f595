package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_USERNAMES", "@Alfiyyann, budi ,")
	t.Setenv("GROUP_ID", "-1001234567890")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"alfiyyann", "budi"}, cfg.AdminUsernames)
	assert.Equal(t, int64(-1001234567890), cfg.GroupID)
	assert.Equal(t, 3*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "@every 5m", cfg.OutboxDrainSchedule)
	assert.Equal(t, 10*time.Second, cfg.TelegramTimeout)
	assert.False(t, cfg.DB.Enabled())
	assert.False(t, cfg.SheetsEnabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	t.Run("group id", func(t *testing.T) {
		t.Setenv("GROUP_ID", "grup")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("TZ", "Asia/Atlantis")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("telegram timeout melebihi batas percobaan", func(t *testing.T) {
		t.Setenv("TELEGRAM_TIMEOUT", "15s")
		_, err := Load()
		assert.ErrorContains(t, err, "TELEGRAM_TIMEOUT")
	})
}

func TestIsAdminIgnoresAtAndCase(t *testing.T) {
	cfg := &Config{AdminUsernames: []string{"alfiyyann"}}
	assert.True(t, cfg.IsAdmin("@Alfiyyann"))
	assert.True(t, cfg.IsAdmin(" alfiyyann "))
	assert.False(t, cfg.IsAdmin("budi"))
	assert.False(t, cfg.IsAdmin("@"))
}

func TestSheetsEnabledNeedsCredentials(t *testing.T) {
	cfg := &Config{SheetsID: "sheet"}
	assert.False(t, cfg.SheetsEnabled())
	cfg.CredentialsFile = "/secret/sa.json"
	assert.True(t, cfg.SheetsEnabled())
}
