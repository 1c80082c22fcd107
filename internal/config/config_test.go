package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"DB_DSN": "postgres://localhost/clinic"}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, int32(2), cfg.DBMinConns)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, 7, cfg.DigestHour)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestFromEnv_Full(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DSN":           "postgres://localhost/clinic",
		"ENV":              "production",
		"MIGRATIONS_DIR":   "/srv/migrations",
		"TELEGRAM_TOKEN":   "123:abc",
		"TELEGRAM_CHAT_ID": "-100200300",
		"CLINIC_TIMEZONE":  "America/Argentina/Buenos_Aires",
		"DB_MAX_CONNS":     "20",
		"DB_MIN_CONNS":     "5",
		"DIGEST_HOUR":      "6",
	}))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "/srv/migrations", cfg.MigrationsDir)
	assert.Equal(t, int64(-100200300), cfg.TelegramChatID)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Location.String())
	assert.Equal(t, int32(20), cfg.DBMaxConns)
	assert.Equal(t, int32(5), cfg.DBMinConns)
	assert.Equal(t, 6, cfg.DigestHour)
	assert.True(t, cfg.NotificationsEnabled())
}

func TestFromEnv_Errors(t *testing.T) {
	base := map[string]string{"DB_DSN": "postgres://localhost/clinic"}

	tests := map[string]map[string]string{
		"missing dsn":  {},
		"bad chat id":  {"TELEGRAM_CHAT_ID": "chat"},
		"bad timezone": {"CLINIC_TIMEZONE": "Mars/Olympus"},
		"bad hour":     {"DIGEST_HOUR": "25"},
		"bad conns":    {"DB_MAX_CONNS": "0"},
		"min over max": {"DB_MAX_CONNS": "2", "DB_MIN_CONNS": "4"},
	}

	for name, extra := range tests {
		t.Run(name, func(t *testing.T) {
			vars := map[string]string{}
			if name != "missing dsn" {
				for k, v := range base {
					vars[k] = v
				}
			}
			for k, v := range extra {
				vars[k] = v
			}

			_, err := FromEnv(env(vars))
			assert.Error(t, err)
		})
	}
}
