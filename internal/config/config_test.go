package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubFile points Load at an in-memory config file for the duration of a
// test.
func stubFile(t *testing.T, data []byte, err error) {
	t.Helper()
	origHome, origRead := userHomeDir, readFile
	userHomeDir = func() (string, error) { return "/home/test", nil }
	readFile = func(string) ([]byte, error) { return data, err }
	t.Cleanup(func() {
		userHomeDir = origHome
		readFile = origRead
	})
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_TOKEN",
		"EMBEDBOT_LOG_LEVEL",
		"EMBEDBOT_LOG_FORMAT",
		"EMBEDBOT_AUTHOR_NAME",
		"EMBEDBOT_TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	stubFile(t, []byte(`{
		// HuJSON allows comments and trailing commas.
		"discord_token": "file-token",
		"log_level": "debug",
		"author_name": "announcer",
		"embed_color": 7506394,
		"timezone": "Europe/London",
	}`), nil)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "file-token", cfg.DiscordToken)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "announcer", cfg.AuthorName)
	require.Equal(t, 7506394, cfg.EmbedColor)
	require.Equal(t, "Europe/London", cfg.Timezone)
	// Untouched fields keep their defaults.
	require.Equal(t, "text", cfg.LogFormat)
}

func TestLoadEnvironmentOnly(t *testing.T) {
	clearEnv(t)
	stubFile(t, nil, os.ErrNotExist)
	t.Setenv("DISCORD_TOKEN", "env-token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.DiscordToken)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "embedbot", cfg.AuthorName)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	stubFile(t, []byte(`{"discord_token": "file-token", "log_level": "debug"}`), nil)
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("EMBEDBOT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.DiscordToken)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMissingTokenFails(t *testing.T) {
	clearEnv(t)
	stubFile(t, nil, os.ErrNotExist)

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "discord token missing")
}

func TestLoadMalformedFileFails(t *testing.T) {
	clearEnv(t)
	stubFile(t, []byte(`{not json at all`), nil)

	_, err := Load()
	require.Error(t, err)
}

func TestLoadUnreadableFileFails(t *testing.T) {
	clearEnv(t)
	stubFile(t, nil, errors.New("permission denied"))

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config file")
}
