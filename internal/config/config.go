// Package config loads embedbot configuration from ~/.embedbot/config.json
// (HuJSON, so comments and trailing commas are fine) with environment
// overrides. A missing config file is not an error; the environment alone
// can carry everything.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
)

// Config holds everything the embedbot CLI needs.
type Config struct {
	DiscordToken  string
	LogLevel      string
	LogFormat     string
	AuthorName    string
	AuthorIconURL string
	EmbedColor    int
	Timezone      string
}

// jsonConfig is the intermediate struct for file unmarshalling.
type jsonConfig struct {
	DiscordToken  string `json:"discord_token"`
	LogLevel      string `json:"log_level"`
	LogFormat     string `json:"log_format"`
	AuthorName    string `json:"author_name"`
	AuthorIconURL string `json:"author_icon_url"`
	EmbedColor    *int   `json:"embed_color"`
	Timezone      string `json:"timezone"`
}

// Package-level variables to allow overriding in tests.
var (
	userHomeDir = os.UserHomeDir
	readFile    = os.ReadFile
)

// Load reads the config file, layers environment variables on top and
// validates that a Discord token is present.
func Load() (*Config, error) {
	// Pick up a local .env if one exists; real environment wins.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:   "info",
		LogFormat:  "text",
		AuthorName: "embedbot",
	}

	home, err := userHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	path := filepath.Join(home, ".embedbot", "config.json")

	data, err := readFile(path)
	switch {
	case os.IsNotExist(err):
		// Environment-only configuration.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		standardJSON, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		var jc jsonConfig
		if err := json.Unmarshal(standardJSON, &jc); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		applyFile(cfg, jc)
	}

	applyEnv(cfg)

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("discord token missing: set discord_token in %s or DISCORD_TOKEN in the environment", path)
	}
	return cfg, nil
}

func applyFile(cfg *Config, jc jsonConfig) {
	setIfNonEmpty(&cfg.DiscordToken, jc.DiscordToken)
	setIfNonEmpty(&cfg.LogLevel, jc.LogLevel)
	setIfNonEmpty(&cfg.LogFormat, jc.LogFormat)
	setIfNonEmpty(&cfg.AuthorName, jc.AuthorName)
	setIfNonEmpty(&cfg.AuthorIconURL, jc.AuthorIconURL)
	setIfNonEmpty(&cfg.Timezone, jc.Timezone)
	if jc.EmbedColor != nil {
		cfg.EmbedColor = *jc.EmbedColor
	}
}

func applyEnv(cfg *Config) {
	setIfNonEmpty(&cfg.DiscordToken, os.Getenv("DISCORD_TOKEN"))
	setIfNonEmpty(&cfg.LogLevel, os.Getenv("EMBEDBOT_LOG_LEVEL"))
	setIfNonEmpty(&cfg.LogFormat, os.Getenv("EMBEDBOT_LOG_FORMAT"))
	setIfNonEmpty(&cfg.AuthorName, os.Getenv("EMBEDBOT_AUTHOR_NAME"))
	setIfNonEmpty(&cfg.Timezone, os.Getenv("EMBEDBOT_TIMEZONE"))
}

func setIfNonEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
