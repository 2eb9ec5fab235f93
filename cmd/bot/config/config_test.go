package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot_config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBotConfig(t *testing.T) {
	t.Run("значения по умолчанию", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")
		cfg, err := LoadBotConfig(writeConfig(t, `
bot:
  token: "123:abc"
  backend_url: "http://localhost:8080"
`))
		require.NoError(t, err)

		assert.Equal(t, "123:abc", cfg.Bot.Token)
		assert.Equal(t, DefaultExcelThreshold, cfg.Bot.ExcelThreshold)
		assert.Equal(t, 2*time.Second, cfg.Bot.PollingInterval())
		assert.Equal(t, 30*time.Second, cfg.Bot.HTTPTimeout())
		assert.Equal(t, int64(10<<20), cfg.Bot.MaxFileSizeBytes())
		assert.Equal(t, DefaultAuthorColumnWidth, cfg.Bot.Render.Author)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, 30*time.Second, cfg.Bot.HealthCheckInterval())
		assert.Equal(t, []string{"http://localhost:8080"}, cfg.Bot.Backends())
		assert.NoError(t, cfg.Bot.Validate())
	})

	t.Run("явные значения и токен из окружения", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "999:env")
		cfg, err := LoadBotConfig(writeConfig(t, `
bot:
  token: "YOUR_TELEGRAM_BOT_TOKEN"
  backend_url: "http://backend:8080"
  backend_urls:
    - "http://backend-1:8080"
    - "http://backend-2:8080"
  polling_interval_seconds: 5
  excel_threshold: 3
  render:
    author: 30
logging:
  level: debug
  format: text
`))
		require.NoError(t, err)

		assert.Equal(t, "999:env", cfg.Bot.Token)
		assert.Equal(t, 5*time.Second, cfg.Bot.PollingInterval())
		assert.Equal(t, 3, cfg.Bot.ExcelThreshold)
		assert.Equal(t, 30, cfg.Bot.Render.Author)
		assert.Equal(t, "text", cfg.Logging.Format)
		assert.Equal(t, []string{"http://backend-1:8080", "http://backend-2:8080"}, cfg.Bot.Backends())
	})

	t.Run("файл не найден", func(t *testing.T) {
		_, err := LoadBotConfig(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})
}

func TestBotConfig_Validate(t *testing.T) {
	valid := func() BotConfig {
		c := Config{Bot: BotConfig{Token: "123:abc", BackendURL: "http://localhost"}}
		c.applyDefaults()
		return c.Bot
	}

	testCases := []struct {
		name    string
		mutator func(*BotConfig)
		wantErr bool
	}{
		{"valid", func(c *BotConfig) {}, false},
		{"placeholder token", func(c *BotConfig) { c.Token = "YOUR_TELEGRAM_BOT_TOKEN" }, true},
		{"empty backend", func(c *BotConfig) { c.BackendURL = "" }, true},
		{"backend list only", func(c *BotConfig) { c.BackendURL = ""; c.BackendURLs = []string{"http://a", "http://b"} }, false},
		{"empty value in backend list", func(c *BotConfig) { c.BackendURLs = []string{"http://a", ""} }, true},
		{"zero polling", func(c *BotConfig) { c.PollingIntervalSeconds = 0 }, true},
		{"negative threshold", func(c *BotConfig) { c.ExcelThreshold = -1 }, true},
		{"zero file size", func(c *BotConfig) { c.MaxFileSizeMB = 0 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutator(&cfg)
			if tc.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
