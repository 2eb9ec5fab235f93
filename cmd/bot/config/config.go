package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// ColumnWidths определяет ширину колонок для текстового вывода.
type ColumnWidths struct {
	Rank     int `yaml:"rank"`
	Author   int `yaml:"author"`
	Messages int `yaml:"messages"`
	Status   int `yaml:"status"`
}

// BotConfig содержит конфигурацию для Telegram-бота
type BotConfig struct {
	Token                  string       `yaml:"token"`
	BackendURL             string       `yaml:"backend_url"`
	BackendURLs            []string     `yaml:"backend_urls"`
	PollingIntervalSeconds int          `yaml:"polling_interval_seconds"`
	TaskTimeoutSeconds     int          `yaml:"task_timeout_seconds"`
	ExcelThreshold         int          `yaml:"excel_threshold"`
	MaxFileSizeMB          int64        `yaml:"max_file_size_mb"`
	HTTPTimeoutSeconds     int          `yaml:"http_timeout_seconds"`
	HealthCheckSeconds     int          `yaml:"health_check_interval_seconds"`
	Render                 ColumnWidths `yaml:"render"`
}

// PollingInterval возвращает интервал опроса статуса задачи.
func (c BotConfig) PollingInterval() time.Duration {
	return time.Duration(c.PollingIntervalSeconds) * time.Second
}

// TaskTimeout возвращает максимальное время ожидания результата.
func (c BotConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}

// HTTPTimeout возвращает таймаут запросов к бэкенду.
func (c BotConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// HealthCheckInterval возвращает интервал проверки недоступных бэкендов.
func (c BotConfig) HealthCheckInterval() time.Duration {
	return time.Duration(c.HealthCheckSeconds) * time.Second
}

// Backends возвращает список адресов бэкендов: backend_urls, а если он пуст, backend_url.
func (c BotConfig) Backends() []string {
	if len(c.BackendURLs) > 0 {
		return c.BackendURLs
	}
	if c.BackendURL == "" {
		return nil
	}
	return []string{c.BackendURL}
}

// MaxFileSizeBytes возвращает максимальный размер принимаемого файла.
func (c BotConfig) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB << 20
}

// Logging содержит конфигурацию логирования бота
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config является оберткой для соответствия структуре YAML файла.
type Config struct {
	Bot     BotConfig `yaml:"bot"`
	Logging Logging   `yaml:"logging"`
}

// LoadBotConfig загружает конфигурацию бота из указанного файла.
// Токен можно переопределить переменной окружения BOT_TOKEN.
func LoadBotConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot config file %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot config: %w", err)
	}

	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults устанавливает значения по умолчанию для незаданных полей
func (c *Config) applyDefaults() {
	b := &c.Bot
	if b.PollingIntervalSeconds == 0 {
		b.PollingIntervalSeconds = DefaultPollingIntervalSeconds
	}
	if b.TaskTimeoutSeconds == 0 {
		b.TaskTimeoutSeconds = DefaultTaskTimeoutSeconds
	}
	if b.ExcelThreshold == 0 {
		b.ExcelThreshold = DefaultExcelThreshold
	}
	if b.HTTPTimeoutSeconds == 0 {
		b.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if b.HealthCheckSeconds == 0 {
		b.HealthCheckSeconds = DefaultHealthCheckSeconds
	}
	if b.MaxFileSizeMB == 0 {
		b.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if b.Render.Rank == 0 {
		b.Render.Rank = DefaultRankColumnWidth
	}
	if b.Render.Author == 0 {
		b.Render.Author = DefaultAuthorColumnWidth
	}
	if b.Render.Messages == 0 {
		b.Render.Messages = DefaultMessagesColumnWidth
	}
	if b.Render.Status == 0 {
		b.Render.Status = DefaultStatusColumnWidth
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate проверяет корректность конфигурации бота.
func (c *BotConfig) Validate() error {
	if c.Token == "" || c.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured")
	}
	backends := c.Backends()
	if len(backends) == 0 {
		return fmt.Errorf("bot.backend_url or bot.backend_urls must be set")
	}
	for _, u := range backends {
		if u == "" {
			return fmt.Errorf("bot.backend_urls must not contain empty values")
		}
	}
	if c.PollingIntervalSeconds <= 0 {
		return fmt.Errorf("bot.polling_interval_seconds must be positive")
	}
	if c.TaskTimeoutSeconds <= 0 {
		return fmt.Errorf("bot.task_timeout_seconds must be positive")
	}
	if c.ExcelThreshold <= 0 {
		return fmt.Errorf("bot.excel_threshold must be positive")
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("bot.max_file_size_mb must be positive")
	}
	return nil
}
