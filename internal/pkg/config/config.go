// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	"whatsapp-chat-analyzer/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию сервера
type Server struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxUploadSizeMB int64         `json:"max_upload_size_mb" yaml:"max_upload_size_mb"`
}

// Processing содержит конфигурацию обработки
type Processing struct {
	TaskTimeout     time.Duration `json:"task_timeout" yaml:"task_timeout"` // 0 - без ограничений
	CacheTTL        time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	TaskTTL         time.Duration `json:"task_ttl" yaml:"task_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// Scoring содержит веса эвристики активности
type Scoring struct {
	Weights        domain.FeatureWeights `json:"weights" yaml:"weights"`
	ActiveQuantile float64               `json:"active_quantile" yaml:"active_quantile"`
}

// Policy преобразует секцию конфигурации в политику оценки.
func (s Scoring) Policy() domain.ScoringPolicy {
	return domain.ScoringPolicy{
		Weights:        s.Weights,
		ActiveQuantile: s.ActiveQuantile,
	}
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Processing Processing `json:"processing" yaml:"processing"`
	Scoring    Scoring    `json:"scoring" yaml:"scoring"`
	Logging    Logging    `json:"logging" yaml:"logging"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию
func defaultConfig() *Config {
	policy := domain.DefaultScoringPolicy()
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
		},
		Processing: Processing{
			TaskTimeout:     DefaultTaskTimeout,
			CacheTTL:        DefaultCacheTTL,
			TaskTTL:         DefaultTaskTTL,
			CleanupInterval: DefaultCleanupInterval,
		},
		Scoring: Scoring{
			Weights:        policy.Weights,
			ActiveQuantile: policy.ActiveQuantile,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Default возвращает конфигурацию по умолчанию для запуска без config.yml.
func Default() *Config {
	return defaultConfig()
}

// LoadConfig загружает конфигурацию из .env, config.yml и переменных окружения.
// Переменные окружения имеют наивысший приоритет.
func LoadConfig(path string) (*Config, error) {
	// Отсутствие .env файла не является ошибкой
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return cfg, nil
}

// loadFromYAML накладывает значения из YAML-файла на cfg. Отсутствующий файл не является ошибкой.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// loadFromEnv переопределяет отдельные поля значениями переменных окружения
func loadFromEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)

	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if timeoutStr := os.Getenv("TASK_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("недопустимый TASK_TIMEOUT: %w", err)
		}
		cfg.Processing.TaskTimeout = timeout
	}

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadBytes возвращает максимальный размер загружаемого файла в байтах
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadSizeMB << 20
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}

	if c.Processing.TaskTTL <= 0 {
		return fmt.Errorf("processing.task_ttl должно быть положительным")
	}

	if c.Processing.CleanupInterval <= 0 {
		return fmt.Errorf("processing.cleanup_interval должно быть положительным")
	}

	w := c.Scoring.Weights
	if w.Message < 0 || w.Emoji < 0 || w.Media < 0 || w.Link < 0 {
		return fmt.Errorf("scoring.weights не могут быть отрицательными")
	}

	if c.Scoring.ActiveQuantile < 0 || c.Scoring.ActiveQuantile > 1 {
		return fmt.Errorf("scoring.active_quantile должен быть в диапазоне [0, 1]")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
