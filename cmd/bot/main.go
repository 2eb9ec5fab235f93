package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"whatsapp-chat-analyzer/cmd/bot/config"
	"whatsapp-chat-analyzer/internal/bot"
	"whatsapp-chat-analyzer/internal/bot/router"
	applog "whatsapp-chat-analyzer/internal/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	configPath := flag.String("config", "bot_config.yml", "Path to bot config file")
	flag.Parse()

	// Загрузка конфигурации бота
	cfg, err := config.LoadBotConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to load bot config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Bot.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to validate bot config: %v\n", err)
		os.Exit(1)
	}

	// Логгер с маскировкой токенов и номеров телефонов
	logger := applog.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err := tgbotapi.SetLogger(applog.NewTGBotAPIAdapter(logger)); err != nil {
		slog.Warn("failed to set telegram library logger", slog.String("error", err.Error()))
	}

	taskStore := bot.NewTaskStore()
	backends := make([]router.Backend, 0, len(cfg.Bot.Backends()))
	for _, u := range cfg.Bot.Backends() {
		backends = append(backends, bot.NewServerClient(u, cfg.Bot.HTTPTimeout()))
	}
	backendRouter, err := router.NewRouter(
		router.WithBackends(backends...),
		router.WithHealthCheckInterval(cfg.Bot.HealthCheckInterval()),
		router.WithLogger(logger.With(slog.String("component", "router"))),
	)
	if err != nil {
		slog.Error("failed to create backend router", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backendRouter.Stop()

	b, err := bot.NewBot(cfg.Bot, backendRouter, taskStore, logger.With(slog.String("component", "bot")))
	if err != nil {
		slog.Error("failed to create bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Bot created successfully, starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start возвращается после отмены контекста
	b.Start(ctx)

	slog.Info("Bot stopped gracefully")
}
