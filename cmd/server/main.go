package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"whatsapp-chat-analyzer/internal/cache"
	applog "whatsapp-chat-analyzer/internal/log"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/server"
	"whatsapp-chat-analyzer/internal/server/usecase"

	"github.com/sevlyar/go-daemon"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	var (
		configPath string
		detach     bool
		pidFile    string
		logFile    string
	)
	flag.StringVar(&configPath, "config", "config.yml", "Path to config file")
	flag.BoolVar(&detach, "detach", false, "Run the server in the background")
	flag.StringVar(&pidFile, "pid-file", "analyzer-server.pid", "PID file used with -detach")
	flag.StringVar(&logFile, "log-file", "analyzer-server.log", "Log file used with -detach")
	flag.Parse()

	// 1. Загрузка и валидация конфигурации
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Отсоединение от терминала
	if detach {
		dctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0o644,
			LogFileName: logFile,
			LogFilePerm: 0o640,
			Umask:       0o27,
		}
		child, err := dctx.Reborn()
		if err != nil {
			return fmt.Errorf("failed to detach: %w", err)
		}
		if child != nil {
			_, _ = fmt.Fprintf(os.Stdout, "server started in background, pid %d\n", child.Pid)
			return nil
		}
		defer func() { _ = dctx.Release() }()
	}

	// 3. Инициализация логгера
	logger := applog.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	// 4. Инициализация зависимостей
	taskStore := server.NewTaskStore()
	cacheStore := cache.NewCacheStore()
	analyzer := usecase.NewDefaultAnalyzeChatUseCase(
		cfg.Scoring.Policy(),
		applog.NewSlogObserver(logger),
		cacheStore,
		cfg.Processing.CacheTTL,
	)

	// 5. Создание HTTP-сервера
	srv, err := server.New(cfg, analyzer, taskStore, cacheStore)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 6. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		slog.Info("Signal received, shutting down...")
	case <-serverDone:
		return fmt.Errorf("server stopped unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}
