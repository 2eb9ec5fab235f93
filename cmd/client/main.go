package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/bot"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/domain"
	applog "whatsapp-chat-analyzer/internal/log"
	"whatsapp-chat-analyzer/internal/pkg/term"
	"whatsapp-chat-analyzer/internal/ports"
)

const resultPageSize = 500

var errTaskFailed = errors.New("task failed")

func main() {
	var (
		serverAddr string
		reuse      bool
		interval   time.Duration
		timeout    time.Duration
		format     string
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.BoolVar(&reuse, "reuse", false, "Try a cached result by file hash before uploading")
	flag.DurationVar(&interval, "interval", 2*time.Second, "Task status polling interval")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum time to wait for the result")
	flag.StringVar(&format, "format", "", "Output format: text or json (default: text for a terminal, json otherwise)")
	flag.Parse()

	if flag.NArg() != 1 {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [flags] <chat.txt>\n", os.Args[0])
		os.Exit(2)
	}

	applog.Setup(os.Stderr, "info", "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := &client{api: bot.NewServerClient(serverAddr, 30*time.Second), interval: interval}
	report, err := c.analyze(ctx, flag.Arg(0), reuse)
	if err != nil {
		slog.Error("Анализ не выполнен", "error", err)
		os.Exit(1)
	}

	var exp ports.Exporter
	switch {
	case format == "text" || (format == "" && term.StdoutIsTerminal()):
		exp = exporter.NewConsoleExporter(os.Stdout)
	case format == "json" || format == "":
		exp = exporter.NewJSONExporter(os.Stdout)
	default:
		slog.Error("Неизвестный формат вывода", "format", format)
		os.Exit(2)
	}
	if err := exp.Export(report); err != nil {
		slog.Error("Не удалось вывести отчет", "error", err)
		os.Exit(1)
	}
	if len(report.Predictions) == 0 {
		os.Exit(1)
	}
}

type client struct {
	api      *bot.ServerClient
	interval time.Duration
}

// analyze запускает задачу (по хешу или загрузкой файла) и собирает результат.
func (c *client) analyze(ctx context.Context, path string, reuse bool) (*domain.AnalysisReport, error) {
	if reuse {
		report, err := c.analyzeByHash(ctx, path)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, errTaskFailed) {
			return nil, err
		}
		slog.Info("Результат не найден в кеше, загружаем файл", "path", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	resp, err := c.api.StartTask(ctx, bot.DocumentFile{Name: filepath.Base(path), Content: f})
	if err != nil {
		return nil, err
	}
	slog.Info("Задача создана", "task_id", resp.TaskID)
	return c.waitResult(ctx, resp.TaskID)
}

func (c *client) analyzeByHash(ctx context.Context, path string) (*domain.AnalysisReport, error) {
	hash, err := cache.CalculateFileHash(path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	resp, err := c.api.StartTaskByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	slog.Info("Задача по хешу создана", "task_id", resp.TaskID, "hash", hash)
	return c.waitResult(ctx, resp.TaskID)
}

// waitResult опрашивает статус задачи и после завершения скачивает все страницы результата.
func (c *client) waitResult(ctx context.Context, taskID string) (*domain.AnalysisReport, error) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		status, err := c.api.GetTaskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}
		slog.Debug("Статус задачи", "task_id", taskID, "status", status.Status)

		switch status.Status {
		case "completed":
			return c.fetchReport(ctx, taskID)
		case "failed":
			return nil, fmt.Errorf("%w: %s", errTaskFailed, status.ErrorMessage)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *client) fetchReport(ctx context.Context, taskID string) (*domain.AnalysisReport, error) {
	report := &domain.AnalysisReport{}
	for page := 1; ; page++ {
		result, err := c.api.GetTaskResult(ctx, taskID, page, resultPageSize)
		if err != nil {
			return nil, err
		}
		if page == 1 {
			report.ContentHash = result.ContentHash
			report.Summary = result.Summary
			report.Insights = result.Insights
			report.Ranking = result.Ranking
		}
		report.Predictions = append(report.Predictions, result.Data...)
		if page >= result.Pagination.TotalPages {
			return report, nil
		}
	}
}
