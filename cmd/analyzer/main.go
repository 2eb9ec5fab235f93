package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/domain"
	applog "whatsapp-chat-analyzer/internal/log"
	"whatsapp-chat-analyzer/internal/pkg/config"
	"whatsapp-chat-analyzer/internal/pkg/term"
	"whatsapp-chat-analyzer/internal/ports"
	"whatsapp-chat-analyzer/internal/server/usecase"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatXLSX = "xlsx"
)

var errNoAuthors = errors.New("no authors found")

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		format     string
		outPath    string
	)
	flag.StringVar(&configPath, "config", "config.yml", "Path to config file (scoring and logging sections)")
	flag.StringVar(&format, "format", "", "Output format: text, json or xlsx (default: text for a terminal, json otherwise)")
	flag.StringVar(&outPath, "o", "", "Output file (required for xlsx)")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <chat.txt>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return errors.New("exactly one transcript file is required")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := applog.Setup(os.Stderr, cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uc := usecase.NewDefaultAnalyzeChatUseCase(cfg.Scoring.Policy(), applog.NewSlogObserver(logger), nil, 0)
	report, err := uc.AnalyzeFile(ctx, flag.Arg(0))
	if err != nil {
		return err
	}
	if len(report.Predictions) == 0 {
		return errNoAuthors
	}

	exp, closeOut, err := newExporter(format, outPath)
	if err != nil {
		return err
	}

	if err := exportReport(exp, closeOut, report); err != nil {
		return err
	}
	if outPath != "" {
		slog.Info("Отчет сохранен", "path", outPath, "authors", len(report.Predictions))
	}
	return nil
}

// newExporter выбирает формат вывода. Без -format в терминал выводится текст, иначе JSON.
func newExporter(format, outPath string) (ports.Exporter, func() error, error) {
	if format == "" {
		format = formatJSON
		if outPath == "" && term.StdoutIsTerminal() {
			format = formatText
		}
	}

	if format == formatXLSX {
		if outPath == "" {
			return nil, nil, errors.New("-o is required for xlsx output")
		}
		return exporter.NewExcelExporter(outPath), noClose, nil
	}

	var w io.Writer = os.Stdout
	closeOut := noClose
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		w = f
		closeOut = f.Close
	}

	switch format {
	case formatText:
		return exporter.NewConsoleExporter(w), closeOut, nil
	case formatJSON:
		return exporter.NewJSONExporter(w), closeOut, nil
	default:
		_ = closeOut()
		return nil, nil, fmt.Errorf("unknown format %q", format)
	}
}

func noClose() error { return nil }

// exportReport пишет отчет и закрывает вывод. Ошибка Close означает, что файл
// записан не полностью, и тоже возвращается.
func exportReport(exp ports.Exporter, closeOut func() error, report *domain.AnalysisReport) error {
	if err := exp.Export(report); err != nil {
		_ = closeOut()
		return fmt.Errorf("failed to export report: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
