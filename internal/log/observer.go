package log

import (
	"context"
	"log/slog"
	"sort"
	"whatsapp-chat-analyzer/internal/ports"
)

// SlogObserver пишет контрольные точки конвейера в лог на уровне Debug.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver создает наблюдателя. nil означает slog.Default().
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// OnCheckpoint реализует ports.PipelineObserver.
func (o *SlogObserver) OnCheckpoint(ctx context.Context, checkpoint ports.Checkpoint, details map[string]any) {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("checkpoint", string(checkpoint)))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, details[k]))
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "pipeline checkpoint", attrs...)
}
