package parser

import (
	"context"
	"strings"
	"unicode"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// cancelCheckEvery — как часто (в строках) проверяется отмена контекста.
const cancelCheckEvery = 1024

// Option определяет функциональную опцию для конфигурации TranscriptParser.
type Option func(*TranscriptParser)

// WithObserver — опция для установки наблюдателя за контрольными точками.
func WithObserver(o ports.PipelineObserver) Option {
	return func(p *TranscriptParser) {
		if o != nil {
			p.observer = o
		}
	}
}

// TranscriptParser реализует интерфейс Parser для текстовых экспортов WhatsApp.
type TranscriptParser struct {
	matcher    ports.LineMatcher
	classifier ports.MessageClassifier
	observer   ports.PipelineObserver
}

// NewTranscriptParser создает парсер. Пустые зависимости заменяются стандартными.
func NewTranscriptParser(matcher ports.LineMatcher, classifier ports.MessageClassifier, opts ...Option) ports.Parser {
	if matcher == nil {
		matcher = NewLineMatcher()
	}
	if classifier == nil {
		classifier = NewClassifier()
	}
	p := &TranscriptParser{
		matcher:    matcher,
		classifier: classifier,
		observer:   ports.NopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse разбивает текст на строки и возвращает несистемные сообщения в порядке файла.
// Нераспознанные строки пропускаются молча.
func (p *TranscriptParser) Parse(ctx context.Context, data []byte) ([]domain.ClassifiedMessage, error) {
	lines := SplitLines(string(data))
	p.observer.OnCheckpoint(ctx, ports.CheckpointLinesSplit, map[string]any{"lines": len(lines)})

	messages := make([]domain.ClassifiedMessage, 0, len(lines))
	matched, discarded := 0, 0
	for i, line := range lines {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		parsed, ok := p.matcher.Match(line)
		if !ok {
			continue
		}
		matched++

		msg, keep := p.classifier.Classify(parsed)
		if !keep {
			discarded++
			continue
		}
		messages = append(messages, msg)
	}

	p.observer.OnCheckpoint(ctx, ports.CheckpointParsed, map[string]any{
		"matched":   matched,
		"discarded": discarded,
		"messages":  len(messages),
	})
	return messages, nil
}

// SplitLines делит текст по '\n' и отбрасывает строки, состоящие только из пробелов.
// Сами строки не обрезаются.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimFunc(line, isSpace) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
