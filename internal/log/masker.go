package log

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// PhoneMaskerHandler - обертка для slog.Handler, которая маскирует номера телефонов
// и токены ботов в логах. Экспорт WhatsApp подписывает сообщения неизвестных контактов
// номером телефона, поэтому имена авторов нельзя писать в логи как есть.
type PhoneMaskerHandler struct {
	handler slog.Handler
}

// NewPhoneMaskerHandler создает новый обработчик с маскировкой
func NewPhoneMaskerHandler(handler slog.Handler) *PhoneMaskerHandler {
	return &PhoneMaskerHandler{
		handler: handler,
	}
}

var (
	// международный формат: +7 912 345-67-89, +1 (555) 010-0000, +447700900123
	phoneRegex = regexp.MustCompile(`\+\d[\d \-()\x{00A0}\x{202F}]{6,}\d`)
	// токены в формате botID:token, где ID - числа, token - буквенно-цифровой
	telegramTokenRegex = regexp.MustCompile(`(\bbot\d+:[A-Za-z0-9_-]{35,})`)
)

// maskSensitive заменяет токены и номера телефонов на маску.
// У номера сохраняются две последние цифры.
func maskSensitive(text string) string {
	text = telegramTokenRegex.ReplaceAllString(text, "bot***:***masked-token***")
	return phoneRegex.ReplaceAllStringFunc(text, func(phone string) string {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, phone)
		return "+***" + digits[len(digits)-2:]
	})
}

// Enabled реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Работаем с копией: slog может переиспользовать оригинальную запись.
	// NewRecord не переносит атрибуты, поэтому добавляем их заново.
	r := slog.NewRecord(record.Time, record.Level, maskSensitive(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = maskAttr(attr)
	}
	return &PhoneMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) WithGroup(name string) slog.Handler {
	return &PhoneMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskAttributeValue(a.Value)}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskSensitive(value.String()))
	case slog.KindAny:
		switch v := value.Any().(type) {
		case error:
			return slog.StringValue(maskSensitive(v.Error()))
		case []string:
			masked := make([]string, len(v))
			for i, s := range v {
				masked[i] = maskSensitive(s)
			}
			return slog.AnyValue(masked)
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = maskAttr(attr)
		}
		return slog.GroupValue(maskedGroup...)
	default:
		// Для других типов возвращаем оригинальное значение
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewPhoneMaskerHandler(handler))
}
