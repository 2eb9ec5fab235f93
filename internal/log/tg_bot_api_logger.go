package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// TGBotAPIAdapter направляет внутренний лог go-telegram-bot-api/v5 в slog.
// URL запросов библиотеки содержат токен бота, поэтому логгер должен быть
// создан через NewMaskedLogger.
type TGBotAPIAdapter struct {
	logger *slog.Logger
}

// NewTGBotAPIAdapter создает адаптер, помечая записи атрибутом component=tgbotapi.
func NewTGBotAPIAdapter(logger *slog.Logger) *TGBotAPIAdapter {
	return &TGBotAPIAdapter{logger: logger.With(slog.String("component", "tgbotapi"))}
}

// Println реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	a.logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

// Printf реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
