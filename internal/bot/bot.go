package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"whatsapp-chat-analyzer/cmd/bot/config"
	"whatsapp-chat-analyzer/internal/pkg/table"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	startCommand = "start"
	helpCommand  = "help"

	// Максимальная длина сообщения в Telegram.
	maxMessageLength = 4096
	resultPageSize   = 100
)

// ServerAPI определяет методы бэкенда, которые использует бот.
type ServerAPI interface {
	StartTask(ctx context.Context, file DocumentFile) (*StartTaskResponse, error)
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error)
	GetTaskResult(ctx context.Context, taskID string, page, pageSize int) (*TaskResultResponse, error)
	GetTaskReport(ctx context.Context, taskID string) ([]byte, error)
}

// taskReleaser реализуется клиентами, которые хранят состояние по задаче.
type taskReleaser interface {
	Release(taskID string)
}

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          config.BotConfig
	serverClient ServerAPI
	taskStore    *TaskStore
	logger       *slog.Logger
	httpClient   *http.Client

	sendMessageFunc      func(msg tgbotapi.Chattable) (tgbotapi.Message, error)
	getFileDirectURLFunc func(fileID string) (string, error)
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.BotConfig, serverClient ServerAPI, taskStore *TaskStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	return &Bot{
		api:                  api,
		cfg:                  cfg,
		serverClient:         serverClient,
		taskStore:            taskStore,
		logger:               logger,
		httpClient:           &http.Client{Timeout: cfg.HTTPTimeout()},
		sendMessageFunc:      api.Send,
		getFileDirectURLFunc: api.GetFileDirectURL,
	}, nil
}

// Start запускает основной цикл обработки обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	b.reply(msg.Chat.ID, "Пожалуйста, отправьте мне .txt файл с историей чата, экспортированный из WhatsApp.")
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCommand, helpCommand:
		b.reply(msg.Chat.ID, "Добро пожаловать! Я бот для анализа активности в чатах WhatsApp.\n\n"+
			"Экспортируйте чат (\"Экспорт чата\" → \"Без медиафайлов\") и отправьте мне полученный .txt файл. "+
			"Я посчитаю статистику по участникам и определю самых активных.\n\n"+
			"Пожалуйста, обратите внимание:\n"+
			"• Я принимаю только один файл за раз.\n"+
			fmt.Sprintf("• Максимальный размер файла: %d МБ.\n", b.cfg.MaxFileSizeMB)+
			"• Файлы не сохраняются и обрабатываются на лету.")
	default:
		b.reply(msg.Chat.ID, "Я не знаю такой команды.")
	}
}

// handleDocument принимает файл экспорта и запускает задачу на бэкенде.
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("file_name", doc.FileName))

	if !strings.EqualFold(filepath.Ext(doc.FileName), ".txt") {
		logger.Info("rejected file with unsupported extension")
		b.reply(chatID, "Поддерживаются только текстовые файлы экспорта WhatsApp (.txt).")
		return
	}

	maxSize := b.cfg.MaxFileSizeBytes()
	if int64(doc.FileSize) > maxSize {
		logger.Info("rejected file over size limit", slog.Int64("size", int64(doc.FileSize)))
		b.reply(chatID, fmt.Sprintf("Файл слишком большой. Максимальный размер: %d МБ.", b.cfg.MaxFileSizeMB))
		return
	}

	if !b.taskStore.Reserve(chatID) {
		logger.Warn("user tried to start a new task while another is active")
		b.reply(chatID, "Пожалуйста, подождите завершения предыдущей задачи, прежде чем начинать новую.")
		return
	}

	content, err := b.downloadFile(ctx, doc.FileID, maxSize)
	if err != nil {
		b.taskStore.Delete(chatID)
		logger.Error("failed to download file", slog.String("error", err.Error()))
		if errors.Is(err, errFileTooLarge) {
			b.reply(chatID, fmt.Sprintf("Файл слишком большой. Максимальный размер: %d МБ.", b.cfg.MaxFileSizeMB))
			return
		}
		b.reply(chatID, "Не удалось скачать файл. Попробуйте отправить его еще раз.")
		return
	}

	startResp, err := b.serverClient.StartTask(ctx, DocumentFile{Name: doc.FileName, Content: bytes.NewReader(content)})
	if err != nil {
		b.taskStore.Delete(chatID)
		logger.Error("failed to start task on backend", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось начать обработку файла на сервере. Пожалуйста, попробуйте позже.")
		return
	}

	taskID := startResp.TaskID
	logger.Info("task started on backend", slog.String("task_id", taskID))

	b.taskStore.Bind(chatID, taskID)
	go b.pollTaskStatus(context.Background(), chatID, taskID) // Опрос не должен зависеть от контекста обновления

	b.reply(chatID, "✅ Файл получен и поставлен в очередь на обработку. Ожидайте результата.")
}

var errFileTooLarge = errors.New("file too large")

// downloadFile скачивает файл с серверов Telegram, читая не больше maxSize байт.
func (b *Bot) downloadFile(ctx context.Context, fileID string, maxSize int64) ([]byte, error) {
	fileURL, err := b.getFileDirectURLFunc(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file direct url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.sendMessageFunc(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// pollTaskStatus опрашивает статус задачи, пока она не завершится или не истечет TaskTimeout.
func (b *Bot) pollTaskStatus(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	defer b.taskStore.Delete(chatID)
	if r, ok := b.serverClient.(taskReleaser); ok {
		defer r.Release(taskID)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.TaskTimeout())
	defer cancel()

	ticker := time.NewTicker(b.cfg.PollingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.Warn("task polling timed out")
				b.reply(chatID, "Превышено время ожидания результата. Пожалуйста, попробуйте позже.")
				return
			}
			logger.Warn("polling cancelled by context")
			return
		case <-ticker.C:
			logger.Debug("polling task status")
			status, err := b.serverClient.GetTaskStatus(ctx, taskID)
			if err != nil {
				logger.Error("failed to get task status", slog.String("error", err.Error()))
				continue
			}

			switch status.Status {
			case "completed":
				logger.Info("task completed")
				b.processCompletedTask(ctx, chatID, taskID)
				return
			case "failed":
				logger.Warn("task failed", slog.String("reason", status.ErrorMessage))
				b.reply(chatID, fmt.Sprintf("Произошла ошибка при обработке файла: %s", status.ErrorMessage))
				return
			case "pending", "processing":
				logger.Debug("task is in progress", slog.String("status", status.Status))
			default:
				logger.Warn("unknown task status", slog.String("status", status.Status))
			}
		}
	}
}

// processCompletedTask получает результат и отправляет его пользователю.
func (b *Bot) processCompletedTask(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))

	result, err := b.fetchAllResults(ctx, taskID)
	if err != nil {
		logger.Error("failed to fetch all results", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось получить результаты для выполненной задачи. Пожалуйста, попробуйте позже.")
		return
	}

	authors := len(result.Data)
	if elapsed, ok := b.taskStore.Elapsed(chatID); ok {
		logger = logger.With(slog.Duration("elapsed", elapsed))
	}
	logger.Info("successfully fetched all results", slog.Int("author_count", authors))

	if authors == 0 {
		b.reply(chatID, "Не удалось найти сообщения в предоставленном файле. Убедитесь, что это экспорт чата WhatsApp.")
		return
	}

	if authors >= b.cfg.ExcelThreshold {
		logger.Info("author count is over threshold, sending excel report")
		b.sendExcelResult(ctx, chatID, taskID, result)
		return
	}
	b.sendTextResult(chatID, result)
}

// fetchAllResults собирает все страницы результата. Сводка, выводы и рейтинг
// берутся с первой страницы.
func (b *Bot) fetchAllResults(ctx context.Context, taskID string) (*TaskResultResponse, error) {
	var all *TaskResultResponse
	for page := 1; ; page++ {
		result, err := b.serverClient.GetTaskResult(ctx, taskID, page, resultPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to get task result page %d: %w", page, err)
		}

		if all == nil {
			all = result
		} else {
			all.Data = append(all.Data, result.Data...)
		}

		if page >= result.Pagination.TotalPages {
			return all, nil
		}
	}
}

func (b *Bot) sendExcelResult(ctx context.Context, chatID int64, taskID string, result *TaskResultResponse) {
	report, err := b.serverClient.GetTaskReport(ctx, taskID)
	if err != nil {
		b.logger.Error("failed to download excel report", slog.String("task_id", taskID), slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось сформировать Excel-отчет. Отправляю результат текстом.")
		b.sendResultAsTextFile(chatID, result)
		return
	}

	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("whatsapp_activity_%s.xlsx", time.Now().Format("2006-01-02_15-04-05")),
		Bytes: report,
	})
	msg.Caption = summaryLine(result)
	b.sendMessage(msg)
}

// sendTextResult отправляет результат HTML-сообщением с таблицей в <pre>.
func (b *Bot) sendTextResult(chatID int64, result *TaskResultResponse) {
	var sb strings.Builder
	sb.WriteString(html.EscapeString(summaryLine(result)))
	sb.WriteString("\n<pre><code>")
	sb.WriteString(b.resultTable(result, true).String())
	sb.WriteString("</code></pre>")
	for _, insight := range result.Insights {
		sb.WriteString("\n• ")
		sb.WriteString(html.EscapeString(insight))
	}

	text := sb.String()
	if len([]rune(text)) > maxMessageLength {
		b.logger.Warn("сгенерированный текст слишком длинный, отправка в виде файла", "length", len(text))
		b.sendResultAsTextFile(chatID, result)
		return
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(reply)
}

// sendResultAsTextFile отправляет таблицу и выводы в виде текстового файла.
func (b *Bot) sendResultAsTextFile(chatID int64, result *TaskResultResponse) {
	var buf bytes.Buffer
	buf.WriteString(summaryLine(result))
	buf.WriteString("\n\n")
	_ = b.resultTable(result, false).Render(&buf)
	if len(result.Insights) > 0 {
		buf.WriteString("\nInsights:\n")
		for _, insight := range result.Insights {
			buf.WriteString("- ")
			buf.WriteString(insight)
			buf.WriteString("\n")
		}
	}

	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("whatsapp_activity_%s.txt", time.Now().Format("2006-01-02_15-04-05")),
		Bytes: buf.Bytes(),
	})
	msg.Caption = "Результат слишком большой для одного сообщения, поэтому он прикреплен в виде файла."
	b.sendMessage(msg)
}

// resultTable строит таблицу авторов в порядке убывания оценки активности.
func (b *Bot) resultTable(result *TaskResultResponse, escape bool) *table.Table {
	widths := b.cfg.Render
	t := table.New(
		table.Column{Title: "#", Width: widths.Rank},
		table.Column{Title: "Author", Width: widths.Author},
		table.Column{Title: "Msgs", Width: widths.Messages},
		table.Column{Title: "Status", Width: widths.Status},
	)
	for i, f := range result.Data {
		author := f.Author
		if escape {
			author = html.EscapeString(author)
		}
		t.AddRow(strconv.Itoa(i+1), author, strconv.Itoa(f.MessageCount), string(f.Prediction))
	}
	return t
}

func summaryLine(result *TaskResultResponse) string {
	s := result.Summary
	line := fmt.Sprintf("Анализ завершен. Авторов: %d, сообщений: %d.", len(result.Data), s.TotalMessages)
	if s.DateRange.Start != "" {
		line += fmt.Sprintf(" Период: %s - %s.", s.DateRange.Start, s.DateRange.End)
	}
	if s.MostActiveUser != "" {
		line += fmt.Sprintf(" Самый активный: %s.", s.MostActiveUser)
	}
	return line
}
