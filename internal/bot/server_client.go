package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"whatsapp-chat-analyzer/internal/domain"

	"golang.org/x/xerrors"
)

// ServerClient — клиент для взаимодействия с API бэкенд-сервера.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerClient создает новый экземпляр ServerClient.
func NewServerClient(baseURL string, timeout time.Duration) *ServerClient {
	return &ServerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout, // Общий таймаут для запросов
		},
	}
}

// API-ответы
type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// PaginationDTO представляет собой объект пагинации из ответа сервера.
type PaginationDTO struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// TaskResultResponse — страница результата анализа.
type TaskResultResponse struct {
	TaskID      string              `json:"task_id"`
	ContentHash string              `json:"content_hash"`
	Pagination  PaginationDTO       `json:"pagination"`
	Data        []domain.MLFeature  `json:"data"`
	Summary     domain.ChatSummary  `json:"summary"`
	Insights    []string            `json:"insights"`
	Ranking     []domain.RankedUser `json:"ranking"`
}

// DocumentFile представляет файл для загрузки.
type DocumentFile struct {
	Name    string
	Content io.Reader
}

// StatusError описывает неожиданный HTTP-статус ответа сервера.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// ID возвращает адрес сервера.
func (c *ServerClient) ID() string {
	return c.baseURL
}

// Health проверяет доступность сервера.
func (c *ServerClient) Health(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, http.StatusOK, &status); err != nil {
		return err
	}
	if status.Status != "ok" {
		return xerrors.Errorf("unexpected health status %q", status.Status)
	}
	return nil
}

// StartTask отправляет файл экспорта на сервер для начала анализа.
func (c *ServerClient) StartTask(ctx context.Context, file DocumentFile) (*StartTaskResponse, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, xerrors.Errorf("failed to create form file for %s: %w", file.Name, err)
	}
	if _, err = io.Copy(fw, file.Content); err != nil {
		return nil, xerrors.Errorf("failed to copy file content for %s: %w", file.Name, err)
	}
	if err := w.Close(); err != nil {
		return nil, xerrors.Errorf("failed to close multipart writer: %w", err)
	}

	var result StartTaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze", w.FormDataContentType(), &b, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartTaskByHash создает задачу по хешу ранее проанализированного файла.
func (c *ServerClient) StartTaskByHash(ctx context.Context, hash string) (*StartTaskResponse, error) {
	body, err := json.Marshal(map[string]string{"hash": hash})
	if err != nil {
		return nil, xerrors.Errorf("failed to encode request: %w", err)
	}

	var result StartTaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze-by-hash", "application/json", bytes.NewReader(body), http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus запрашивает статус задачи.
func (c *ServerClient) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	var result TaskStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+taskID, "", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskResult запрашивает страницу результата выполненной задачи.
func (c *ServerClient) GetTaskResult(ctx context.Context, taskID string, page, pageSize int) (*TaskResultResponse, error) {
	path := fmt.Sprintf("/api/v1/tasks/%s/result?page=%d&page_size=%d", taskID, page, pageSize)

	var result TaskResultResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskReport скачивает отчет выполненной задачи в формате Excel.
func (c *ServerClient) GetTaskReport(ctx context.Context, taskID string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+taskID+"/report.xlsx", "", nil, http.StatusOK, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// do выполняет запрос и декодирует ответ в out. Если out является *bytes.Buffer,
// тело копируется как есть.
func (c *ServerClient) do(ctx context.Context, method, path, contentType string, body io.Reader, wantStatus int, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return xerrors.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return xerrors.Errorf("%s %s: %w", method, path, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))})
	}

	if buf, ok := out.(*bytes.Buffer); ok {
		if _, err := io.Copy(buf, resp.Body); err != nil {
			return xerrors.Errorf("failed to read response: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return xerrors.Errorf("failed to decode response: %w", err)
	}
	return nil
}
