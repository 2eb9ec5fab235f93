package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"whatsapp-chat-analyzer/internal/adapters/exporter"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ChatAnalyzer определяет интерфейс варианта использования, который анализирует экспорт чата.
type ChatAnalyzer interface {
	Analyze(ctx context.Context, data []byte) (*domain.AnalysisReport, error)
	Cached(hash string) (*domain.AnalysisReport, bool)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer  *http.Server
	cfg         *config.Config
	taskStore   *TaskStore
	cacheStore  *cache.CacheStore
	analyzer    ChatAnalyzer
	excel       *exporter.ExcelExporter
	stopCleanup context.CancelFunc
}

// Pagination описывает страницу результата
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// ResultResponse — ответ на запрос результата задачи
type ResultResponse struct {
	TaskID      string              `json:"task_id"`
	ContentHash string              `json:"content_hash"`
	Pagination  Pagination          `json:"pagination"`
	Data        []domain.MLFeature  `json:"data"`
	Summary     domain.ChatSummary  `json:"summary"`
	Insights    []string            `json:"insights"`
	Ranking     []domain.RankedUser `json:"ranking"`
}

// New создает новый экземпляр Server и запускает очистку хранилищ.
func New(cfg *config.Config, analyzer ChatAnalyzer, taskStore *TaskStore, cacheStore *cache.CacheStore) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	s := &Server{
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		analyzer:   analyzer,
		excel:      exporter.NewExcelExporter(""),
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze-by-hash", s.handleAnalyzeByHash)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
		r.Get("/tasks/{taskID}/report.xlsx", s.handleTaskReport)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Тикеры очистки останавливаются в Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	s.stopCleanup = cancel
	s.taskStore.StartCleanupTicker(ctx, cfg.Processing.CleanupInterval)
	if s.cacheStore != nil {
		s.cacheStore.StartCleanupTicker(ctx, cfg.Processing.CleanupInterval)
	}

	return s, nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	s.stopCleanup()
	if s.cacheStore != nil {
		st := s.cacheStore.Stats()
		slog.Info("Статистика кеша", "hits", st.Hits, "misses", st.Misses, "entries", st.Entries)
	}
	return s.HTTPServer.Shutdown(ctx)
}

// handleAnalyze принимает файл экспорта и запускает анализ в фоне.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Не удалось прочитать загруженный файл", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, s.cfg.Processing.TaskTTL)
	slog.Info("Файл получен", "task_id", taskID, "file_name", header.Filename, "size", len(data))

	go s.runTask(taskID, data)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// runTask выполняет анализ с таймаутом из конфигурации.
func (s *Server) runTask(taskID string, data []byte) {
	_ = s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

	taskCtx := context.Background()
	if s.cfg.Processing.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, s.cfg.Processing.TaskTimeout)
		defer cancel()
	}

	report, err := s.analyzer.Analyze(taskCtx, data)
	if err != nil {
		slog.Error("Ошибка анализа", "task_id", taskID, "error", err)
		_ = s.taskStore.UpdateTaskError(taskID, err.Error())
		return
	}
	_ = s.taskStore.UpdateTaskResult(taskID, report)
}

// handleAnalyzeByHash создает задачу по хешу ранее загруженного файла.
// Результат берется только из кеша.
func (s *Server) handleAnalyzeByHash(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
		return
	}
	if req.Hash == "" {
		http.Error(w, "Требуется хеш", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()
	s.taskStore.CreateTask(taskID, s.cfg.Processing.TaskTTL)

	if report, found := s.analyzer.Cached(req.Hash); found {
		_ = s.taskStore.UpdateTaskResult(taskID, report)
		slog.Info("Попадание в кеш для хеша", "hash", req.Hash, "task_id", taskID)
	} else {
		_ = s.taskStore.UpdateTaskError(taskID, "Файл не найден в кеше для данного хеша")
		slog.Info("Промах кеша для хеша", "hash", req.Hash, "task_id", taskID)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id":       task.ID,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
		"created_at":    task.CreatedAt.Format(time.RFC3339),
		"updated_at":    task.UpdatedAt.Format(time.RFC3339),
	})
}

// handleTaskResult возвращает страницу предсказаний вместе со сводкой и выводами.
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	page, pageSize, err := parsePagination(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report := task.Result
	totalItems := len(report.Predictions)
	// Номер страницы сравнивается до умножения, чтобы огромный page не переполнил int.
	startIndex := totalItems
	if page-1 < (totalItems+pageSize-1)/pageSize {
		startIndex = (page - 1) * pageSize
	}
	endIndex := startIndex + pageSize
	if endIndex > totalItems {
		endIndex = totalItems
	}

	data := make([]domain.MLFeature, endIndex-startIndex)
	copy(data, report.Predictions[startIndex:endIndex])

	writeJSON(w, http.StatusOK, ResultResponse{
		TaskID:      task.ID,
		ContentHash: report.ContentHash,
		Pagination: Pagination{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  totalItems,
			TotalPages:  (totalItems + pageSize - 1) / pageSize, // Округление вверх
		},
		Data:     data,
		Summary:  report.Summary,
		Insights: report.Insights,
		Ranking:  report.Ranking,
	})
}

// handleTaskReport отдает отчет завершенной задачи в виде книги Excel.
func (s *Server) handleTaskReport(w http.ResponseWriter, r *http.Request) {
	task, ok := s.completedTask(w, r)
	if !ok {
		return
	}

	data, err := s.excel.Render(task.Result)
	if err != nil {
		slog.Error("Не удалось сформировать Excel", "task_id", task.ID, "error", err)
		http.Error(w, "Не удалось сформировать отчет", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exporter.ExcelContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="chat_report_%s.xlsx"`, task.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) lookupTask(w http.ResponseWriter, r *http.Request) (*Task, bool) {
	task, err := s.taskStore.GetTask(chi.URLParam(r, "taskID"))
	if err != nil {
		http.Error(w, "Задача не найдена", http.StatusNotFound)
		return nil, false
	}
	return task, true
}

func (s *Server) completedTask(w http.ResponseWriter, r *http.Request) (*Task, bool) {
	task, ok := s.lookupTask(w, r)
	if !ok {
		return nil, false
	}
	if task.Status != TaskStatusCompleted || task.Result == nil {
		http.Error(w, "Задача не завершена", http.StatusBadRequest)
		return nil, false
	}
	return task, true
}

// parsePagination разбирает page и page_size, по умолчанию 1 и 50 соответственно.
func parsePagination(q url.Values) (int, int, error) {
	page, pageSize := 1, defaultPageSize

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("некорректный параметр page: %q", v)
		}
		page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			return 0, 0, fmt.Errorf("некорректный параметр page_size: %q (1-%d)", v, maxPageSize)
		}
		pageSize = n
	}
	return page, pageSize, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Не удалось записать ответ", "error", err)
	}
}
