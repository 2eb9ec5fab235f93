package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/ttlmap"
)

// ErrTaskNotFound возвращается для неизвестного или удаленного по TTL идентификатора.
var ErrTaskNotFound = errors.New("task not found")

// TaskStatus — состояние фоновой задачи анализа.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal сообщает, что задача больше не изменится.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task — снимок задачи анализа. Result заполнен только для completed,
// ErrorMessage только для failed.
type Task struct {
	ID           string
	Status       TaskStatus
	Result       *domain.AnalysisReport
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStore держит задачи в памяти до истечения их TTL.
type TaskStore struct {
	tasks *ttlmap.Map[string, Task]
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: ttlmap.New[string, Task]()}
}

// CreateTask регистрирует задачу в состоянии pending.
func (ts *TaskStore) CreateTask(taskID string, ttl time.Duration) {
	now := time.Now()
	ts.tasks.Set(taskID, Task{
		ID:        taskID,
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, ttl)
}

func (ts *TaskStore) transition(taskID string, fn func(*Task)) error {
	ok := ts.tasks.Update(taskID, func(t *Task) {
		fn(t)
		t.UpdatedAt = time.Now()
	})
	if !ok {
		return fmt.Errorf("задача %s: %w", taskID, ErrTaskNotFound)
	}
	return nil
}

func (ts *TaskStore) UpdateTaskStatus(taskID string, status TaskStatus) error {
	return ts.transition(taskID, func(t *Task) { t.Status = status })
}

// UpdateTaskResult сохраняет отчет и завершает задачу.
func (ts *TaskStore) UpdateTaskResult(taskID string, result *domain.AnalysisReport) error {
	return ts.transition(taskID, func(t *Task) {
		t.Status = TaskStatusCompleted
		t.Result = result
	})
}

// UpdateTaskError помечает задачу как failed с текстом ошибки.
func (ts *TaskStore) UpdateTaskError(taskID string, errorMessage string) error {
	return ts.transition(taskID, func(t *Task) {
		t.Status = TaskStatusFailed
		t.ErrorMessage = errorMessage
	})
}

// GetTask возвращает копию задачи. Отчет общий: после завершения он не меняется.
func (ts *TaskStore) GetTask(taskID string) (*Task, error) {
	task, ok := ts.tasks.Get(taskID)
	if !ok {
		return nil, fmt.Errorf("задача %s: %w", taskID, ErrTaskNotFound)
	}
	return &task, nil
}

// CleanupExpired удаляет задачи с истекшим TTL.
func (ts *TaskStore) CleanupExpired() int {
	return ts.tasks.Sweep()
}

// StartCleanupTicker периодически удаляет просроченные задачи до отмены ctx.
func (ts *TaskStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ts.tasks.SweepEvery(ctx, interval, func(removed int) {
		if removed > 0 {
			slog.Debug("Удалены просроченные задачи", "removed", removed)
		}
	})
}
