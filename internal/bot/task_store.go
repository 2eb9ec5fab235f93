package bot

import (
	"sync"
	"time"
)

// activeTask — состояние обработки файла в одном чате.
type activeTask struct {
	taskID    string // пусто, пока файл скачивается и задача не создана
	startedAt time.Time
}

// TaskStore — потокобезопасное хранилище активных задач по chatID.
// В каждом чате одновременно обрабатывается не больше одного файла.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[int64]activeTask
}

// NewTaskStore создает новый экземпляр TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[int64]activeTask),
	}
}

// Reserve занимает чат под новую задачу. Возвращает false, если в чате
// уже есть активная задача.
func (s *TaskStore) Reserve(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.tasks[chatID]; busy {
		return false
	}
	s.tasks[chatID] = activeTask{startedAt: time.Now()}
	return true
}

// Bind связывает занятый чат с идентификатором задачи на сервере.
func (s *TaskStore) Bind(chatID int64, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tasks[chatID]
	if t.startedAt.IsZero() {
		t.startedAt = time.Now()
	}
	t.taskID = taskID
	s.tasks[chatID] = t
}

// Get возвращает taskID активной задачи чата. Второе значение false, если чат свободен.
func (s *TaskStore) Get(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[chatID]
	return t.taskID, ok
}

// Elapsed возвращает время с момента занятия чата.
func (s *TaskStore) Elapsed(chatID int64) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[chatID]
	if !ok {
		return 0, false
	}
	return time.Since(t.startedAt), true
}

// Delete освобождает чат.
func (s *TaskStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, chatID)
}
