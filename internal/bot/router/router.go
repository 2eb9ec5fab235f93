// Package router распределяет задачи бота между несколькими серверами анализа
// и выводит из ротации серверы, не прошедшие проверку /health.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"whatsapp-chat-analyzer/internal/bot"
)

var (
	// ErrNoHealthyBackends возвращается, когда в пуле нет доступных серверов.
	ErrNoHealthyBackends = errors.New("no healthy backends available")
	// ErrUnknownTask возвращается для задачи, запущенной не через этот роутер.
	ErrUnknownTask = errors.New("task is not bound to any backend")
)

// Backend — сервер анализа, к которому обращается бот.
type Backend interface {
	bot.ServerAPI
	Health(ctx context.Context) error
	ID() string
}

// Strategy выбирает сервер для новой задачи.
type Strategy interface {
	Next(backends []Backend) (Backend, error)
}

// Option определяет функциональную опцию для конфигурации роутера.
type Option func(*Router)

// WithBackends задает пул серверов.
func WithBackends(backends ...Backend) Option {
	return func(r *Router) {
		r.backends = append(r.backends, backends...)
	}
}

// WithHealthCheckInterval задает интервал проверки недоступных серверов.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.healthCheckInterval = d
		}
	}
}

// WithStrategy задает стратегию выбора сервера.
func WithStrategy(s Strategy) Option {
	return func(r *Router) {
		if s != nil {
			r.strategy = s
		}
	}
}

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// Router реализует bot.ServerAPI поверх пула серверов. Задача всегда
// опрашивается на том сервере, где была создана.
type Router struct {
	mu        sync.RWMutex
	healthy   map[string]Backend
	unhealthy map[string]Backend
	tasks     map[string]Backend // map[taskID]backend
	strategy  Strategy
	log       *slog.Logger

	backends            []Backend
	healthCheckInterval time.Duration
	ticker              *time.Ticker
	done                chan struct{}
	wg                  sync.WaitGroup
}

var _ bot.ServerAPI = (*Router)(nil)

// NewRouter создает роутер и запускает фоновую проверку серверов.
func NewRouter(opts ...Option) (*Router, error) {
	r := &Router{
		healthy:             make(map[string]Backend),
		unhealthy:           make(map[string]Backend),
		tasks:               make(map[string]Backend),
		strategy:            NewRoundRobinStrategy(),
		healthCheckInterval: 30 * time.Second,
		done:                make(chan struct{}),
		log:                 slog.Default().With("component", "router"),
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.backends) == 0 {
		return nil, errors.New("no backends provided to router")
	}

	for _, b := range r.backends {
		r.healthy[b.ID()] = b
	}
	r.backends = nil

	r.ticker = time.NewTicker(r.healthCheckInterval)
	r.wg.Add(1)
	go r.healthCheckLoop()

	return r, nil
}

// Stop останавливает фоновую проверку работоспособности.
func (r *Router) Stop() {
	r.log.Info("stopping router...")
	r.ticker.Stop()
	close(r.done)
	r.wg.Wait()
	r.log.Info("router stopped")
}

// StartTask отправляет файл на следующий здоровый сервер и запоминает,
// где создана задача.
func (r *Router) StartTask(ctx context.Context, file bot.DocumentFile) (*bot.StartTaskResponse, error) {
	backend, err := r.next()
	if err != nil {
		r.log.ErrorContext(ctx, "Strategy failed to get next backend", "error", err)
		return nil, fmt.Errorf("strategy failed to get next backend: %w", err)
	}
	r.log.DebugContext(ctx, "Backend selected by strategy", "backend", backend.ID())

	resp, err := backend.StartTask(ctx, file)
	if err != nil {
		r.handleError(ctx, backend, "StartTask", err)
		return nil, err
	}

	r.mu.Lock()
	r.tasks[resp.TaskID] = backend
	r.mu.Unlock()
	return resp, nil
}

// GetTaskStatus запрашивает статус у сервера, создавшего задачу.
func (r *Router) GetTaskStatus(ctx context.Context, taskID string) (*bot.TaskStatusResponse, error) {
	backend, err := r.backendFor(taskID)
	if err != nil {
		return nil, err
	}
	resp, err := backend.GetTaskStatus(ctx, taskID)
	r.handleError(ctx, backend, "GetTaskStatus", err)
	return resp, err
}

// GetTaskResult запрашивает страницу результата у сервера, создавшего задачу.
func (r *Router) GetTaskResult(ctx context.Context, taskID string, page, pageSize int) (*bot.TaskResultResponse, error) {
	backend, err := r.backendFor(taskID)
	if err != nil {
		return nil, err
	}
	resp, err := backend.GetTaskResult(ctx, taskID, page, pageSize)
	r.handleError(ctx, backend, "GetTaskResult", err)
	return resp, err
}

// GetTaskReport скачивает Excel-отчет с сервера, создавшего задачу.
func (r *Router) GetTaskReport(ctx context.Context, taskID string) ([]byte, error) {
	backend, err := r.backendFor(taskID)
	if err != nil {
		return nil, err
	}
	resp, err := backend.GetTaskReport(ctx, taskID)
	r.handleError(ctx, backend, "GetTaskReport", err)
	return resp, err
}

// Release забывает привязку задачи к серверу.
func (r *Router) Release(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, taskID)
}

// HealthyCount возвращает количество серверов в ротации.
func (r *Router) HealthyCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.healthy)
}

func (r *Router) next() (Backend, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.healthy))
	for id := range r.healthy {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	backends := make([]Backend, 0, len(ids))
	for _, id := range ids {
		backends = append(backends, r.healthy[id])
	}
	strategy := r.strategy
	r.mu.RUnlock()

	return strategy.Next(backends)
}

func (r *Router) backendFor(taskID string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return backend, nil
}

// handleError при ошибке запускает внеочередную проверку сервера.
// Ответ сервера с кодом ошибки не считается сбоем сервера.
func (r *Router) handleError(ctx context.Context, backend Backend, op string, err error) {
	if err == nil {
		return
	}
	var statusErr *bot.StatusError
	if errors.As(err, &statusErr) {
		return
	}
	r.log.WarnContext(ctx, "backend call failed", "op", op, "backend", backend.ID(), "error", err)
	go r.forceHealthCheck(backend)
}

func (r *Router) healthCheckLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ticker.C:
			r.checkUnhealthyBackends()
		case <-r.done:
			r.log.Info("Health check loop is stopping.")
			return
		}
	}
}

// checkUnhealthyBackends возвращает в ротацию восстановившиеся серверы.
func (r *Router) checkUnhealthyBackends() {
	r.mu.RLock()
	toCheck := make([]Backend, 0, len(r.unhealthy))
	for _, b := range r.unhealthy {
		toCheck = append(toCheck, b)
	}
	r.mu.RUnlock()

	for _, b := range toCheck {
		ctx, cancel := context.WithTimeout(context.Background(), r.healthCheckInterval)
		err := b.Health(ctx)
		cancel()
		if err == nil {
			r.setHealthy(b.ID())
		} else {
			r.log.Debug("Backend remains unhealthy", "backend", b.ID(), "reason", err)
		}
	}
}

func (r *Router) forceHealthCheck(b Backend) {
	ctx, cancel := context.WithTimeout(context.Background(), r.healthCheckInterval)
	defer cancel()
	if err := b.Health(ctx); err != nil {
		r.log.Warn("Сервер не прошел проверку после ошибки, выводим из ротации", "backend", b.ID(), "reason", err)
		r.setUnhealthy(b.ID())
	}
}

func (r *Router) setUnhealthy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.healthy[id]
	if !ok {
		return
	}
	delete(r.healthy, id)
	r.unhealthy[id] = b

	r.log.Warn("Backend moved to unhealthy pool", "backend", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}

func (r *Router) setHealthy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.unhealthy[id]
	if !ok {
		return
	}
	delete(r.unhealthy, id)
	r.healthy[id] = b

	r.log.Info("Backend moved back to healthy pool", "backend", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}
