// Package ttlmap содержит потокобезопасную map, записи которой живут
// ограниченное время. Просроченные записи не видны читателям сразу,
// а физически удаляются при Sweep.
package ttlmap

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Map хранит значения V по ключу K до истечения срока жизни.
type Map[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	now   func() time.Time
}

// New создает пустую Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		items: make(map[K]entry[V]),
		now:   time.Now,
	}
}

// Set сохраняет значение на ttl, заменяя предыдущее.
func (m *Map[K, V]) Set(key K, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = entry[V]{value: value, expiresAt: m.now().Add(ttl)}
}

// Get возвращает значение, если оно есть и не просрочено.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[key]
	if !ok || m.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Update изменяет живое значение под блокировкой записи. Срок жизни не продлевается.
func (m *Map[K, V]) Update(key K, fn func(*V)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || m.now().After(e.expiresAt) {
		return false
	}
	fn(&e.value)
	m.items[key] = e
	return true
}

// Delete удаляет запись.
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// Len возвращает число записей, включая еще не вычищенные просроченные.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep удаляет просроченные записи и возвращает их количество.
func (m *Map[K, V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.items {
		if now.After(e.expiresAt) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

// SweepEvery вызывает Sweep с заданным интервалом до отмены ctx.
// onSweep, если задан, получает число удаленных записей.
func (m *Map[K, V]) SweepEvery(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); onSweep != nil {
					onSweep(n)
				}
			}
		}
	}()
}
