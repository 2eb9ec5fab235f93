// Package cache хранит готовые отчеты по SHA-256 содержимого экспорта,
// чтобы повторная загрузка того же файла не запускала анализ заново.
package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/ttlmap"
)

// Stats — счетчики обращений к кэшу.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// CacheStore хранит отчеты с ограниченным сроком жизни.
type CacheStore struct {
	reports *ttlmap.Map[string, *domain.AnalysisReport]
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewCacheStore() *CacheStore {
	return &CacheStore{reports: ttlmap.New[string, *domain.AnalysisReport]()}
}

// Get возвращает отчет по хешу, если он есть и не просрочен.
func (cs *CacheStore) Get(hash string) (*domain.AnalysisReport, bool) {
	report, ok := cs.reports.Get(hash)
	if ok {
		cs.hits.Add(1)
	} else {
		cs.misses.Add(1)
	}
	return report, ok
}

// Put кэширует отчет на ttl.
func (cs *CacheStore) Put(hash string, report *domain.AnalysisReport, ttl time.Duration) {
	cs.reports.Set(hash, report, ttl)
}

// Len возвращает количество элементов, включая еще не удаленные просроченные.
func (cs *CacheStore) Len() int {
	return cs.reports.Len()
}

func (cs *CacheStore) Stats() Stats {
	return Stats{
		Hits:    cs.hits.Load(),
		Misses:  cs.misses.Load(),
		Entries: cs.reports.Len(),
	}
}

// CleanupExpired удаляет просроченные отчеты.
func (cs *CacheStore) CleanupExpired() int {
	return cs.reports.Sweep()
}

// StartCleanupTicker периодически вычищает кэш до отмены ctx.
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	cs.reports.SweepEvery(ctx, interval, func(removed int) {
		if removed > 0 {
			slog.Debug("Очистка кеша", "removed", removed, "left", cs.reports.Len())
		}
	})
}
