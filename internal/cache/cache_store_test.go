package cache

import (
	"context"
	"testing"
	"time"
	"whatsapp-chat-analyzer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFor(author string) *domain.AnalysisReport {
	aggregate := domain.NewChatAggregate()
	aggregate.Upsert(author).AddMessage(5, 0, false, false)
	aggregate.TotalMessages = 1
	return &domain.AnalysisReport{ContentHash: CalculateHash([]byte(author)), Aggregate: aggregate}
}

func TestCacheStore_GetPut(t *testing.T) {
	cs := NewCacheStore()
	report := reportFor("Alice")

	_, found := cs.Get(report.ContentHash)
	assert.False(t, found, "пустой кэш")

	cs.Put(report.ContentHash, report, time.Minute)
	got, found := cs.Get(report.ContentHash)
	require.True(t, found)
	assert.Same(t, report, got)

	stats := cs.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCacheStore_Expiry(t *testing.T) {
	cs := NewCacheStore()
	cs.Put("old", reportFor("Alice"), -time.Second)
	cs.Put("fresh", reportFor("Bob"), time.Minute)

	_, found := cs.Get("old")
	assert.False(t, found, "просроченный отчет не отдается")
	assert.Equal(t, 2, cs.Len())

	assert.Equal(t, 1, cs.CleanupExpired())
	assert.Equal(t, 1, cs.Len())
	_, found = cs.Get("fresh")
	assert.True(t, found)
}

func TestCacheStore_StartCleanupTicker(t *testing.T) {
	cs := NewCacheStore()
	cs.Put("old", reportFor("Alice"), 30*time.Millisecond)
	cs.Put("fresh", reportFor("Bob"), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cs.StartCleanupTicker(ctx, 50*time.Millisecond)

	assert.Eventually(t, func() bool { return cs.Len() == 1 }, 2*time.Second, 20*time.Millisecond)
}
