package services

import (
	"context"
	"testing"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(date, author, body string, length, emojis int, media, link bool) domain.ClassifiedMessage {
	return domain.ClassifiedMessage{
		ParsedMessage: domain.ParsedMessage{DateText: date, Author: author, Body: body},
		Length:        length,
		EmojiCount:    emojis,
		IsMedia:       media,
		IsLink:        link,
	}
}

func TestAggregationService(t *testing.T) {
	ctx := context.Background()

	t.Run("Одно сообщение", func(t *testing.T) {
		svc := NewAggregationService(nil)
		agg := svc.Aggregate(ctx, []domain.ClassifiedMessage{
			msg("1/1/24", "Alice", "Hello there", 11, 0, false, false),
		})

		require.Equal(t, 1, agg.Len())
		stats, ok := agg.Lookup("Alice")
		require.True(t, ok)
		assert.Equal(t, domain.UserStats{MessageCount: 1, TotalLength: 11, AvgMessageLength: 11}, stats)
		assert.Equal(t, 1, agg.TotalMessages)
		assert.Equal(t, domain.DateRange{Start: "1/1/24", End: "1/1/24"}, agg.DateRange)
	})

	t.Run("Сумма сообщений авторов равна общему количеству", func(t *testing.T) {
		svc := NewAggregationService(nil)
		agg := svc.Aggregate(ctx, []domain.ClassifiedMessage{
			msg("1/1/24", "Alice", "a", 1, 0, false, false),
			msg("1/1/24", "Bob", "bb", 2, 1, true, false),
			msg("1/2/24", "Alice", "ccc", 3, 0, false, true),
		})

		sum := 0
		for _, u := range agg.Users {
			sum += u.Stats.MessageCount
			assert.InDelta(t, float64(u.Stats.TotalLength)/float64(u.Stats.MessageCount), u.Stats.AvgMessageLength, 1e-9)
		}
		assert.Equal(t, agg.TotalMessages, sum)
		assert.Equal(t, 3, sum)
		assert.Equal(t, []string{"Alice", "Bob"}, agg.Authors())

		alice, _ := agg.Lookup("Alice")
		assert.Equal(t, 2, alice.MessageCount)
		assert.Equal(t, 4, alice.TotalLength)
		assert.Equal(t, 1, alice.LinkCount)
		assert.InDelta(t, 2.0, alice.AvgMessageLength, 1e-9)
	})

	t.Run("Диапазон дат лексикографический", func(t *testing.T) {
		svc := NewAggregationService(nil)
		agg := svc.Aggregate(ctx, []domain.ClassifiedMessage{
			msg("9/1/24", "Alice", "a", 1, 0, false, false),
			msg("10/1/24", "Alice", "a", 1, 0, false, false),
			msg("12/31/2023", "Bob", "a", 1, 0, false, false),
		})
		assert.Equal(t, "10/1/24", agg.DateRange.Start)
		assert.Equal(t, "9/1/24", agg.DateRange.End)
	})

	t.Run("Пустой ввод", func(t *testing.T) {
		svc := NewAggregationService(nil)
		agg := svc.Aggregate(ctx, nil)
		assert.Equal(t, 0, agg.Len())
		assert.Equal(t, 0, agg.TotalMessages)
		assert.Equal(t, domain.DateRange{Start: domain.UnknownDate, End: domain.UnknownDate}, agg.DateRange)
	})

	t.Run("Наблюдатель не влияет на результат", func(t *testing.T) {
		calls := 0
		observer := ports.ObserverFunc(func(_ context.Context, cp ports.Checkpoint, fields map[string]any) {
			calls++
			assert.Equal(t, ports.CheckpointAggregated, cp)
			fields["authors"] = 100
		})
		messages := []domain.ClassifiedMessage{msg("1/1/24", "Alice", "a", 1, 0, false, false)}

		withObserver := NewAggregationService(observer).Aggregate(ctx, messages)
		plain := NewAggregationService(nil).Aggregate(ctx, messages)

		assert.Equal(t, 1, calls)
		assert.Equal(t, plain, withObserver)
	})
}
