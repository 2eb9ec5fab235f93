package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/core/services"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = "1/1/24, 10:00 AM - Alice: Hello there\n" +
	"1/1/24, 10:01 AM - Bob: check www.example.com 😀\n" +
	"[1/2/24, 9:15:00 PM] Alice: <Media omitted>\n" +
	"15/1/24, 21:30 - Carol: Добрый вечер\n" +
	"1/1/24, 10:02 AM - You added Dave\n" +
	"continuation of a multi-line message\n"

type mockParser struct{ mock.Mock }

func (m *mockParser) Parse(ctx context.Context, data []byte) ([]domain.ClassifiedMessage, error) {
	args := m.Called(ctx, data)
	if res := args.Get(0); res != nil {
		return res.([]domain.ClassifiedMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

func newUseCase(cacheStore *cache.CacheStore) *AnalyzeChatUseCase {
	return NewDefaultAnalyzeChatUseCase(domain.DefaultScoringPolicy(), nil, cacheStore, time.Minute)
}

func newUseCaseWithParser(p ports.Parser, cacheStore *cache.CacheStore) *AnalyzeChatUseCase {
	policy := domain.DefaultScoringPolicy()
	return NewAnalyzeChatUseCase(
		p,
		services.NewAggregationService(nil),
		services.NewScoringService(policy, nil),
		services.NewInsightService(nil),
		services.NewRankingService(policy),
		cacheStore,
		time.Minute,
	)
}

func TestAnalyzeChatUseCase_Pipeline(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(nil)

	report, err := uc.Analyze(ctx, []byte(sampleTranscript))
	require.NoError(t, err)

	agg := report.Aggregate
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, agg.Authors())
	assert.Equal(t, 4, agg.TotalMessages)
	// Диапазон сравнивается как строки: "15/1/24" > "1/2/24".
	assert.Equal(t, domain.DateRange{Start: "1/1/24", End: "15/1/24"}, agg.DateRange)

	sum := 0
	for _, u := range agg.Users {
		sum += u.Stats.MessageCount
		assert.InDelta(t, float64(u.Stats.TotalLength)/float64(u.Stats.MessageCount), u.Stats.AvgMessageLength, 1e-9)
	}
	assert.Equal(t, agg.TotalMessages, sum)

	require.Len(t, report.Predictions, 3)
	assert.Equal(t, "Alice", report.Predictions[0].Author)
	assert.InDelta(t, 1.0, report.Predictions[0].ActivityScore, 1e-9)
	assert.Equal(t, "Bob", report.Predictions[1].Author)
	assert.InDelta(t, 0.8, report.Predictions[1].ActivityScore, 1e-9)
	assert.Equal(t, "Carol", report.Predictions[2].Author)
	assert.Equal(t, 1, report.ActiveCount())
	for _, p := range report.Predictions {
		assert.GreaterOrEqual(t, p.Confidence, 0.5)
		assert.LessOrEqual(t, p.Confidence, 0.95)
	}

	require.Len(t, report.Insights, 4)
	assert.Equal(t, "1 out of 3 users (33%) are predicted to be highly active members.", report.Insights[0])
	assert.Equal(t, "The most active user has 2 messages, which is 2x the average.", report.Insights[1])

	assert.Equal(t, domain.ChatSummary{
		TotalAuthors:       3,
		TotalMessages:      4,
		TotalEmojis:        1,
		TotalMedia:         1,
		TotalLinks:         1,
		AvgMessagesPerUser: 1,
		MostActiveUser:     "Alice",
		DateRange:          agg.DateRange,
	}, report.Summary)

	require.Len(t, report.Ranking, 3)
	assert.Equal(t, "Alice", report.Ranking[0].Author)
	assert.Equal(t, "Chat King/Queen", report.Ranking[0].Badge)
	assert.Equal(t, "Bob", report.Ranking[1].Author)
	assert.Equal(t, "Carol", report.Ranking[2].Author)

	assert.Equal(t, cache.CalculateHash([]byte(sampleTranscript)), report.ContentHash)
}

func TestAnalyzeChatUseCase_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("одно сообщение", func(t *testing.T) {
		report, err := newUseCase(nil).Analyze(ctx, []byte("1/1/24, 10:00 AM - Alice: Hello there"))
		require.NoError(t, err)

		stats, ok := report.Aggregate.Lookup("Alice")
		require.True(t, ok)
		assert.Equal(t, domain.UserStats{
			MessageCount:     1,
			TotalLength:      11,
			AvgMessageLength: 11,
		}, stats)
		assert.Equal(t, domain.PredictionActive, report.Predictions[0].Prediction)
		assert.InDelta(t, 0.95, report.Predictions[0].Confidence, 1e-9)
	})

	t.Run("ссылка и эмодзи", func(t *testing.T) {
		report, err := newUseCase(nil).Analyze(ctx, []byte("1/1/24, 10:00 AM - Alice: check www.example.com 😀"))
		require.NoError(t, err)

		stats, ok := report.Aggregate.Lookup("Alice")
		require.True(t, ok)
		assert.Equal(t, 1, stats.LinkCount)
		assert.Equal(t, 1, stats.EmojiCount)
	})

	t.Run("только системное сообщение", func(t *testing.T) {
		report, err := newUseCase(nil).Analyze(ctx, []byte("1/1/24, 10:00 AM - You added Bob"))
		require.NoError(t, err)

		assert.Equal(t, 0, report.Aggregate.Len())
		assert.Equal(t, 0, report.Aggregate.TotalMessages)
		assert.Equal(t, domain.DateRange{Start: domain.UnknownDate, End: domain.UnknownDate}, report.Aggregate.DateRange)
		assert.Empty(t, report.Predictions)
		assert.Equal(t, "0 out of 0 users (0%) are predicted to be highly active members.", report.Insights[0])
	})

	t.Run("пустой ввод", func(t *testing.T) {
		report, err := newUseCase(nil).Analyze(ctx, []byte{})
		require.NoError(t, err)
		assert.Equal(t, 0, report.Aggregate.Len())
	})

	t.Run("доля активных около 0.3", func(t *testing.T) {
		var b strings.Builder
		for i := 1; i <= 10; i++ {
			for j := 0; j < i; j++ {
				fmt.Fprintf(&b, "1/1/24, 10:00 AM - User%02d: message %d\n", i, j)
			}
		}
		report, err := newUseCase(nil).Analyze(ctx, []byte(b.String()))
		require.NoError(t, err)

		require.Len(t, report.Predictions, 10)
		// Порог берется по индексу floor(0.3*10)=3, включительно.
		assert.Equal(t, 4, report.ActiveCount())
	})
}

func TestAnalyzeChatUseCase_Deterministic(t *testing.T) {
	ctx := context.Background()

	first, err := newUseCase(nil).Analyze(ctx, []byte(sampleTranscript))
	require.NoError(t, err)
	second, err := newUseCase(nil).Analyze(ctx, []byte(sampleTranscript))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnalyzeChatUseCase_Cache(t *testing.T) {
	ctx := context.Background()
	data := []byte("1/1/24, 10:00 AM - Alice: Hello there")
	messages := []domain.ClassifiedMessage{{
		ParsedMessage: domain.ParsedMessage{DateText: "1/1/24", Author: "Alice", Body: "Hello there"},
		Length:        11,
	}}

	t.Run("повторный анализ берется из кеша", func(t *testing.T) {
		p := new(mockParser)
		p.On("Parse", mock.Anything, data).Return(messages, nil).Once()
		cacheStore := cache.NewCacheStore()
		uc := newUseCaseWithParser(p, cacheStore)

		first, err := uc.Analyze(ctx, data)
		require.NoError(t, err)
		second, err := uc.Analyze(ctx, data)
		require.NoError(t, err)

		assert.Same(t, first, second)
		p.AssertExpectations(t)

		cached, found := uc.Cached(cache.CalculateHash(data))
		require.True(t, found)
		assert.Same(t, first, cached)
	})

	t.Run("без хранилища кеш не используется", func(t *testing.T) {
		p := new(mockParser)
		p.On("Parse", mock.Anything, data).Return(messages, nil).Twice()
		uc := newUseCaseWithParser(p, nil)

		_, err := uc.Analyze(ctx, data)
		require.NoError(t, err)
		_, err = uc.Analyze(ctx, data)
		require.NoError(t, err)

		p.AssertExpectations(t)
		_, found := uc.Cached(cache.CalculateHash(data))
		assert.False(t, found)
	})

	t.Run("ошибка разбора не кешируется", func(t *testing.T) {
		p := new(mockParser)
		parseErr := errors.New("boom")
		p.On("Parse", mock.Anything, data).Return(nil, parseErr).Once()
		cacheStore := cache.NewCacheStore()
		uc := newUseCaseWithParser(p, cacheStore)

		report, err := uc.Analyze(ctx, data)
		assert.ErrorIs(t, err, parseErr)
		assert.Nil(t, report)
		assert.Equal(t, 0, cacheStore.Len())
	})
}

func TestAnalyzeChatUseCase_Errors(t *testing.T) {
	t.Run("отмененный контекст", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newUseCase(nil).Analyze(ctx, []byte(sampleTranscript))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("не текстовые данные", func(t *testing.T) {
		_, err := newUseCase(nil).Analyze(context.Background(), []byte{0xff, 0xfe, 0x00})
		assert.ErrorIs(t, err, source.ErrNotText)
	})

	t.Run("анализ файла", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chat.txt")
		require.NoError(t, os.WriteFile(path, []byte(sampleTranscript), 0o600))

		report, err := newUseCase(nil).AnalyzeFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Aggregate.Len())
	})

	t.Run("файл не найден", func(t *testing.T) {
		_, err := newUseCase(nil).AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("пустой путь", func(t *testing.T) {
		_, err := newUseCase(nil).AnalyzeFile(context.Background(), "")
		assert.ErrorIs(t, err, source.ErrNoPath)
	})
}
