package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"whatsapp-chat-analyzer/internal/adapters/parser"
	"whatsapp-chat-analyzer/internal/adapters/source"
	"whatsapp-chat-analyzer/internal/cache"
	"whatsapp-chat-analyzer/internal/core/services"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// AnalyzeChatUseCase инкапсулирует конвейер анализа экспорта чата:
// разбор, агрегация, оценка активности, выводы и рейтинг.
type AnalyzeChatUseCase struct {
	parser     ports.Parser
	aggregator ports.Aggregator
	scorer     ports.Scorer
	insights   ports.InsightGenerator
	ranker     ports.Ranker
	cacheStore *cache.CacheStore
	cacheTTL   time.Duration
}

// NewAnalyzeChatUseCase создает новый экземпляр AnalyzeChatUseCase.
// cacheStore может быть nil, тогда результаты не кэшируются.
func NewAnalyzeChatUseCase(
	parser ports.Parser,
	aggregator ports.Aggregator,
	scorer ports.Scorer,
	insights ports.InsightGenerator,
	ranker ports.Ranker,
	cacheStore *cache.CacheStore,
	cacheTTL time.Duration,
) *AnalyzeChatUseCase {
	return &AnalyzeChatUseCase{
		parser:     parser,
		aggregator: aggregator,
		scorer:     scorer,
		insights:   insights,
		ranker:     ranker,
		cacheStore: cacheStore,
		cacheTTL:   cacheTTL,
	}
}

// NewDefaultAnalyzeChatUseCase собирает конвейер из стандартных компонентов.
func NewDefaultAnalyzeChatUseCase(
	policy domain.ScoringPolicy,
	observer ports.PipelineObserver,
	cacheStore *cache.CacheStore,
	cacheTTL time.Duration,
) *AnalyzeChatUseCase {
	return NewAnalyzeChatUseCase(
		parser.NewTranscriptParser(parser.NewLineMatcher(), parser.NewClassifier(), parser.WithObserver(observer)),
		services.NewAggregationService(observer),
		services.NewScoringService(policy, observer),
		services.NewInsightService(observer),
		services.NewRankingService(policy),
		cacheStore,
		cacheTTL,
	)
}

// AnalyzeFile читает экспорт из файла и анализирует его.
func (uc *AnalyzeChatUseCase) AnalyzeFile(ctx context.Context, filePath string) (*domain.AnalysisReport, error) {
	slog.Info("Обработка файла", "path", filePath)

	data, err := source.NewCliSource(filePath).Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные: %w", err)
	}
	return uc.analyze(ctx, data)
}

// Analyze анализирует экспорт, переданный в памяти.
func (uc *AnalyzeChatUseCase) Analyze(ctx context.Context, data []byte) (*domain.AnalysisReport, error) {
	data, err := source.NewMemorySource(data).Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось извлечь данные: %w", err)
	}
	return uc.analyze(ctx, data)
}

// Cached возвращает ранее построенный отчет по хешу содержимого.
func (uc *AnalyzeChatUseCase) Cached(hash string) (*domain.AnalysisReport, bool) {
	if uc.cacheStore == nil {
		return nil, false
	}
	return uc.cacheStore.Get(hash)
}

func (uc *AnalyzeChatUseCase) analyze(ctx context.Context, data []byte) (*domain.AnalysisReport, error) {
	hash := cache.CalculateHash(data)

	if report, found := uc.Cached(hash); found {
		slog.Info("Попадание в кеш", "hash", hash)
		return report, nil
	}

	messages, err := uc.parser.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать экспорт: %w", err)
	}

	aggregate := uc.aggregator.Aggregate(ctx, messages)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Info("Разобран чат", "messages", aggregate.TotalMessages, "authors", aggregate.Len())

	predictions := uc.scorer.Score(ctx, aggregate)
	report := &domain.AnalysisReport{
		ContentHash: hash,
		Aggregate:   aggregate,
		Predictions: predictions,
		Insights:    uc.insights.Generate(ctx, predictions),
		Summary:     uc.ranker.Summarize(aggregate),
		Ranking:     uc.ranker.Rank(aggregate),
	}

	if uc.cacheStore != nil {
		uc.cacheStore.Put(hash, report, uc.cacheTTL)
		slog.Info("Результат кеширован", "hash", hash, "ttl", uc.cacheTTL.String())
	}

	slog.Info("Обработка успешно завершена", "authors", aggregate.Len(), "active", report.ActiveCount())
	return report, nil
}
