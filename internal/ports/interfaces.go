package ports

import (
	"context"
	"whatsapp-chat-analyzer/internal/domain"
)

// DataSource определяет интерфейс для получения исходного текста экспорта.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// LineMatcher распознает одну физическую строку экспорта.
type LineMatcher interface {
	// Match возвращает сообщение и true, если строка подошла под один из шаблонов.
	Match(line string) (domain.ParsedMessage, bool)
}

// MessageClassifier определяет, является ли сообщение системным, и считает признаки.
type MessageClassifier interface {
	// Classify возвращает классифицированное сообщение и false, если сообщение
	// системное и должно быть отброшено.
	Classify(msg domain.ParsedMessage) (domain.ClassifiedMessage, bool)
}

// Parser преобразует текст экспорта в последовательность классифицированных сообщений.
type Parser interface {
	Parse(ctx context.Context, data []byte) ([]domain.ClassifiedMessage, error)
}

// Aggregator сворачивает сообщения в статистику по авторам.
type Aggregator interface {
	Aggregate(ctx context.Context, messages []domain.ClassifiedMessage) *domain.ChatAggregate
}

// Scorer вычисляет оценку активности и предсказание для каждого автора.
type Scorer interface {
	Score(ctx context.Context, aggregate *domain.ChatAggregate) []domain.MLFeature
}

// InsightGenerator формирует текстовые выводы по результатам оценки.
type InsightGenerator interface {
	Generate(ctx context.Context, features []domain.MLFeature) []string
}

// Ranker строит рейтинг авторов и сводку по чату.
type Ranker interface {
	Rank(aggregate *domain.ChatAggregate) []domain.RankedUser
	Summarize(aggregate *domain.ChatAggregate) domain.ChatSummary
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает готовый отчет и выводит его.
	Export(report *domain.AnalysisReport) error
}

// Checkpoint — именованная точка конвейера, в которой вызывается наблюдатель.
type Checkpoint string

const (
	CheckpointLinesSplit Checkpoint = "lines_split"
	CheckpointParsed     Checkpoint = "parsed"
	CheckpointAggregated Checkpoint = "aggregated"
	CheckpointScored     Checkpoint = "scored"
	CheckpointInsights   Checkpoint = "insights"
)

// PipelineObserver получает уведомления о прохождении контрольных точек.
// Наблюдатель не должен влиять на результат.
type PipelineObserver interface {
	OnCheckpoint(ctx context.Context, checkpoint Checkpoint, fields map[string]any)
}

// NopObserver игнорирует все уведомления.
type NopObserver struct{}

// OnCheckpoint реализует PipelineObserver.
func (NopObserver) OnCheckpoint(context.Context, Checkpoint, map[string]any) {}

// ObserverFunc позволяет использовать функцию как PipelineObserver.
type ObserverFunc func(ctx context.Context, checkpoint Checkpoint, fields map[string]any)

// OnCheckpoint реализует PipelineObserver.
func (f ObserverFunc) OnCheckpoint(ctx context.Context, checkpoint Checkpoint, fields map[string]any) {
	f(ctx, checkpoint, fields)
}
