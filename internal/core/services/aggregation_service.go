package services

import (
	"context"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// AggregationServiceImpl реализует интерфейс Aggregator.
type AggregationServiceImpl struct {
	observer ports.PipelineObserver
}

// NewAggregationService создает новый экземпляр AggregationServiceImpl.
func NewAggregationService(observer ports.PipelineObserver) ports.Aggregator {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &AggregationServiceImpl{observer: observer}
}

// Aggregate сворачивает сообщения в статистику по авторам в порядке строк файла.
// Каждое сообщение учитывается ровно один раз.
func (s *AggregationServiceImpl) Aggregate(ctx context.Context, messages []domain.ClassifiedMessage) *domain.ChatAggregate {
	aggregate := domain.NewChatAggregate()

	var minDate, maxDate string
	for i, msg := range messages {
		stats := aggregate.Upsert(msg.Author)
		stats.AddMessage(msg.Length, msg.EmojiCount, msg.IsMedia, msg.IsLink)
		aggregate.TotalMessages++

		// Диапазон дат сравнивается как строки, а не как даты.
		if i == 0 || msg.DateText < minDate {
			minDate = msg.DateText
		}
		if i == 0 || msg.DateText > maxDate {
			maxDate = msg.DateText
		}
	}

	if len(messages) > 0 {
		aggregate.DateRange = domain.DateRange{Start: orUnknown(minDate), End: orUnknown(maxDate)}
	}

	s.observer.OnCheckpoint(ctx, ports.CheckpointAggregated, map[string]any{
		"authors":        aggregate.Len(),
		"total_messages": aggregate.TotalMessages,
		"date_start":     aggregate.DateRange.Start,
		"date_end":       aggregate.DateRange.End,
	})
	return aggregate
}

func orUnknown(s string) string {
	if s == "" {
		return domain.UnknownDate
	}
	return s
}
