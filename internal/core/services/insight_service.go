package services

import (
	"context"
	"fmt"
	"math"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// Пороги для выводов.
const (
	highEmojiThreshold     = 20
	frequentMediaThreshold = 5
	longMessageThreshold   = 100
)

// InsightServiceImpl реализует интерфейс InsightGenerator.
type InsightServiceImpl struct {
	observer ports.PipelineObserver
}

// NewInsightService создает новый экземпляр InsightServiceImpl.
func NewInsightService(observer ports.PipelineObserver) ports.InsightGenerator {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &InsightServiceImpl{observer: observer}
}

// Generate формирует фиксированный набор выводов. Ожидает признаки,
// отсортированные по убыванию оценки активности.
func (s *InsightServiceImpl) Generate(ctx context.Context, features []domain.MLFeature) []string {
	total := len(features)
	active, highEmoji, frequentMedia, totalMessages := 0, 0, 0, 0
	hasLongMessages := false
	for _, f := range features {
		if f.Prediction == domain.PredictionActive {
			active++
		}
		if f.EmojiCount > highEmojiThreshold {
			highEmoji++
		}
		if f.MediaCount > frequentMediaThreshold {
			frequentMedia++
		}
		if f.AvgMessageLength > longMessageThreshold {
			hasLongMessages = true
		}
		totalMessages += f.MessageCount
	}

	activePercent, topMessages, topRatio := 0.0, 0, 0.0
	if total > 0 {
		activePercent = roundHalfUp(float64(active) / float64(total) * 100)
		topMessages = features[0].MessageCount
		if avg := float64(totalMessages) / float64(total); avg > 0 {
			topRatio = roundHalfUp(float64(topMessages) / avg)
		}
	}

	insights := []string{
		fmt.Sprintf("%d out of %d users (%d%%) are predicted to be highly active members.", active, total, int(activePercent)),
		fmt.Sprintf("The most active user has %d messages, which is %dx the average.", topMessages, int(topRatio)),
		fmt.Sprintf("Users with high emoji usage (%d users) tend to be more engaged in conversations.", highEmoji),
		fmt.Sprintf("Media sharing is a strong indicator of active participation, with %d users being frequent sharers.", frequentMedia),
	}
	if hasLongMessages {
		insights = append(insights, "Some users prefer longer, detailed messages (avg >100 characters), indicating thoughtful communication styles.")
	}

	s.observer.OnCheckpoint(ctx, ports.CheckpointInsights, map[string]any{"count": len(insights)})
	return insights
}

// roundHalfUp округляет половины вверх (2.5 -> 3).
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
