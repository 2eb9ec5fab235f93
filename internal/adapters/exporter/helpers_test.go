package exporter

import (
	"whatsapp-chat-analyzer/internal/domain"
)

// sampleReport собирает небольшой отчет вручную.
func sampleReport() *domain.AnalysisReport {
	agg := domain.NewChatAggregate()
	agg.Upsert("Alice").AddMessage(11, 0, true, false)
	agg.Upsert("Alice").AddMessage(15, 0, false, false)
	agg.Upsert("小明").AddMessage(20, 1, false, true)
	agg.TotalMessages = 3
	agg.DateRange = domain.DateRange{Start: "1/1/24", End: "1/2/24"}

	alice, _ := agg.Lookup("Alice")
	ming, _ := agg.Lookup("小明")

	return &domain.AnalysisReport{
		ContentHash: "abc",
		Aggregate:   agg,
		Predictions: []domain.MLFeature{
			{Author: "Alice", MessageCount: 2, AvgMessageLength: 13, MediaCount: 1, ActivityScore: 1.0, Prediction: domain.PredictionActive, Confidence: 0.95},
			{Author: "小明", MessageCount: 1, AvgMessageLength: 20, EmojiCount: 1, LinkCount: 1, ActivityScore: 0.8, Prediction: domain.PredictionInactive, Confidence: 0.95},
		},
		Insights: []string{
			"1 out of 2 users (50%) are predicted to be highly active members.",
			"The most active user has 2 messages, which is 1x the average.",
		},
		Summary: domain.ChatSummary{
			TotalAuthors:       2,
			TotalMessages:      3,
			TotalEmojis:        1,
			TotalMedia:         1,
			TotalLinks:         1,
			AvgMessagesPerUser: 2,
			MostActiveUser:     "Alice",
			DateRange:          agg.DateRange,
		},
		Ranking: []domain.RankedUser{
			{Rank: 1, Author: "Alice", Badge: "Chat King/Queen", EngagementScore: 1.0, Stats: alice},
			{Rank: 2, Author: "小明", Badge: "Super Active", EngagementScore: 0.8, Stats: ming},
		},
	}
}
