package services

import (
	"sort"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// RankingServiceImpl реализует интерфейс Ranker.
type RankingServiceImpl struct {
	policy domain.ScoringPolicy
}

// NewRankingService создает новый экземпляр RankingServiceImpl.
func NewRankingService(policy domain.ScoringPolicy) ports.Ranker {
	return &RankingServiceImpl{policy: policy}
}

// Rank упорядочивает авторов по количеству сообщений. Авторы с одинаковым
// количеством остаются в порядке первого появления.
func (s *RankingServiceImpl) Rank(aggregate *domain.ChatAggregate) []domain.RankedUser {
	ranked := make([]domain.RankedUser, 0, aggregate.Len())
	for _, u := range aggregate.Users {
		ranked = append(ranked, domain.RankedUser{
			Author:          u.Author,
			EngagementScore: s.policy.Score(u.Stats),
			Stats:           u.Stats,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Stats.MessageCount > ranked[j].Stats.MessageCount
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Badge = badgeFor(i)
	}
	return ranked
}

// Summarize считает общие показатели чата.
func (s *RankingServiceImpl) Summarize(aggregate *domain.ChatAggregate) domain.ChatSummary {
	summary := domain.ChatSummary{
		TotalAuthors:  aggregate.Len(),
		TotalMessages: aggregate.TotalMessages,
		DateRange:     aggregate.DateRange,
	}

	best := -1
	for _, u := range aggregate.Users {
		summary.TotalEmojis += u.Stats.EmojiCount
		summary.TotalMedia += u.Stats.MediaCount
		summary.TotalLinks += u.Stats.LinkCount
		if u.Stats.MessageCount > best {
			best = u.Stats.MessageCount
			summary.MostActiveUser = u.Author
		}
	}
	if summary.TotalAuthors > 0 {
		summary.AvgMessagesPerUser = int(roundHalfUp(float64(summary.TotalMessages) / float64(summary.TotalAuthors)))
	}
	return summary
}

func badgeFor(index int) string {
	switch {
	case index == 0:
		return "Chat King/Queen"
	case index == 1:
		return "Super Active"
	case index == 2:
		return "Very Active"
	case index < 5:
		return "Active Member"
	default:
		return "Member"
	}
}
