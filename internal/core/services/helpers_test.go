package services

import (
	"whatsapp-chat-analyzer/internal/domain"
)

// authorFixture описывает автора для построения тестового агрегата.
type authorFixture struct {
	name     string
	messages int
	emojis   int
	media    int
	links    int
}

// buildAggregate собирает агрегат в заданном порядке авторов.
func buildAggregate(fixtures ...authorFixture) *domain.ChatAggregate {
	a := domain.NewChatAggregate()
	for _, s := range fixtures {
		stats := a.Upsert(s.name)
		for i := 0; i < s.messages; i++ {
			stats.AddMessage(10, 0, i < s.media, i < s.links)
		}
		stats.EmojiCount = s.emojis
		a.TotalMessages += s.messages
	}
	return a
}

func findFeature(features []domain.MLFeature, author string) (domain.MLFeature, bool) {
	for _, f := range features {
		if f.Author == author {
			return f, true
		}
	}
	return domain.MLFeature{}, false
}
