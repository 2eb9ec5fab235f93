package parser

import (
	"testing"
	"whatsapp-chat-analyzer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSystemMessage(t *testing.T) {
	testCases := []struct {
		author string
		body   string
		want   bool
	}{
		{"You added Bob", "", true},
		{"You", "added Bob", false},
		{"you added Bob", "", false},
		{"Alice left", "", true},
		{"Cleft Palmer", "hi", true},
		{"Bob changed the group icon", "", true},
		{"Alice", "Messages and calls are end-to-end encrypted. Tap to learn more.", true},
		{"Alice", "hello", false},
	}

	for _, tc := range testCases {
		t.Run(tc.author+"/"+tc.body, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSystemMessage(tc.author, tc.body))
		})
	}
}

func TestCountEmojis(t *testing.T) {
	assert.Equal(t, 0, CountEmojis("hello"))
	assert.Equal(t, 1, CountEmojis("check www.example.com 😀"))
	assert.Equal(t, 2, CountEmojis("☀✂"))
	assert.Equal(t, 2, CountEmojis("🇺🇸"), "каждый региональный индикатор считается отдельно")
	assert.Equal(t, 1, CountEmojis("❤️"), "селектор варианта не считается")
	assert.Equal(t, 3, CountEmojis("🚀🌍😂"))
}

func TestTextLength(t *testing.T) {
	assert.Equal(t, 11, TextLength("Hello there"))
	assert.Equal(t, 2, TextLength("😀"))
	assert.Equal(t, 1, TextLength("é"))
	assert.Equal(t, 0, TextLength(""))
}

func TestSubstringClassifier(t *testing.T) {
	classifier := NewClassifier()

	t.Run("Системное сообщение отбрасывается", func(t *testing.T) {
		_, ok := classifier.Classify(domain.ParsedMessage{Author: "You added Bob"})
		assert.False(t, ok)
	})

	t.Run("Ссылка и эмодзи", func(t *testing.T) {
		msg, ok := classifier.Classify(domain.ParsedMessage{DateText: "1/1/24", Author: "Alice", Body: "check www.example.com 😀"})
		require.True(t, ok)
		assert.True(t, msg.IsLink)
		assert.False(t, msg.IsMedia)
		assert.Equal(t, 1, msg.EmojiCount)
		assert.Equal(t, 24, msg.Length)
	})

	t.Run("Медиа", func(t *testing.T) {
		for _, body := range []string{"<Media omitted>", "image omitted", "video omitted", "audio omitted", "document omitted"} {
			msg, ok := classifier.Classify(domain.ParsedMessage{Author: "Alice", Body: body})
			require.True(t, ok)
			assert.True(t, msg.IsMedia, body)
		}
		msg, _ := classifier.Classify(domain.ParsedMessage{Author: "Alice", Body: "IMAGE OMITTED"})
		assert.False(t, msg.IsMedia)
	})

	t.Run("Ссылки определяются по подстроке", func(t *testing.T) {
		for _, body := range []string{"computer.com", "xhttpx", "www.site", "https://go.dev"} {
			msg, _ := classifier.Classify(domain.ParsedMessage{Author: "Alice", Body: body})
			assert.True(t, msg.IsLink, body)
		}
		msg, _ := classifier.Classify(domain.ParsedMessage{Author: "Alice", Body: "plain text"})
		assert.False(t, msg.IsLink)
	})
}
