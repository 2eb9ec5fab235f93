package parser

import (
	"strings"
	"unicode/utf16"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

const encryptionNotice = "Messages and calls are end-to-end encrypted"

var mediaMarkers = []string{
	"<Media omitted>",
	"image omitted",
	"video omitted",
	"audio omitted",
	"document omitted",
}

var linkMarkers = []string{"http", "www.", ".com"}

// emojiRanges — диапазоны кодовых точек, засчитываемых как эмодзи.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F},
	{0x1F300, 0x1F5FF},
	{0x1F680, 0x1F6FF},
	{0x1F1E0, 0x1F1FF},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
}

// SubstringClassifier реализует MessageClassifier на простых проверках подстрок.
// Регистр и границы слов не учитываются.
type SubstringClassifier struct{}

// NewClassifier создает новый экземпляр SubstringClassifier.
func NewClassifier() ports.MessageClassifier {
	return &SubstringClassifier{}
}

// Classify отбрасывает системные сообщения и считает эмодзи, медиа и ссылки.
func (c *SubstringClassifier) Classify(msg domain.ParsedMessage) (domain.ClassifiedMessage, bool) {
	if IsSystemMessage(msg.Author, msg.Body) {
		return domain.ClassifiedMessage{}, false
	}
	return domain.ClassifiedMessage{
		ParsedMessage: msg,
		Length:        TextLength(msg.Body),
		EmojiCount:    CountEmojis(msg.Body),
		IsMedia:       containsAny(msg.Body, mediaMarkers),
		IsLink:        containsAny(msg.Body, linkMarkers),
	}, true
}

// IsSystemMessage определяет служебные уведомления о составе группы и шифровании.
func IsSystemMessage(author, body string) bool {
	return (strings.Contains(author, "You") && strings.Contains(author, "added")) ||
		strings.Contains(author, "left") ||
		strings.Contains(author, "changed") ||
		strings.Contains(body, encryptionNotice)
}

// CountEmojis считает кодовые точки, попадающие в диапазоны эмодзи.
func CountEmojis(s string) int {
	n := 0
	for _, r := range s {
		for _, rng := range emojiRanges {
			if r >= rng[0] && r <= rng[1] {
				n++
				break
			}
		}
	}
	return n
}

// TextLength возвращает длину текста в единицах UTF-16, как ее считает
// клиент, из которого сделан экспорт. Для ASCII совпадает с количеством байт.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
