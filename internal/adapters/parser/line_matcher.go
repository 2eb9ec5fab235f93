package parser

import (
	"regexp"
	"strings"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// Классы символов повторяют поведение движка, в котором создавались экспорты:
// пробельные символы включают NBSP и узкий NBSP (U+202F), которые WhatsApp ставит
// перед AM/PM, а точка не совпадает с разделителями строк.
const (
	spaceClass = `[\t\n\x0B\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]`
	anyClass   = `[^\n\r\x{2028}\x{2029}]`
)

// Шаблоны в порядке приоритета.
var linePatterns = []string{
	// 12/31/23, 10:30 PM - Username: Message
	`^(\d{1,2}/\d{1,2}/\d{2,4}),\s+\d{1,2}:\d{2}\s[APMapm]{2}\s-\s(.*?):\s(.*)`,
	// [12/31/23, 10:30:45 PM] Username: Message
	`^\[(\d{1,2}/\d{1,2}/\d{2,4}),\s+\d{1,2}:\d{2}:\d{2}\s[APMapm]{2}\]\s(.*?):\s(.*)`,
	// 31/12/23, 22:30 - Username: Message
	`^(\d{1,2}/\d{1,2}/\d{2,4}),\s+\d{1,2}:\d{2}\s-\s(.*?):\s(.*)`,
}

// RegexLineMatcher реализует интерфейс LineMatcher на регулярных выражениях.
type RegexLineMatcher struct {
	patterns []*regexp.Regexp
}

// NewLineMatcher создает матчер со стандартным набором шаблонов экспорта WhatsApp.
func NewLineMatcher() ports.LineMatcher {
	return &RegexLineMatcher{patterns: compilePatterns(linePatterns)}
}

func compilePatterns(raw []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		p = strings.ReplaceAll(p, `\s`, spaceClass)
		p = strings.ReplaceAll(p, `.`, anyClass)
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Match пробует шаблоны по очереди и останавливается на первом совпадении.
// Строки без заголовка не присоединяются к предыдущему сообщению.
func (m *RegexLineMatcher) Match(line string) (domain.ParsedMessage, bool) {
	for _, re := range m.patterns {
		groups := re.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		return domain.ParsedMessage{
			DateText: groups[1],
			Author:   strings.TrimSpace(groups[2]),
			Body:     groups[3],
		}, true
	}
	return domain.ParsedMessage{}, false
}
