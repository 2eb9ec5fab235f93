// Package table рисует текстовые таблицы фиксированной ширины с учетом
// ширины символов в терминале (CJK, эмодзи).
package table

import (
	"io"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// Column описывает колонку таблицы. Width задается в ячейках терминала.
type Column struct {
	Title string
	Width int
}

// Table накапливает строки и выводит их в виде
//
//	| Author | Messages |
//	|--------|----------|
//	| Alice  | 12       |
type Table struct {
	columns []Column
	rows    [][]string
}

// New создает таблицу с заданными колонками.
func New(columns ...Column) *Table {
	return &Table{columns: columns}
}

// AddRow добавляет строку. Недостающие ячейки считаются пустыми, лишние отбрасываются.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len возвращает количество строк без заголовка.
func (t *Table) Len() int {
	return len(t.rows)
}

// String возвращает таблицу целиком.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

// Render выводит таблицу в w. Длинные значения переносятся по словам.
func (t *Table) Render(w io.Writer) error {
	var sb strings.Builder

	titles := make([]string, len(t.columns))
	for i, c := range t.columns {
		titles[i] = c.Title
	}
	t.writeLine(&sb, titles)

	sb.WriteString("|")
	for _, c := range t.columns {
		sb.WriteString(strings.Repeat("-", c.Width+2))
		sb.WriteString("|")
	}
	sb.WriteString("\n")

	for _, row := range t.rows {
		wrapped := make([][]string, len(row))
		maxLines := 1
		for i, cell := range row {
			cell = strings.ReplaceAll(strings.ToValidUTF8(cell, ""), "\n", " ")
			wrapped[i] = Wrap(cell, t.columns[i].Width)
			if len(wrapped[i]) > maxLines {
				maxLines = len(wrapped[i])
			}
		}

		for line := 0; line < maxLines; line++ {
			parts := make([]string, len(row))
			for i := range row {
				if line < len(wrapped[i]) {
					parts[i] = wrapped[i][line]
				}
			}
			t.writeLine(&sb, parts)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (t *Table) writeLine(sb *strings.Builder, parts []string) {
	for i, part := range parts {
		sb.WriteString("| ")
		sb.WriteString(part)
		sb.WriteString(Padding(part, t.columns[i].Width))
		sb.WriteString(" ")
	}
	sb.WriteString("|\n")
}

// Padding вычисляет отступ для строки с учетом поправки на CJK-символы.
func Padding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)

	// Некоторые клиенты рисуют CJK-символы шире, чем сообщает runewidth,
	// поэтому добавляем один пробел.
	hasCJK := false
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			hasCJK = true
			break
		}
	}

	if hasCJK && paddingNeeded >= 0 {
		paddingNeeded++
	}

	if paddingNeeded > 0 {
		return strings.Repeat(" ", paddingNeeded)
	}
	return ""
}

// Wrap переносит строку по границам слов так, чтобы каждая часть помещалась в width.
// Слово длиннее width разрывается посередине.
func Wrap(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return splitByWidth(s, width)
	}

	var lines []string
	var currentLine strings.Builder
	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		if wordWidth > width {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
			lines = append(lines, splitByWidth(word, width)...)
			continue
		}

		lineLen := runewidth.StringWidth(currentLine.String())
		if lineLen > 0 && lineLen+1+wordWidth > width {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
		}

		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}
	return lines
}

// splitByWidth режет строку на куски не шире width без учета слов.
func splitByWidth(s string, width int) []string {
	var lines []string
	runes := []rune(s)
	for len(runes) > 0 {
		i := 0
		currentWidth := 0
		for i < len(runes) {
			runeWidth := runewidth.RuneWidth(runes[i])
			if currentWidth+runeWidth > width {
				break
			}
			currentWidth += runeWidth
			i++
		}
		if i == 0 {
			// символ шире колонки
			i = 1
		}
		lines = append(lines, string(runes[:i]))
		runes = runes[i:]
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
