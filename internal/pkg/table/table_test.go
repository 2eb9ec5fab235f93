package table

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  []string
	}{
		{"fits", "hello", 10, []string{"hello"}},
		{"zero width", "hello world", 0, []string{"hello world"}},
		{"word boundary", "hello big world", 9, []string{"hello big", "world"}},
		{"long word is split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"wide runes", "小明小明", 4, []string{"小明", "小明"}},
		{"only spaces", "      ", 2, []string{"  ", "  ", "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.input, tt.width))
		})
	}
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "   ", Padding("ab", 5))
	assert.Equal(t, "", Padding("abcdef", 5))
	// CJK получает дополнительный пробел
	assert.Equal(t, "  ", Padding("小明", 5))
}

func TestTable(t *testing.T) {
	t.Run("рисует заголовок, разделитель и строки", func(t *testing.T) {
		tb := New(Column{Title: "Author", Width: 8}, Column{Title: "Msgs", Width: 4})
		tb.AddRow("Alice", "12")
		tb.AddRow("Bob")

		want := "| Author   | Msgs |\n" +
			"|----------|------|\n" +
			"| Alice    | 12   |\n" +
			"| Bob      |      |\n"
		assert.Equal(t, want, tb.String())
		assert.Equal(t, 2, tb.Len())
	})

	t.Run("длинные значения переносятся", func(t *testing.T) {
		tb := New(Column{Title: "Insight", Width: 10})
		tb.AddRow("some long insight text")

		lines := strings.Split(strings.TrimSuffix(tb.String(), "\n"), "\n")
		require.Len(t, lines, 5)
		for _, line := range lines {
			assert.Equal(t, 14, runewidth.StringWidth(line))
		}
	})

	t.Run("переводы строк заменяются пробелами", func(t *testing.T) {
		tb := New(Column{Title: "A", Width: 20})
		tb.AddRow("line one\nline two")
		assert.Contains(t, tb.String(), "| line one line two   |")
	})
}
