package exporter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/pkg/table"
	"whatsapp-chat-analyzer/internal/ports"
)

// ConsoleExporter реализует интерфейс Exporter для вывода отчета в консоль.
type ConsoleExporter struct {
	w io.Writer
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter. nil означает os.Stdout.
func NewConsoleExporter(w io.Writer) ports.Exporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleExporter{w: w}
}

// Export выводит сводку, таблицу предсказаний и выводы.
func (e *ConsoleExporter) Export(report *domain.AnalysisReport) error {
	var sb strings.Builder
	sb.WriteString("--- WhatsApp Chat Analysis ---\n")

	if report == nil || len(report.Predictions) == 0 {
		sb.WriteString("No authors found.\n")
		_, err := io.WriteString(e.w, sb.String())
		return err
	}

	s := report.Summary
	fmt.Fprintf(&sb, "Authors: %d, Messages: %d, Active: %d\n", s.TotalAuthors, s.TotalMessages, report.ActiveCount())
	fmt.Fprintf(&sb, "Date range: %s - %s\n", s.DateRange.Start, s.DateRange.End)
	fmt.Fprintf(&sb, "Most active: %s, avg messages per user: %d\n", s.MostActiveUser, s.AvgMessagesPerUser)
	fmt.Fprintf(&sb, "Emojis: %d, Media: %d, Links: %d\n\n", s.TotalEmojis, s.TotalMedia, s.TotalLinks)

	sb.WriteString("Predictions:\n")
	t := table.New(
		table.Column{Title: "#", Width: 3},
		table.Column{Title: "Author", Width: 24},
		table.Column{Title: "Msgs", Width: 6},
		table.Column{Title: "Avg len", Width: 7},
		table.Column{Title: "Emoji", Width: 5},
		table.Column{Title: "Media", Width: 5},
		table.Column{Title: "Links", Width: 5},
		table.Column{Title: "Score", Width: 7},
		table.Column{Title: "Prediction", Width: 10},
		table.Column{Title: "Conf", Width: 4},
	)
	for i, p := range report.Predictions {
		t.AddRow(
			strconv.Itoa(i+1),
			p.Author,
			strconv.Itoa(p.MessageCount),
			formatFloat(p.AvgMessageLength, 1),
			strconv.Itoa(p.EmojiCount),
			strconv.Itoa(p.MediaCount),
			strconv.Itoa(p.LinkCount),
			formatFloat(p.ActivityScore, 2),
			string(p.Prediction),
			formatFloat(p.Confidence, 2),
		)
	}
	sb.WriteString(t.String())

	if len(report.Ranking) > 0 {
		sb.WriteString("\nRanking:\n")
		rt := table.New(
			table.Column{Title: "Rank", Width: 4},
			table.Column{Title: "Author", Width: 24},
			table.Column{Title: "Badge", Width: 15},
			table.Column{Title: "Msgs", Width: 6},
		)
		for _, r := range report.Ranking {
			rt.AddRow(strconv.Itoa(r.Rank), r.Author, r.Badge, strconv.Itoa(r.Stats.MessageCount))
		}
		sb.WriteString(rt.String())
	}

	sb.WriteString("\nInsights:\n")
	for _, insight := range report.Insights {
		fmt.Fprintf(&sb, "- %s\n", insight)
	}

	_, err := io.WriteString(e.w, sb.String())
	return err
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
