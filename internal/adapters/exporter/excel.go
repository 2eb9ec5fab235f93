package exporter

import (
	"fmt"
	"whatsapp-chat-analyzer/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Названия листов книги.
const (
	SheetSummary     = "Summary"
	SheetPredictions = "Predictions"
	SheetRanking     = "Ranking"
	SheetInsights    = "Insights"
)

// ExcelContentType — MIME-тип книги .xlsx.
const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExcelExporter сохраняет отчет в книгу Excel.
type ExcelExporter struct {
	path string
}

// NewExcelExporter создает экспортер, записывающий книгу в path.
func NewExcelExporter(path string) *ExcelExporter {
	return &ExcelExporter{path: path}
}

// Export записывает книгу в файл.
func (e *ExcelExporter) Export(report *domain.AnalysisReport) error {
	if e.path == "" {
		return fmt.Errorf("excel exporter: output path is not set")
	}

	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", e.path, err)
	}
	return nil
}

// Render возвращает содержимое книги в памяти.
func (e *ExcelExporter) Render(report *domain.AnalysisReport) ([]byte, error) {
	f, err := buildWorkbook(report)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func buildWorkbook(report *domain.AnalysisReport) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("excel exporter: report is nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetPredictions, SheetRanking, SheetInsights} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, *domain.AnalysisReport, int) error{
		writeSummary,
		writePredictions,
		writeRanking,
		writeInsights,
	}
	for _, step := range steps {
		if err := step(f, report, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to build workbook: %w", err)
		}
	}
	return f, nil
}

func writeSummary(f *excelize.File, report *domain.AnalysisReport, header int) error {
	s := report.Summary
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total authors", s.TotalAuthors},
		{"Total messages", s.TotalMessages},
		{"Active authors", report.ActiveCount()},
		{"Total emojis", s.TotalEmojis},
		{"Total media", s.TotalMedia},
		{"Total links", s.TotalLinks},
		{"Avg messages per user", s.AvgMessagesPerUser},
		{"Most active user", s.MostActiveUser},
		{"First date", s.DateRange.Start},
		{"Last date", s.DateRange.End},
	}
	if err := writeRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "B", 24); err != nil {
		return err
	}
	return f.SetRowStyle(SheetSummary, 1, 1, header)
}

func writePredictions(f *excelize.File, report *domain.AnalysisReport, header int) error {
	rows := [][]interface{}{{
		"Author", "Messages", "Avg length", "Emojis", "Media", "Links", "Score", "Prediction", "Confidence",
	}}
	for _, p := range report.Predictions {
		rows = append(rows, []interface{}{
			p.Author, p.MessageCount, p.AvgMessageLength, p.EmojiCount, p.MediaCount,
			p.LinkCount, p.ActivityScore, string(p.Prediction), p.Confidence,
		})
	}
	if err := writeRows(f, SheetPredictions, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetPredictions, "A", "A", 28); err != nil {
		return err
	}
	return f.SetRowStyle(SheetPredictions, 1, 1, header)
}

func writeRanking(f *excelize.File, report *domain.AnalysisReport, header int) error {
	rows := [][]interface{}{{"Rank", "Author", "Badge", "Messages", "Engagement score"}}
	for _, r := range report.Ranking {
		rows = append(rows, []interface{}{r.Rank, r.Author, r.Badge, r.Stats.MessageCount, r.EngagementScore})
	}
	if err := writeRows(f, SheetRanking, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetRanking, "B", "C", 24); err != nil {
		return err
	}
	return f.SetRowStyle(SheetRanking, 1, 1, header)
}

func writeInsights(f *excelize.File, report *domain.AnalysisReport, header int) error {
	rows := [][]interface{}{{"Insight"}}
	for _, insight := range report.Insights {
		rows = append(rows, []interface{}{insight})
	}
	if err := writeRows(f, SheetInsights, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetInsights, "A", "A", 100); err != nil {
		return err
	}
	return f.SetRowStyle(SheetInsights, 1, 1, header)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
