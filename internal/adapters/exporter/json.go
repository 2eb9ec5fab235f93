package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"whatsapp-chat-analyzer/internal/domain"
	"whatsapp-chat-analyzer/internal/ports"
)

// JSONExporter выводит отчет в формате JSON с отступами.
type JSONExporter struct {
	w io.Writer
}

// NewJSONExporter создает новый экземпляр JSONExporter. nil означает os.Stdout.
func NewJSONExporter(w io.Writer) ports.Exporter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONExporter{w: w}
}

// Export сериализует отчет целиком.
func (e *JSONExporter) Export(report *domain.AnalysisReport) error {
	if report == nil {
		report = &domain.AnalysisReport{Aggregate: domain.NewChatAggregate()}
	}
	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
