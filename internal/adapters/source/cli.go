package source

import (
	"fmt"
	"os"
	"whatsapp-chat-analyzer/internal/ports"
)

// CliSource реализует интерфейс DataSource для чтения экспорта из файла,
// указанного в командной строке.
type CliSource struct {
	filePath string
}

// NewCliSource создает новый экземпляр CliSource.
func NewCliSource(filePath string) ports.DataSource {
	return &CliSource{filePath: filePath}
}

// Fetch читает файл по указанному пути и проверяет, что это текст.
func (s *CliSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, ErrNoPath
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	if err := validateText(data); err != nil {
		return nil, fmt.Errorf("file %s: %w", s.filePath, err)
	}

	return data, nil
}
