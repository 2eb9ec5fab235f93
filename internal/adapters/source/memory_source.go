package source

import (
	"whatsapp-chat-analyzer/internal/ports"
)

// MemorySource реализует интерфейс DataSource для чтения данных из памяти,
// например из загруженного через HTTP файла.
type MemorySource struct {
	data []byte
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(data []byte) ports.DataSource {
	return &MemorySource{data: data}
}

// Fetch возвращает копию данных из памяти.
func (s *MemorySource) Fetch() ([]byte, error) {
	if s.data == nil {
		return nil, ErrNoData
	}

	if err := validateText(s.data); err != nil {
		return nil, err
	}

	// Возвращаем копию данных, чтобы избежать изменений оригинальных данных
	dataCopy := make([]byte, len(s.data))
	copy(dataCopy, s.data)

	return dataCopy, nil
}
