package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCliSource(t *testing.T) {
	t.Run("NewCliSource создает корректный экземпляр", func(t *testing.T) {
		source := NewCliSource("chat.txt")
		assert.NotNil(t, source)
	})

	t.Run("Fetch возвращает ошибку для пустого пути к файлу", func(t *testing.T) {
		source := &CliSource{filePath: ""}

		data, err := source.Fetch()

		assert.ErrorIs(t, err, ErrNoPath)
		assert.Nil(t, data)
	})

	t.Run("Fetch возвращает ошибку для несуществующего файла", func(t *testing.T) {
		source := &CliSource{filePath: filepath.Join(t.TempDir(), "missing.txt")}

		data, err := source.Fetch()

		assert.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, data)
	})

	t.Run("Fetch возвращает данные для существующего файла", func(t *testing.T) {
		testData := []byte("1/1/24, 10:00 AM - Alice: Hello 😀\n")
		path := filepath.Join(t.TempDir(), "chat.txt")
		require.NoError(t, os.WriteFile(path, testData, 0o600))

		source := &CliSource{filePath: path}

		data, err := source.Fetch()

		require.NoError(t, err)
		assert.Equal(t, testData, data)
	})

	t.Run("Fetch отклоняет бинарный файл", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chat.zip")
		require.NoError(t, os.WriteFile(path, []byte{0x50, 0x4b, 0x03, 0x04, 0xff, 0xfe}, 0o600))

		source := &CliSource{filePath: path}

		data, err := source.Fetch()

		assert.ErrorIs(t, err, ErrNotText)
		assert.Nil(t, data)
	})
}
