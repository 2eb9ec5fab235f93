package source

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrNoPath возвращается, если путь к файлу не указан.
	ErrNoPath = errors.New("file path is not set")
	// ErrNoData возвращается, если данные в памяти не установлены.
	ErrNoData = errors.New("data not set")
	// ErrNotText возвращается для содержимого, не являющегося текстом UTF-8.
	ErrNotText = errors.New("input is not valid UTF-8 text")
)

// validateText проверяет, что данные можно разбирать как текст экспорта.
func validateText(data []byte) error {
	if !utf8.Valid(data) {
		return ErrNotText
	}
	for _, b := range data {
		// NUL-байты встречаются в бинарных файлах, но не в экспортах чатов.
		if b == 0 {
			return fmt.Errorf("%w: contains NUL bytes", ErrNotText)
		}
	}
	return nil
}
