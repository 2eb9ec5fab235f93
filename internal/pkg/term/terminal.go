// Package term определяет, куда выводится результат: в терминал или в файл/конвейер.
package term

import (
	"io"
	"os"

	"golang.org/x/term"
)

type fder interface {
	Fd() uintptr
}

// IsTerminal сообщает, подключен ли w к терминалу.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// StdoutIsTerminal сообщает, подключен ли os.Stdout к терминалу.
func StdoutIsTerminal() bool {
	return IsTerminal(os.Stdout)
}
