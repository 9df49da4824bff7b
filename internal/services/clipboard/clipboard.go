// Package clipboard copies rendered catalog output to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

const errorCopyFormat = "copying %d bytes to clipboard: %w"

// ErrClipboardUnavailable reports a system without a supported clipboard utility.
var ErrClipboardUnavailable = errors.New("no clipboard utility available")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	writeAll func(string) error
}

// NewService constructs a clipboard service backed by the system clipboard.
func NewService() *Service {
	return &Service{writeAll: writeSystemClipboard}
}

// Copy writes text to the clipboard.
func (service *Service) Copy(text string) error {
	writeAll := service.writeAll
	if writeAll == nil {
		writeAll = writeSystemClipboard
	}
	if copyError := writeAll(text); copyError != nil {
		return fmt.Errorf(errorCopyFormat, len(text), copyError)
	}
	return nil
}

func writeSystemClipboard(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)
