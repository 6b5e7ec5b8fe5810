package prompt

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard receives rendered prompts.
type Clipboard interface {
	WriteAll(text string) error
	ReadAll() (string, error)
}

// SystemClipboard uses the desktop clipboard (xclip, xsel, wl-copy,
// pbcopy or the Windows API).
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }
func (SystemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }

// Available reports whether a system clipboard backend was found.
func (SystemClipboard) Available() bool { return !clipboard.Unsupported }

// MemoryClipboard is an in-process clipboard for headless use.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}
