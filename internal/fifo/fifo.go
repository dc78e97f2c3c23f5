// Package fifo implements the legacy named-pipe event sink described in
// spec.md §4.J: a best-effort text feed for tools that predate the IPC
// socket protocol.
package fifo

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/Danondso/rhkd/internal/events"
)

// Sink writes single-character-prefixed lines to a FIFO, creating it with
// mode 0644 if it does not already exist, and opened non-blocking so the
// daemon never stalls waiting for a reader to show up.
type Sink struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// fifoKinds are the only event kinds the legacy FIFO format carries, per
// spec.md §4.J's table; anything else is silently dropped by Publish.
var fifoKinds = map[events.Kind]bool{
	events.KindBeginChain: true,
	events.KindEndChain:   true,
	events.KindTimeout:    true,
	events.KindHotkey:     true,
	events.KindCommand:    true,
}

// Open creates (if absent) and opens the FIFO at path.
func Open(path string) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("fifo: empty path")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := syscall.Mkfifo(path, 0644); err != nil {
			return nil, fmt.Errorf("fifo: mkfifo %s: %w", path, err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0644)
	if err != nil {
		return nil, fmt.Errorf("fifo: open %s: %w", path, err)
	}
	return &Sink{path: path, file: f}, nil
}

// Publish implements events.Sink. Event kinds outside the FIFO's legacy
// vocabulary are dropped rather than erroring; a write failure (typically
// no reader attached) never closes the FIFO and never returns false, since
// the FIFO is a best-effort sink, not a subscriber that should be evicted.
func (s *Sink) Publish(e events.Event) bool {
	if !fifoKinds[e.Kind] {
		return true
	}
	line := append([]byte{e.Kind.Prefix()}, []byte(e.Text)...)
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.file.Write(line)
	return true
}

// Close releases the underlying file handle. It does not remove the FIFO
// from disk, matching the legacy sink's "leave it for the next daemon
// instance" behaviour.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
