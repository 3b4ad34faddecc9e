// Package logger bridges line-oriented output of child processes into slog.
package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
)

// Writer logs every complete line written to it as one slog record.
type Writer struct {
	mu    sync.Mutex
	log   *slog.Logger
	level slog.Level
	buf   bytes.Buffer
}

var _ io.Writer = (*Writer)(nil)

// NewWriter returns a Writer emitting at level through l.
func NewWriter(l *slog.Logger, level slog.Level) *Writer {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &Writer{log: l, level: level}
}

// Write buffers p and flushes each newline-terminated line.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			rest := append([]byte(nil), line...)
			w.buf.Reset()
			w.buf.Write(rest)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs any pending partial line.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *Writer) emit(line []byte) {
	text := string(bytes.TrimRight(line, "\r\n"))
	if text == "" {
		return
	}
	w.log.Log(context.Background(), w.level, text)
}
