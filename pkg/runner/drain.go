package runner

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

const chunkSize = 32 * 1024

// drain reads r until EOF, appending every chunk to buf and, when tap is
// non-nil, writing the same chunk to tap. r is always closed on return so a
// writer on the other end of a pipe cannot block on it.
func drain(r io.ReadCloser, buf *bytes.Buffer, tap io.Writer) error {
	defer r.Close()

	chunk := make([]byte, chunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if tap != nil {
				// Tap failures never affect the captured output.
				_, _ = tap.Write(chunk[:n])
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
}

func tapFor(enabled bool, sink io.Writer) io.Writer {
	if !enabled {
		return nil
	}
	return sink
}

// lockedWriter serializes writes from the two drain goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
