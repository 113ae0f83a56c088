package service

import (
	"sync"

	"github.com/armon/circbuf"
)

// tailBuffer is an io.Writer that retains only the last N bytes written,
// adapted from the teacher's internal/ai/acp/tailbuf.go: a server crash
// is diagnosed from its stderr tail, not its full (possibly huge) output.
type tailBuffer struct {
	mu  sync.Mutex
	buf *circbuf.Buffer
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		return &tailBuffer{}
	}
	b, err := circbuf.NewBuffer(int64(limit))
	if err != nil {
		return &tailBuffer{}
	}
	return &tailBuffer{buf: b}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.buf == nil || n == 0 {
		return n, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *tailBuffer) String() string {
	if b.buf == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
