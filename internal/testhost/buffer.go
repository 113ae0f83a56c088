// Package testhost is a minimal in-memory docsync.Host, used by the demo
// CLI (cmd/lspbridge-demo) and by package tests that need a Host without
// wiring up a real editor. It has no teacher analogue — tally embeds an
// LSP server, never a client, so it never needed an IDE-side buffer
// model — and is grounded instead on the docsync.Host contract itself
// plus github.com/fsnotify/fsnotify for the on-disk half.
package testhost

import (
	"sync"

	"github.com/wharflab/lspbridge/docsync"
	"github.com/wharflab/lspbridge/protocol"
)

// Buffer is an in-memory open document.
type Buffer struct {
	mu         sync.RWMutex
	uri        protocol.DocumentURI
	languageID string
	version    int32
	text       string
}

func (b *Buffer) URI() protocol.DocumentURI { return b.uri }
func (b *Buffer) LanguageID() string        { return b.languageID }

func (b *Buffer) Version() int32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

func (b *Buffer) setText(text string) {
	b.mu.Lock()
	b.text = text
	b.version++
	b.mu.Unlock()
}

// BufferManager is an in-memory docsync.BufferManager: callers drive it
// with Open/Change/Save/Close, and it fans each transition out to every
// subscriber, mirroring what a real editor's buffer set would do.
type BufferManager struct {
	mu          sync.Mutex
	buffers     map[protocol.DocumentURI]*Buffer
	subscribers map[int]func(docsync.BufferEvent)
	nextID      int
}

// NewBufferManager returns an empty BufferManager.
func NewBufferManager() *BufferManager {
	return &BufferManager{
		buffers:     make(map[protocol.DocumentURI]*Buffer),
		subscribers: make(map[int]func(docsync.BufferEvent)),
	}
}

func (m *BufferManager) Subscribe(fn func(docsync.BufferEvent)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *BufferManager) All() []docsync.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]docsync.Buffer, 0, len(m.buffers))
	for _, b := range m.buffers {
		out = append(out, b)
	}
	return out
}

func (m *BufferManager) emit(ev docsync.BufferEvent) {
	m.mu.Lock()
	listeners := make([]func(docsync.BufferEvent), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Open opens a new buffer and notifies subscribers.
func (m *BufferManager) Open(uri protocol.DocumentURI, languageID, text string) *Buffer {
	b := &Buffer{uri: uri, languageID: languageID, version: 1, text: text}
	m.mu.Lock()
	m.buffers[uri] = b
	m.mu.Unlock()
	m.emit(docsync.BufferEvent{Kind: docsync.BufferOpened, Buffer: b})
	return b
}

// Change replaces a buffer's full text and notifies subscribers. The
// event carries no incremental Changes, so the Bridge resyncs the whole
// buffer text whatever sync kind the server negotiated.
func (m *BufferManager) Change(uri protocol.DocumentURI, text string) {
	m.mu.Lock()
	b, ok := m.buffers[uri]
	m.mu.Unlock()
	if !ok {
		return
	}
	b.setText(text)
	m.emit(docsync.BufferEvent{Kind: docsync.BufferChanged, Buffer: b})
}

// Save notifies subscribers that a buffer was saved.
func (m *BufferManager) Save(uri protocol.DocumentURI) {
	m.mu.Lock()
	b, ok := m.buffers[uri]
	m.mu.Unlock()
	if !ok {
		return
	}
	m.emit(docsync.BufferEvent{Kind: docsync.BufferSaved, Buffer: b})
}

// Close removes a buffer and notifies subscribers.
func (m *BufferManager) Close(uri protocol.DocumentURI) {
	m.mu.Lock()
	b, ok := m.buffers[uri]
	delete(m.buffers, uri)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.emit(docsync.BufferEvent{Kind: docsync.BufferClosed, Buffer: b})
}
