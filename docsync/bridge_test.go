package docsync_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/lspbridge/docsync"
	"github.com/wharflab/lspbridge/internal/testhost"
	"github.com/wharflab/lspbridge/protocol"
)

// fakeSender records every notification/call the Bridge issues and lets
// tests control the negotiated sync kind, standing in for client.Client.
type fakeSender struct {
	mu       sync.Mutex
	syncKind protocol.TextDocumentSyncKind
	sent     []sentMessage
	// languages restricts SupportsLanguage to this set; nil means every
	// language is supported, matching most tests' disinterest in the
	// language-gating behavior exercised by TestBridgeSkipsUnsupportedLanguage.
	languages map[string]bool
}

type sentMessage struct {
	method protocol.Method
	params any
}

func (f *fakeSender) Notify(_ context.Context, method protocol.Method, params any) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{method: method, params: params})
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) Call(_ context.Context, method protocol.Method, params, _ any) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{method: method, params: params})
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) SyncKind() protocol.TextDocumentSyncKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncKind
}

func (f *fakeSender) setSyncKind(k protocol.TextDocumentSyncKind) {
	f.mu.Lock()
	f.syncKind = k
	f.mu.Unlock()
}

func (f *fakeSender) SupportsLanguage(languageID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.languages == nil {
		return true
	}
	return f.languages[languageID]
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func TestBridgeEmitsDidOpenOnLoad(t *testing.T) {
	buffers := testhost.NewBufferManager()
	host := testhost.New(buffers, nil)
	sender := &fakeSender{syncKind: protocol.SyncFull}
	bridge := docsync.NewBridge(sender, host, nil)

	bridge.Start(context.Background())
	buffers.Open("file:///a.go", "go", "package a\n")

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.MethodTextDocumentDidOpen, msgs[0].method)
	open := msgs[0].params.(protocol.DidOpenTextDocumentParams)
	assert.Equal(t, protocol.DocumentURI("file:///a.go"), open.TextDocument.URI)
	assert.Equal(t, int32(1), open.TextDocument.Version)
}

func TestBridgeFullSyncChangeSendsWholeBuffer(t *testing.T) {
	buffers := testhost.NewBufferManager()
	host := testhost.New(buffers, nil)
	sender := &fakeSender{syncKind: protocol.SyncFull}
	bridge := docsync.NewBridge(sender, host, nil)

	buffers.Open("file:///a.go", "go", "hello")
	bridge.Start(context.Background())

	buffers.Change("file:///a.go", "hello world")

	msgs := sender.messages()
	require.Len(t, msgs, 2) // didOpen, didChange
	change, ok := msgs[1].params.(protocol.DidChangeTextDocumentParams)
	require.True(t, ok)
	require.Len(t, change.ContentChanges, 1)
	assert.Equal(t, "hello world", change.ContentChanges[0].Text)
	assert.Equal(t, int32(2), change.TextDocument.Version)
}

func TestBridgeSkipsUnsupportedLanguage(t *testing.T) {
	buffers := testhost.NewBufferManager()
	host := testhost.New(buffers, nil)
	sender := &fakeSender{syncKind: protocol.SyncFull, languages: map[string]bool{"go": true}}
	bridge := docsync.NewBridge(sender, host, nil)

	bridge.Start(context.Background())
	buffers.Open("file:///a.py", "python", "x = 1\n")
	buffers.Change("file:///a.py", "x = 2\n")
	buffers.Save("file:///a.py")
	buffers.Close("file:///a.py")

	assert.Empty(t, sender.messages())
}

func TestBridgeDropsDidChangeWhenSyncNone(t *testing.T) {
	buffers := testhost.NewBufferManager()
	host := testhost.New(buffers, nil)
	sender := &fakeSender{syncKind: protocol.SyncNone}
	bridge := docsync.NewBridge(sender, host, nil)

	buffers.Open("file:///a.go", "go", "hello")
	bridge.Start(context.Background())
	buffers.Change("file:///a.go", "hello world")

	msgs := sender.messages()
	require.Len(t, msgs, 1) // only didOpen; didChange silently dropped
	assert.Equal(t, protocol.MethodTextDocumentDidOpen, msgs[0].method)
}

func TestBridgeSaveAndCloseLifecycle(t *testing.T) {
	buffers := testhost.NewBufferManager()
	host := testhost.New(buffers, nil)
	sender := &fakeSender{syncKind: protocol.SyncFull}
	bridge := docsync.NewBridge(sender, host, nil)

	buffers.Open("file:///a.go", "go", "hello")
	bridge.Start(context.Background())
	buffers.Save("file:///a.go")
	buffers.Close("file:///a.go")

	msgs := sender.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, protocol.MethodTextDocumentDidOpen, msgs[0].method)
	assert.Equal(t, protocol.MethodTextDocumentDidSave, msgs[1].method)
	assert.Equal(t, protocol.MethodTextDocumentDidClose, msgs[2].method)
}

// fakeProject is a minimal docsync.ProjectModel a test can fire events
// through directly, standing in for testhost.ProjectModel's fsnotify
// plumbing.
type fakeProject struct {
	mu  sync.Mutex
	fns map[int]func(protocol.FileEvent)
	id  int
}

func newFakeProject() *fakeProject { return &fakeProject{fns: map[int]func(protocol.FileEvent){}} }

func (p *fakeProject) Subscribe(fn func(protocol.FileEvent)) func() {
	p.mu.Lock()
	id := p.id
	p.id++
	p.fns[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.fns, id)
		p.mu.Unlock()
	}
}

func (p *fakeProject) fire(ev protocol.FileEvent) {
	p.mu.Lock()
	fns := make([]func(protocol.FileEvent), 0, len(p.fns))
	for _, fn := range p.fns {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

type projectHost struct {
	*testhost.Host
	project *fakeProject
}

func (h *projectHost) Project() docsync.ProjectModel { return h.project }

func TestBridgeInvalidatesDiagnosticsOnFileTrashed(t *testing.T) {
	buffers := testhost.NewBufferManager()
	proj := newFakeProject()
	host := &projectHost{Host: testhost.New(buffers, nil), project: proj}
	sender := &fakeSender{syncKind: protocol.SyncFull}
	bridge := docsync.NewBridge(sender, host, nil)

	var invalidated protocol.DocumentURI
	bridge.OnFileDeleted(func(uri protocol.DocumentURI) { invalidated = uri })

	bridge.Start(context.Background())
	proj.fire(protocol.FileEvent{URI: "file:///b.go", Type: protocol.FileDeleted})

	assert.Equal(t, protocol.DocumentURI("file:///b.go"), invalidated)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.MethodWorkspaceDidChangeWatched, msgs[0].method)
	watched, ok := msgs[0].params.(protocol.DidChangeWatchedFilesParams)
	require.True(t, ok)
	require.Len(t, watched.Changes, 1)
	assert.Equal(t, protocol.FileDeleted, watched.Changes[0].Type)
}
