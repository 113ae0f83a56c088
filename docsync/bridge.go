package docsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wharflab/lspbridge/protocol"
)

// Sender is the narrow slice of *client.Client the Bridge needs: outbound
// notifications and requests. Defined locally (rather than importing the
// client package) so client can in turn depend on docsync.Host for
// workspace/applyEdit without an import cycle.
type Sender interface {
	Notify(ctx context.Context, method protocol.Method, params any) error
	Call(ctx context.Context, method protocol.Method, params, result any) error
	SyncKind() protocol.TextDocumentSyncKind
	// SupportsLanguage reports whether the Client handles buffers of the
	// given language id (spec.md §3 "Tracked Document": "created when
	// the Host reports the buffer loaded and the language is
	// supported"). A Sender with no declared languages supports nothing.
	SupportsLanguage(languageID string) bool
}

// Bridge keeps one Client's view of open documents in lockstep with an
// IDE's buffer set, per spec.md §4.D.
type Bridge struct {
	sender Sender
	host   Host
	log    *slog.Logger

	mu        sync.Mutex
	tracked   map[protocol.DocumentURI]*trackedDocument
	unsubBuf  func()
	unsubProj func()

	onFileDeleted func(protocol.DocumentURI)
}

// OnFileDeleted registers fn to be called when the project model reports
// a deleted file, letting the Client invalidate any cached diagnostics
// for a document that no longer exists (spec.md §4.E).
func (b *Bridge) OnFileDeleted(fn func(protocol.DocumentURI)) {
	b.mu.Lock()
	b.onFileDeleted = fn
	b.mu.Unlock()
}

type trackedDocument struct {
	uri     protocol.DocumentURI
	version int32
}

// NewBridge constructs a Bridge. Call Start to begin mirroring host into
// sender; call Stop to unsubscribe before the Client tears down.
func NewBridge(sender Sender, host Host, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		sender:  sender,
		host:    host,
		log:     log,
		tracked: make(map[protocol.DocumentURI]*trackedDocument),
	}
}

// Start subscribes to the Host's buffer manager and project model and
// sends didOpen for every buffer already open.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	b.unsubBuf = b.host.Buffers().Subscribe(func(ev BufferEvent) { b.handleBufferEvent(ctx, ev) })
	if proj := b.host.Project(); proj != nil {
		b.unsubProj = proj.Subscribe(func(ev protocol.FileEvent) { b.handleFileEvent(ctx, ev) })
	}
	b.mu.Unlock()

	for _, buf := range b.host.Buffers().All() {
		b.handleBufferEvent(ctx, BufferEvent{Kind: BufferOpened, Buffer: buf})
	}
}

// Stop releases the Bridge's subscriptions. It does not send didClose for
// tracked documents; the Client is assumed to be shutting down the whole
// connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubBuf != nil {
		b.unsubBuf()
		b.unsubBuf = nil
	}
	if b.unsubProj != nil {
		b.unsubProj()
		b.unsubProj = nil
	}
}

func (b *Bridge) handleBufferEvent(ctx context.Context, ev BufferEvent) {
	switch ev.Kind {
	case BufferOpened:
		b.handleOpen(ctx, ev.Buffer)
	case BufferChanged:
		b.handleChange(ctx, ev.Buffer, ev.Changes)
	case BufferSaved:
		b.handleSave(ctx, ev.Buffer)
	case BufferClosed:
		b.handleClose(ctx, ev.Buffer)
	}
}

func (b *Bridge) handleOpen(ctx context.Context, buf Buffer) {
	if !b.sender.SupportsLanguage(buf.LanguageID()) {
		return
	}

	b.mu.Lock()
	if _, ok := b.tracked[buf.URI()]; ok {
		b.mu.Unlock()
		return
	}
	b.tracked[buf.URI()] = &trackedDocument{uri: buf.URI(), version: buf.Version()}
	b.mu.Unlock()

	err := b.sender.Notify(ctx, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        buf.URI(),
			LanguageID: buf.LanguageID(),
			Version:    buf.Version(),
			Text:       buf.Text(),
		},
	})
	if err != nil {
		b.log.Warn("docsync: didOpen failed", "uri", buf.URI(), "error", err)
	}
}

func (b *Bridge) handleChange(ctx context.Context, buf Buffer, changes []protocol.TextDocumentContentChangeEvent) {
	b.mu.Lock()
	doc, ok := b.tracked[buf.URI()]
	if !ok {
		// No didOpen was ever sent for this URI (unsupported language,
		// or a change arrived before any load); nothing to resync.
		b.mu.Unlock()
		return
	}
	doc.version = buf.Version()
	b.mu.Unlock()

	// A server that advertised SyncNone gets no didChange at all (spec.md
	// §4.C "A didChange whose sync mode is None: silently drop").
	syncKind := b.sender.SyncKind()
	if syncKind == protocol.SyncNone {
		return
	}

	// Incremental changes are only valid when the server asked for them;
	// otherwise resync the whole buffer (spec.md §4.D).
	if len(changes) == 0 || syncKind != protocol.SyncIncremental {
		changes = []protocol.TextDocumentContentChangeEvent{{Text: buf.Text()}}
	}

	err := b.sender.Notify(ctx, protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			URI:     buf.URI(),
			Version: buf.Version(),
		},
		ContentChanges: changes,
	})
	if err != nil {
		b.log.Warn("docsync: didChange failed", "uri", buf.URI(), "error", err)
	}
}

func (b *Bridge) handleSave(ctx context.Context, buf Buffer) {
	b.mu.Lock()
	_, tracked := b.tracked[buf.URI()]
	b.mu.Unlock()
	if !tracked {
		return
	}

	text := buf.Text()
	err := b.sender.Notify(ctx, protocol.MethodTextDocumentDidSave, protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: buf.URI()},
		Text:         &text,
	})
	if err != nil {
		b.log.Warn("docsync: didSave failed", "uri", buf.URI(), "error", err)
	}
}

func (b *Bridge) handleClose(ctx context.Context, buf Buffer) {
	b.mu.Lock()
	_, tracked := b.tracked[buf.URI()]
	delete(b.tracked, buf.URI())
	b.mu.Unlock()
	if !tracked {
		return
	}

	err := b.sender.Notify(ctx, protocol.MethodTextDocumentDidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: buf.URI()},
	})
	if err != nil {
		b.log.Warn("docsync: didClose failed", "uri", buf.URI(), "error", err)
	}
}

func (b *Bridge) handleFileEvent(ctx context.Context, ev protocol.FileEvent) {
	if ev.Type == protocol.FileDeleted {
		b.mu.Lock()
		delete(b.tracked, ev.URI)
		onDeleted := b.onFileDeleted
		b.mu.Unlock()
		if onDeleted != nil {
			onDeleted(ev.URI)
		}
	}

	err := b.sender.Notify(ctx, protocol.MethodWorkspaceDidChangeWatched, protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{ev},
	})
	if err != nil {
		b.log.Warn("docsync: didChangeWatchedFiles failed", "uri", ev.URI, "error", err)
	}
}
