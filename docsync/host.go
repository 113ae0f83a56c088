// Package docsync bridges an IDE's live document/project model into the
// textDocument/* and workspace/* notifications and requests a language
// server expects (spec.md §4.D). It is deliberately IDE-agnostic: the
// IDE implements Host, BufferManager, ProjectModel and Buffer; Bridge
// does the impedance matching.
package docsync

import (
	"context"

	"github.com/wharflab/lspbridge/protocol"
)

// Host is the seam between the IDE and the Document Bridge. An IDE wires
// its buffer set and project tree in by implementing this once.
type Host interface {
	Buffers() BufferManager
	Project() ProjectModel
	// ApplyEdit performs a server-requested workspace edit against live
	// buffers and/or on-disk files, returning false with a reason if any
	// part of the edit could not be applied (spec.md §4.F).
	ApplyEdit(ctx context.Context, edits []TextEdit) (applied bool, failureReason string)
}

// BufferManager enumerates and tracks the IDE's open buffers.
type BufferManager interface {
	// Subscribe registers fn to be called whenever a buffer opens, changes,
	// saves, or closes. It returns an unsubscribe func, the explicit-handle
	// replacement for the teacher's weak-reference change tracking (spec.md
	// §9 REDESIGN FLAGS).
	Subscribe(fn func(BufferEvent)) (unsubscribe func())
	// All returns every buffer currently open, for initial sync.
	All() []Buffer
}

// ProjectModel reports on-disk changes outside any open buffer, feeding
// workspace/didChangeWatchedFiles (spec.md §4.D supplemented feature).
type ProjectModel interface {
	Subscribe(fn func(protocol.FileEvent)) (unsubscribe func())
}

// Buffer is one open document, addressed by its server-facing URI.
type Buffer interface {
	URI() protocol.DocumentURI
	LanguageID() string
	Version() int32
	Text() string
}

// BufferEventKind classifies a BufferEvent.
type BufferEventKind int

const (
	BufferOpened BufferEventKind = iota
	BufferChanged
	BufferSaved
	BufferClosed
)

// BufferEvent is one buffer lifecycle transition. Changes carries
// incremental edits when the Host can produce them and the server
// advertised SyncIncremental; otherwise it is empty and the Bridge
// resyncs the full Buffer.Text().
type BufferEvent struct {
	Kind    BufferEventKind
	Buffer  Buffer
	Changes []protocol.TextDocumentContentChangeEvent
}

// TextEdit is a flattened, URI-addressed replacement, the common shape
// client/applyedit.go normalizes both WorkspaceEdit wire encodings into
// before handing them to Host.ApplyEdit.
type TextEdit struct {
	URI     protocol.DocumentURI
	Range   protocol.Range
	NewText string
}
