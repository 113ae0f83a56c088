// Package diagnostics holds the most recent textDocument/publishDiagnostics
// payload for each open document (spec.md §4.E). It normalizes server
// diagnostics, upgrading severity from tags the way editors expect, and
// fans out changes to registered listeners.
package diagnostics

import (
	"sync"

	"github.com/wharflab/lspbridge/protocol"
)

// Entry is one normalized diagnostic, decoupled from the wire shape so
// callers don't need to import protocol for routine reads.
type Entry struct {
	Range    protocol.Range
	Severity protocol.DiagnosticSeverity
	Message  string
	Source   string
	Code     *protocol.IntegerOrString
	Tags     []protocol.DiagnosticTag
	Related  []protocol.DiagnosticRelatedInformation
}

// Listener observes a wholesale diagnostic replacement for one document.
type Listener func(uri protocol.DocumentURI, entries []Entry)

// Cache is a concurrency-safe, per-document diagnostic store. A fresh
// Cache is ready to use.
type Cache struct {
	mu        sync.RWMutex
	byURI     map[protocol.DocumentURI][]Entry
	listeners []Listener
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{byURI: make(map[protocol.DocumentURI][]Entry)}
}

// Subscribe registers l to be called on every Publish and Invalidate.
// There is no unsubscribe: listeners are expected to live as long as the
// Cache, matching the Client's one Cache per document set (spec.md §4.E).
func (c *Cache) Subscribe(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// Publish replaces the diagnostic set for uri wholesale, per
// textDocument/publishDiagnostics semantics (spec.md §4.E: "Publish
// replaces, never merges").
func (c *Cache) Publish(uri protocol.DocumentURI, raw []protocol.Diagnostic) {
	entries := make([]Entry, len(raw))
	for i, d := range raw {
		entries[i] = fromWire(d)
	}

	c.mu.Lock()
	c.byURI[uri] = entries
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(uri, entries)
	}
}

// Invalidate clears the cached set for uri, e.g. after the document is
// deleted out from under the server (spec.md §4.D didChangeWatchedFiles).
func (c *Cache) Invalidate(uri protocol.DocumentURI) {
	c.mu.Lock()
	delete(c.byURI, uri)
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(uri, nil)
	}
}

// Get returns the cached diagnostics for uri, or nil if none are known.
func (c *Cache) Get(uri protocol.DocumentURI) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.byURI[uri]...)
}

func fromWire(d protocol.Diagnostic) Entry {
	e := Entry{
		Range:    d.Range,
		Severity: d.Severity,
		Message:  d.Message,
		Source:   d.Source,
		Code:     d.Code,
		Tags:     d.Tags,
		Related:  d.RelatedInformation,
	}
	if e.Severity == 0 {
		e.Severity = protocol.SeverityError
	}
	for _, tag := range d.Tags {
		switch tag {
		case protocol.TagDeprecated:
			e.Severity = protocol.SeverityWarning
		case protocol.TagUnnecessary:
			e.Severity = protocol.SeverityHint
		}
	}
	return e
}
