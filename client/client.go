// Package client drives one language server connection through its
// lifecycle: handshake, document sync, request/response, and the
// server-initiated calls a language server is allowed to make back
// (spec.md §4.C). It is the inverted counterpart of the teacher's
// internal/lspserver.Server: that type answers client requests from the
// server role; Client answers server requests from the client role.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/wharflab/lspbridge/diagnostics"
	"github.com/wharflab/lspbridge/docsync"
	"github.com/wharflab/lspbridge/progress"
	"github.com/wharflab/lspbridge/protocol"
	"github.com/wharflab/lspbridge/rpc"
)

// Options configures a Client before Start.
type Options struct {
	ClientInfo             protocol.ClientInfo
	RootURI                *protocol.DocumentURI
	WorkspaceFolders       []protocol.WorkspaceFolder
	InitializationOptions  []byte
	Trace                  protocol.TraceValue
	Host                   docsync.Host
	Logger                 *slog.Logger
	// Languages pre-declares the languages this Client handles, the
	// equivalent of calling AddLanguage once per entry before Start
	// (spec.md §4.G: the configure_client hook "typically calls
	// add_language").
	Languages []string
}

// pendingMessage is a queued outbound call or notification, replayed once
// the Client reaches Ready (spec.md §4.C).
type pendingMessage struct {
	method protocol.Method
	params any
	result any
	done   chan error
}

// Client owns one language server connection end to end.
type Client struct {
	peer *rpc.Peer
	opts Options
	log  *slog.Logger

	state atomic.Int32

	mu           sync.Mutex
	queue        []*pendingMessage
	capabilities protocol.ServerCapabilities
	syncKind     protocol.TextDocumentSyncKind

	diagnostics *diagnostics.Cache
	progress    *progress.Store
	bridge      *docsync.Bridge

	configProvider ConfigurationProvider

	dispatch              map[protocol.Method]requestHandlerFunc
	notificationListeners []NotificationListener
	languageAcceptors     []LanguageAcceptor
}

// NotificationListener observes a notification the Client's dispatch
// table has no dedicated handler for (spec.md §4.C: "Unknown
// notifications are emitted on the detailed notification signal for
// feature providers").
type NotificationListener func(method protocol.Method, params json.RawMessage)

// OnNotification registers l to be called for every inbound notification
// this Client does not already handle itself (publishDiagnostics,
// $/progress, window/*, $/logTrace). There is no unsubscribe: feature
// providers are expected to live as long as the Client that bound them.
func (c *Client) OnNotification(l NotificationListener) {
	c.mu.Lock()
	c.notificationListeners = append(c.notificationListeners, l)
	c.mu.Unlock()
}

// ConfigurationProvider answers one workspace/configuration item,
// returning the settings subtree the server asked for (spec.md §4.F).
type ConfigurationProvider func(item protocol.ConfigurationItem) any

// SetConfigurationProvider installs the callback used to answer
// workspace/configuration requests. A nil provider answers every item
// with JSON null, matching servers that treat missing configuration as
// "use defaults".
func (c *Client) SetConfigurationProvider(p ConfigurationProvider) {
	c.mu.Lock()
	c.configProvider = p
	c.mu.Unlock()
}

type requestHandlerFunc func(c *Client, ctx context.Context, raw []byte) (any, error)

// New wraps an already-connected Peer. The Peer's handlers are installed
// here, before Peer.Open is called by the owner (normally a
// service.Runner), so no inbound message is dropped.
func New(peer *rpc.Peer, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Client{
		peer:        peer,
		opts:        opts,
		log:         opts.Logger,
		diagnostics: diagnostics.NewCache(),
		progress:    progress.NewStore(),
	}
	c.state.Store(int32(Created))
	c.dispatch = newDispatchTable()

	peer.SetNotificationHandler(c.handleNotification)
	peer.SetRequestHandler(c.handleRequest)

	for _, lang := range opts.Languages {
		c.AddLanguage(lang)
	}

	if opts.Host != nil {
		c.bridge = docsync.NewBridge(c, opts.Host, opts.Logger)
		c.bridge.OnFileDeleted(c.diagnostics.Invalidate)
	}

	return c
}

// State returns the Client's current lifecycle stage.
func (c *Client) State() State { return State(c.state.Load()) }

// Done is closed when the underlying connection disconnects, letting a
// Service Supervisor detect a dead server without polling (spec.md §4.G).
func (c *Client) Done() <-chan struct{} { return c.peer.Done() }

func (c *Client) setState(s State) { c.state.Store(int32(s)) }

// Diagnostics returns the Client's Diagnostic Cache.
func (c *Client) Diagnostics() *diagnostics.Cache { return c.diagnostics }

// Progress returns the Client's progress token store.
func (c *Client) Progress() *progress.Store { return c.progress }

// Capabilities returns the capabilities the server advertised in its
// initialize reply. Valid only once State() is Ready.
func (c *Client) Capabilities() protocol.ServerCapabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capabilities
}

// SyncKind reports the document sync mode negotiated with the server,
// used by docsync.Bridge to decide whether to send incremental or full
// didChange payloads.
func (c *Client) SyncKind() protocol.TextDocumentSyncKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncKind
}

// Start performs the initialize/initialized handshake (spec.md §4.C) and,
// on success, transitions to Ready and flushes anything queued while not
// yet ready.
func (c *Client) Start(ctx context.Context) error {
	if !c.transition(Created, Starting) {
		return &StateError{Op: "start", State: c.State()}
	}
	c.setState(Initializing)

	params := protocol.InitializeParams{
		ClientInfo:            &c.opts.ClientInfo,
		RootURI:               c.opts.RootURI,
		WorkspaceFolders:      c.opts.WorkspaceFolders,
		InitializationOptions: c.opts.InitializationOptions,
		Capabilities:          buildCapabilities(),
		Trace:                 c.opts.Trace,
	}

	var result protocol.InitializeResult
	if err := c.peer.Call(ctx, string(protocol.MethodInitialize), params, &result); err != nil {
		c.setState(Stopped)
		return fmt.Errorf("client: initialize: %w", err)
	}

	c.mu.Lock()
	c.capabilities = result.Capabilities
	if result.Capabilities.TextDocumentSync != nil {
		c.syncKind = result.Capabilities.TextDocumentSync.Kind
	}
	c.mu.Unlock()

	if err := c.peer.Notify(ctx, string(protocol.MethodInitialized), protocol.InitializedParams{}); err != nil {
		c.setState(Stopped)
		return fmt.Errorf("client: initialized: %w", err)
	}

	c.setState(Ready)
	c.flushQueue(ctx)

	if c.bridge != nil {
		c.bridge.Start(ctx)
	}

	return nil
}

// transition atomically moves from 'from' to 'to', reporting whether the
// current state matched 'from'.
func (c *Client) transition(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// flushQueue drains messages queued before Ready. It snapshots and clears
// the queue under the lock, then sends outside it, the same
// snapshot-and-clear shape the teacher uses for settingsMu in
// internal/lspserver/settings.go to avoid holding a lock across I/O.
func (c *Client) flushQueue(ctx context.Context) {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, p := range pending {
		p.done <- c.send(ctx, p.method, p.params, p.result)
	}
}

// Notify sends a notification, queuing it if the Client is not yet Ready.
func (c *Client) Notify(ctx context.Context, method protocol.Method, params any) error {
	return c.dispatchOutbound(ctx, method, params, nil)
}

// Call sends a request and decodes its reply into result, queuing the
// call if the Client is not yet Ready.
func (c *Client) Call(ctx context.Context, method protocol.Method, params, result any) error {
	return c.dispatchOutbound(ctx, method, params, result)
}

func (c *Client) dispatchOutbound(ctx context.Context, method protocol.Method, params, result any) error {
	if c.State() == Ready {
		return c.send(ctx, method, params, result)
	}

	state := c.State()
	if state == ShuttingDown || state == Stopped {
		return &StateError{Op: string(method), State: state}
	}

	p := &pendingMessage{method: method, params: params, result: result, done: make(chan error, 1)}
	c.mu.Lock()
	c.queue = append(c.queue, p)
	c.mu.Unlock()

	select {
	case err := <-p.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) send(ctx context.Context, method protocol.Method, params, result any) error {
	if result == nil {
		return c.peer.Notify(ctx, string(method), params)
	}
	return c.peer.Call(ctx, string(method), params, result)
}

// Shutdown performs the shutdown/exit sequence (spec.md §4.C) and tears
// down the Document Bridge, if any.
func (c *Client) Shutdown(ctx context.Context) error {
	prior := c.State()
	if prior != Ready {
		return &StateError{Op: "shutdown", State: prior}
	}
	c.setState(ShuttingDown)

	if c.bridge != nil {
		c.bridge.Stop()
	}

	if err := c.peer.Call(ctx, string(protocol.MethodShutdown), nil, nil); err != nil {
		c.setState(Stopped)
		return fmt.Errorf("client: shutdown: %w", err)
	}
	if err := c.peer.Notify(ctx, string(protocol.MethodExit), nil); err != nil {
		c.setState(Stopped)
		return fmt.Errorf("client: exit: %w", err)
	}

	c.setState(Stopped)
	return nil
}

func buildCapabilities() protocol.ClientCapabilities {
	var caps protocol.ClientCapabilities

	caps.Workspace.ApplyEdit = true
	caps.Workspace.Configuration = true
	caps.Workspace.WorkspaceFolder = true
	caps.Workspace.Symbol = &protocol.WorkspaceSymbolCapabilities{
		SymbolKind: protocol.SymbolKindCapability{ValueSet: protocol.AllSymbolKinds()},
	}

	caps.TextDocument.Synchronization = protocol.TextDocumentSyncClientCapabilities{DidSave: true}
	caps.TextDocument.Completion.CompletionItem.SnippetSupport = true
	caps.TextDocument.Completion.CompletionItem.DocumentationFormat = []protocol.MarkupKind{protocol.Markdown, protocol.PlainText}
	caps.TextDocument.Hover.ContentFormat = []protocol.MarkupKind{protocol.Markdown, protocol.PlainText}
	caps.TextDocument.PublishDiagnostics.TagSupport = &struct {
		ValueSet []protocol.DiagnosticTag `json:"valueSet"`
	}{ValueSet: []protocol.DiagnosticTag{protocol.TagUnnecessary, protocol.TagDeprecated}}
	caps.TextDocument.CodeAction.CodeActionLiteralSupport = &protocol.CodeActionLiteralSupport{}
	caps.TextDocument.CodeAction.CodeActionLiteralSupport.CodeActionKind.ValueSet = []protocol.CodeActionKind{
		protocol.CodeActionQuickFix,
		protocol.CodeActionRefactor,
		protocol.CodeActionSource,
		protocol.CodeActionSourceOrganizeImports,
	}

	caps.Window.WorkDoneProgress = true

	return caps
}
