package protocol

import "encoding/json"

// InitializeParams is the outbound body of the initialize request (spec.md §6).
type InitializeParams struct {
	ProcessID             *int               `json:"processId"`
	ClientInfo            *ClientInfo        `json:"clientInfo,omitempty"`
	RootURI               *DocumentURI       `json:"rootUri"`
	RootPath              *string            `json:"rootPath,omitempty"`
	WorkspaceFolders       []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
	InitializationOptions json.RawMessage    `json:"initializationOptions,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	Trace                 TraceValue         `json:"trace,omitempty"`
}

// ClientCapabilities is the capability block the Client composes on start
// (spec.md §4.C): workspace.applyEdit/configuration, symbol kinds,
// completion/hover markup formats, diagnostic tag support, code action
// literal support, and workDoneProgress.
type ClientCapabilities struct {
	Workspace    WorkspaceClientCapabilities    `json:"workspace"`
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
	Window       WindowClientCapabilities       `json:"window"`
}

type WorkspaceClientCapabilities struct {
	ApplyEdit       bool                         `json:"applyEdit"`
	Configuration   bool                         `json:"configuration"`
	Symbol          *WorkspaceSymbolCapabilities `json:"symbol,omitempty"`
	WorkspaceFolder bool                         `json:"workspaceFolders,omitempty"`
}

type WorkspaceSymbolCapabilities struct {
	SymbolKind SymbolKindCapability `json:"symbolKind"`
}

type SymbolKindCapability struct {
	ValueSet []SymbolKind `json:"valueSet"`
}

// AllSymbolKinds is the {1..26} value set spec.md §4.C requires advertising.
func AllSymbolKinds() []SymbolKind {
	kinds := make([]SymbolKind, 26)
	for i := range kinds {
		kinds[i] = SymbolKind(i + 1)
	}
	return kinds
}

type TextDocumentClientCapabilities struct {
	Synchronization    TextDocumentSyncClientCapabilities `json:"synchronization"`
	Completion         CompletionClientCapabilities       `json:"completion"`
	Hover              HoverClientCapabilities            `json:"hover"`
	PublishDiagnostics PublishDiagnosticsCapabilities      `json:"publishDiagnostics"`
	CodeAction         CodeActionClientCapabilities        `json:"codeAction"`
}

type TextDocumentSyncClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
	DidSave             bool `json:"didSave,omitempty"`
}

type CompletionClientCapabilities struct {
	CompletionItem struct {
		SnippetSupport          bool         `json:"snippetSupport,omitempty"`
		DocumentationFormat     []MarkupKind `json:"documentationFormat,omitempty"`
	} `json:"completionItem"`
}

type HoverClientCapabilities struct {
	ContentFormat []MarkupKind `json:"contentFormat,omitempty"`
}

type PublishDiagnosticsCapabilities struct {
	TagSupport *struct {
		ValueSet []DiagnosticTag `json:"valueSet"`
	} `json:"tagSupport,omitempty"`
}

type CodeActionClientCapabilities struct {
	CodeActionLiteralSupport *CodeActionLiteralSupport `json:"codeActionLiteralSupport,omitempty"`
}

type CodeActionLiteralSupport struct {
	CodeActionKind struct {
		ValueSet []CodeActionKind `json:"valueSet"`
	} `json:"codeActionKind"`
}

type WindowClientCapabilities struct {
	WorkDoneProgress bool `json:"workDoneProgress"`
}

// InitializeResult is the inbound reply to initialize.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// ServerCapabilities is the structured value captured from the initialize
// reply (spec.md §3). Only the fields the Client or a feature provider
// reads are modeled; the full reply is kept, undecoded, in Raw.
type ServerCapabilities struct {
	TextDocumentSync   *TextDocumentSyncValue    `json:"textDocumentSync,omitempty"`
	CompletionProvider *CompletionOptions        `json:"completionProvider,omitempty"`
	HoverProvider      *BoolOrOptions            `json:"hoverProvider,omitempty"`
	DefinitionProvider *BoolOrOptions            `json:"definitionProvider,omitempty"`
	ReferencesProvider *BoolOrOptions            `json:"referencesProvider,omitempty"`
	RenameProvider     *BoolOrOptions            `json:"renameProvider,omitempty"`
	DocumentSymbolProvider  *BoolOrOptions       `json:"documentSymbolProvider,omitempty"`
	WorkspaceSymbolProvider *BoolOrOptions       `json:"workspaceSymbolProvider,omitempty"`
	CodeActionProvider      *BoolOrOptions       `json:"codeActionProvider,omitempty"`
	DocumentFormattingProvider *BoolOrOptions    `json:"documentFormattingProvider,omitempty"`

	// Raw retains the full server reply for feature providers that need a
	// field this struct does not model (spec.md §3: "read-only accessor").
	// Populated by UnmarshalJSON rather than a struct tag, since `json:"-"`
	// only suppresses the default (un)marshal path for this field.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the modeled fields as usual, then additionally
// stashes a copy of data in Raw so feature providers can read capability
// fields this struct doesn't model (spec.md §3).
func (s *ServerCapabilities) UnmarshalJSON(data []byte) error {
	type shadow ServerCapabilities
	var decoded shadow
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = ServerCapabilities(decoded)
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// BoolOrOptions models the common LSP `boolean | { ... }` capability union;
// either Bool is set, or Present is true because an options object arrived.
type BoolOrOptions struct {
	Bool    *bool
	Present bool
}

func (v *BoolOrOptions) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		v.Bool = &b
		v.Present = b
		return nil
	}
	v.Present = string(data) != "null"
	return nil
}

func (v BoolOrOptions) Enabled() bool {
	if v.Bool != nil {
		return *v.Bool
	}
	return v.Present
}

// TextDocumentSyncValue models the `number | TextDocumentSyncOptions` union
// the spec for textDocumentSync uses, normalized down to a Kind.
type TextDocumentSyncValue struct {
	Kind TextDocumentSyncKind
}

func (v *TextDocumentSyncValue) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		v.Kind = TextDocumentSyncKind(n)
		return nil
	}
	var opts struct {
		Change *TextDocumentSyncKind `json:"change"`
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return err
	}
	if opts.Change != nil {
		v.Kind = *opts.Change
	} else {
		v.Kind = SyncIncremental
	}
	return nil
}

// TextDocumentSyncKind is the document sync mode the server advertises.
type TextDocumentSyncKind int

const (
	SyncNone        TextDocumentSyncKind = 0
	SyncFull        TextDocumentSyncKind = 1
	SyncIncremental TextDocumentSyncKind = 2
)

// CompletionOptions is the server's completion configuration.
type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
	ResolveProvider   bool     `json:"resolveProvider,omitempty"`
}

// InitializedParams is the (empty) body of the initialized notification.
type InitializedParams struct{}

// LogMessageParams is the body of window/logMessage.
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// ShowMessageParams is the body of window/showMessage.
type ShowMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// LogTraceParams is the body of $/logTrace.
type LogTraceParams struct {
	Message string `json:"message"`
	Verbose string `json:"verbose,omitempty"`
}
