// Package protocol defines the subset of Language Server Protocol wire
// types this runtime sends and receives. Field sets follow what the
// client actually uses (spec.md §6), not the full LSP 3.17 surface.
package protocol

import "encoding/json"

// DocumentURI is an LSP document URI, typically file://-scheme.
type DocumentURI string

// URI is a generic LSP URI (used outside textDocument contexts).
type URI string

// Method is an LSP method name, used as a dispatch key.
type Method string

// Position is a zero-indexed line/character position.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location identifies a range within a document.
type Location struct {
	URI   DocumentURI `json:"uri"`
	Range Range       `json:"range"`
}

// TextDocumentIdentifier identifies a document by URI alone.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// VersionedTextDocumentIdentifier adds the document's sync version.
type VersionedTextDocumentIdentifier struct {
	URI     DocumentURI `json:"uri"`
	Version int32       `json:"version"`
}

// TextDocumentItem is the full payload sent on didOpen.
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentPositionParams is embedded by most position-addressed requests.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// MarkupKind describes the content type a client accepts for rendered text.
type MarkupKind string

const (
	PlainText MarkupKind = "plaintext"
	Markdown  MarkupKind = "markdown"
)

// MarkupContent pairs rendered text with its kind.
type MarkupContent struct {
	Kind  MarkupKind `json:"kind"`
	Value string     `json:"value"`
}

// IntegerOrString represents LSP's `integer | string` union, used for
// diagnostic codes and similar fields.
type IntegerOrString struct {
	Integer *int64
	String  *string
}

// MarshalJSON implements json.Marshaler.
func (v IntegerOrString) MarshalJSON() ([]byte, error) {
	if v.String != nil {
		return json.Marshal(*v.String)
	}
	if v.Integer != nil {
		return json.Marshal(*v.Integer)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *IntegerOrString) UnmarshalJSON(data []byte) error {
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		v.Integer = &asInt
		return nil
	}
	var asStr string
	if err := json.Unmarshal(data, &asStr); err != nil {
		return err
	}
	v.String = &asStr
	return nil
}

// WorkspaceFolder is one root folder advertised to the server.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// ClientInfo identifies the IDE to the server.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ServerInfo identifies the server to the client, from the initialize reply.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// TraceValue is one of "off", "messages", "verbose".
type TraceValue string

const (
	TraceOff      TraceValue = "off"
	TraceMessages TraceValue = "messages"
	TraceVerbose  TraceValue = "verbose"
)

// MessageType classifies window/logMessage and window/showMessage severity.
type MessageType int

const (
	MessageError   MessageType = 1
	MessageWarning MessageType = 2
	MessageInfo    MessageType = 3
	MessageLog     MessageType = 4
)
