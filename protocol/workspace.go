package protocol

import "encoding/json"

// WorkspaceEdit is the payload of workspace/applyEdit. Servers encode it
// one of two ways (spec.md §4.F): the older flat `changes` map keyed by
// URI, or the newer `documentChanges` array of per-document edit groups.
// Both decode; client.applyedit.go normalizes whichever arrived into a
// single flattened edit list.
type WorkspaceEdit struct {
	Changes         map[DocumentURI][]TextEdit `json:"changes,omitempty"`
	DocumentChanges []DocumentChange           `json:"documentChanges,omitempty"`
}

// DocumentChange is one element of the documentChanges array: either a
// TextDocumentEdit or a resource operation (create/rename/delete), told
// apart by which fields are present on the wire.
type DocumentChange struct {
	TextDocumentEdit *TextDocumentEdit
	Kind             string          `json:"-"`
	raw              json.RawMessage `json:"-"`
}

func (d *DocumentChange) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Kind != "" {
		d.Kind = probe.Kind
		d.raw = append(json.RawMessage(nil), data...)
		return nil
	}
	var tde TextDocumentEdit
	if err := json.Unmarshal(data, &tde); err != nil {
		return err
	}
	d.TextDocumentEdit = &tde
	return nil
}

func (d DocumentChange) MarshalJSON() ([]byte, error) {
	if d.TextDocumentEdit != nil {
		return json.Marshal(d.TextDocumentEdit)
	}
	return d.raw, nil
}

// TextDocumentEdit groups edits addressed at one versioned document.
type TextDocumentEdit struct {
	TextDocument VersionedTextDocumentIdentifier `json:"textDocument"`
	Edits        []TextEdit                      `json:"edits"`
}

// ApplyWorkspaceEditParams is the body of workspace/applyEdit.
type ApplyWorkspaceEditParams struct {
	Label string        `json:"label,omitempty"`
	Edit  WorkspaceEdit `json:"edit"`
}

// ApplyWorkspaceEditResult is the client's reply to workspace/applyEdit.
type ApplyWorkspaceEditResult struct {
	Applied       bool   `json:"applied"`
	FailureReason string `json:"failureReason,omitempty"`
}

// ConfigurationParams is the body of workspace/configuration.
type ConfigurationParams struct {
	Items []ConfigurationItem `json:"items"`
}

// ConfigurationItem names one settings subtree the server wants back.
type ConfigurationItem struct {
	ScopeURI *DocumentURI `json:"scopeUri,omitempty"`
	Section  string       `json:"section,omitempty"`
}

// DidChangeConfigurationParams is the body of workspace/didChangeConfiguration.
type DidChangeConfigurationParams struct {
	Settings json.RawMessage `json:"settings"`
}

// DidChangeWatchedFilesParams is the body of workspace/didChangeWatchedFiles.
type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}

// FileEvent is one on-disk change the Document Bridge's project-model
// watcher reports (spec.md §4.D supplemented feature).
type FileEvent struct {
	URI  DocumentURI   `json:"uri"`
	Type FileChangeType `json:"type"`
}

// FileChangeType classifies a FileEvent.
type FileChangeType int

const (
	FileCreated FileChangeType = 1
	FileChanged FileChangeType = 2
	FileDeleted FileChangeType = 3
)

// WorkDoneProgressCreateParams is the body of window/workDoneProgress/create.
type WorkDoneProgressCreateParams struct {
	Token IntegerOrString `json:"token"`
}
