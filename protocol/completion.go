package protocol

import "encoding/json"

// CompletionParams is the body of textDocument/completion.
type CompletionParams struct {
	TextDocumentPositionParams
	Context *CompletionContext `json:"context,omitempty"`
}

// CompletionContext says what triggered the completion request.
type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

type CompletionTriggerKind int

const (
	CompletionInvoked                         CompletionTriggerKind = 1
	CompletionTriggerCharacter                CompletionTriggerKind = 2
	CompletionTriggerForIncompleteCompletions CompletionTriggerKind = 3
)

// CompletionList is the reply to textDocument/completion; servers may also
// reply with a bare CompletionItem array, which decodes into Items here.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// UnmarshalJSON accepts either a CompletionList object or a bare
// CompletionItem array; the array form leaves IsIncomplete false.
func (l *CompletionList) UnmarshalJSON(data []byte) error {
	var items []CompletionItem
	if err := json.Unmarshal(data, &items); err == nil {
		*l = CompletionList{Items: items}
		return nil
	}
	type shadow CompletionList
	var decoded shadow
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*l = CompletionList(decoded)
	return nil
}

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Label            string         `json:"label"`
	Kind             int            `json:"kind,omitempty"`
	Detail           string         `json:"detail,omitempty"`
	Documentation    *MarkupContent `json:"documentation,omitempty"`
	InsertText       string         `json:"insertText,omitempty"`
	InsertTextFormat int            `json:"insertTextFormat,omitempty"`
	SortText         string         `json:"sortText,omitempty"`
	FilterText       string         `json:"filterText,omitempty"`
}
