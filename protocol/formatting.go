package protocol

// DocumentFormattingParams is the body of textDocument/formatting.
type DocumentFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Options      FormattingOptions      `json:"options"`
}

// FormattingOptions carries the editor's indentation preferences.
type FormattingOptions struct {
	TabSize      uint32 `json:"tabSize"`
	InsertSpaces bool   `json:"insertSpaces"`
}

// TextEdit is a single textual replacement over a Range.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}
