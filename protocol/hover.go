package protocol

// HoverParams is the body of textDocument/hover.
type HoverParams struct {
	TextDocumentPositionParams
}

// Hover is the reply to textDocument/hover.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// DefinitionParams is the body of textDocument/definition.
type DefinitionParams struct {
	TextDocumentPositionParams
}

// ReferenceParams is the body of textDocument/references.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}
