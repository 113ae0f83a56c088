package client

import (
	"context"
	"encoding/json"

	"github.com/wharflab/lspbridge/protocol"
)

// mustRawMessage marshals settings for DidChangeConfiguration, falling
// back to JSON null on a marshal error rather than propagating it through
// a notification call that has no reply to carry it back on.
func mustRawMessage(settings any) json.RawMessage {
	data, err := json.Marshal(settings)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// Completion issues textDocument/completion. Servers may reply with a
// bare array of items or a CompletionList; protocol.CompletionList
// decodes either shape.
func (c *Client) Completion(ctx context.Context, params protocol.CompletionParams) (protocol.CompletionList, error) {
	var list protocol.CompletionList
	if err := c.Call(ctx, protocol.MethodTextDocumentCompletion, params, &list); err != nil {
		return protocol.CompletionList{}, err
	}
	return list, nil
}

// Hover issues textDocument/hover.
func (c *Client) Hover(ctx context.Context, params protocol.HoverParams) (*protocol.Hover, error) {
	var hover protocol.Hover
	if err := c.Call(ctx, protocol.MethodTextDocumentHover, params, &hover); err != nil {
		return nil, err
	}
	return &hover, nil
}

// Definition issues textDocument/definition.
func (c *Client) Definition(ctx context.Context, params protocol.DefinitionParams) ([]protocol.Location, error) {
	var locs []protocol.Location
	if err := c.Call(ctx, protocol.MethodTextDocumentDefinition, params, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

// References issues textDocument/references.
func (c *Client) References(ctx context.Context, params protocol.ReferenceParams) ([]protocol.Location, error) {
	var locs []protocol.Location
	if err := c.Call(ctx, protocol.MethodTextDocumentReferences, params, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

// Rename issues textDocument/rename, returning the proposed WorkspaceEdit
// without applying it; applying is always server-initiated via
// workspace/applyEdit (spec.md §4.F), even when it is this call's reply.
func (c *Client) Rename(ctx context.Context, params protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	var edit protocol.WorkspaceEdit
	if err := c.Call(ctx, protocol.MethodTextDocumentRename, params, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

// DocumentSymbol issues textDocument/documentSymbol.
func (c *Client) DocumentSymbol(ctx context.Context, params protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error) {
	var symbols []protocol.DocumentSymbol
	if err := c.Call(ctx, protocol.MethodTextDocumentDocumentSymbol, params, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

// WorkspaceSymbol issues workspace/symbol.
func (c *Client) WorkspaceSymbol(ctx context.Context, params protocol.WorkspaceSymbolParams) ([]protocol.WorkspaceSymbol, error) {
	var symbols []protocol.WorkspaceSymbol
	if err := c.Call(ctx, protocol.MethodWorkspaceSymbol, params, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

// CodeAction issues textDocument/codeAction.
func (c *Client) CodeAction(ctx context.Context, params protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	var actions []protocol.CodeAction
	if err := c.Call(ctx, protocol.MethodTextDocumentCodeAction, params, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// DidChangeConfiguration pushes updated settings down to the server via
// workspace/didChangeConfiguration.
func (c *Client) DidChangeConfiguration(ctx context.Context, settings any) error {
	return c.Notify(ctx, protocol.MethodWorkspaceDidChangeConfig, protocol.DidChangeConfigurationParams{
		Settings: mustRawMessage(settings),
	})
}

// Formatting issues textDocument/formatting.
func (c *Client) Formatting(ctx context.Context, params protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	var edits []protocol.TextEdit
	if err := c.Call(ctx, protocol.MethodTextDocumentFormatting, params, &edits); err != nil {
		return nil, err
	}
	return edits, nil
}
