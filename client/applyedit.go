package client

import (
	"context"
	"encoding/json"

	"github.com/wharflab/lspbridge/docsync"
	"github.com/wharflab/lspbridge/protocol"
)

// handleApplyEdit answers workspace/applyEdit. It normalizes whichever of
// the two WorkspaceEdit wire encodings arrived (spec.md §4.F) into a flat
// []docsync.TextEdit before handing off to the Host, so the Host never
// needs to know which encoding the server chose.
func (c *Client) handleApplyEdit(ctx context.Context, raw []byte) (any, error) {
	var params protocol.ApplyWorkspaceEditParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}

	if c.opts.Host == nil {
		return protocol.ApplyWorkspaceEditResult{
			Applied:       false,
			FailureReason: "client: no host registered to apply edits",
		}, nil
	}

	edits := flattenWorkspaceEdit(params.Edit)

	applied, reason := c.opts.Host.ApplyEdit(ctx, edits)
	return protocol.ApplyWorkspaceEditResult{Applied: applied, FailureReason: reason}, nil
}

func flattenWorkspaceEdit(edit protocol.WorkspaceEdit) []docsync.TextEdit {
	var out []docsync.TextEdit

	for uri, edits := range edit.Changes {
		for _, e := range edits {
			out = append(out, docsync.TextEdit{URI: uri, Range: e.Range, NewText: e.NewText})
		}
	}

	for _, dc := range edit.DocumentChanges {
		if dc.TextDocumentEdit == nil {
			continue
		}
		uri := dc.TextDocumentEdit.TextDocument.URI
		for _, e := range dc.TextDocumentEdit.Edits {
			out = append(out, docsync.TextEdit{URI: uri, Range: e.Range, NewText: e.NewText})
		}
	}

	return out
}
