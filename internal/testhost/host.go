package testhost

import (
	"context"
	"os"
	"strings"

	"github.com/wharflab/lspbridge/docsync"
	"github.com/wharflab/lspbridge/protocol"
)

// Host is the in-memory docsync.Host: a *BufferManager for open
// documents and an optional *ProjectModel for on-disk watching.
// ApplyEdit writes straight through to whichever buffer or file the edit
// names, which is enough to exercise workspace/applyEdit end to end
// (spec.md §4.F) without a real editor attached.
type Host struct {
	buffers *BufferManager
	project *ProjectModel
}

// New returns a Host backed by buffers, optionally watching project for
// on-disk changes (pass nil to skip filesystem watching).
func New(buffers *BufferManager, project *ProjectModel) *Host {
	return &Host{buffers: buffers, project: project}
}

func (h *Host) Buffers() docsync.BufferManager { return h.buffers }

func (h *Host) Project() docsync.ProjectModel {
	if h.project == nil {
		return noProject{}
	}
	return h.project
}

// ApplyEdit applies each edit to the matching open buffer if one exists,
// otherwise to the on-disk file, using byte-offset replacement derived
// from the edit's line/character range against the current text.
func (h *Host) ApplyEdit(_ context.Context, edits []docsync.TextEdit) (bool, string) {
	for _, e := range edits {
		if buf, ok := h.buffers.buffers[e.URI]; ok {
			buf.mu.Lock()
			text, ok := applyRange(buf.text, e)
			if ok {
				buf.text = text
				buf.version++
			}
			buf.mu.Unlock()
			if !ok {
				return false, "edit range out of bounds for buffer " + string(e.URI)
			}
			continue
		}

		path := strings.TrimPrefix(string(e.URI), "file://")
		raw, err := os.ReadFile(path)
		if err != nil {
			return false, err.Error()
		}
		text, ok := applyRange(string(raw), e)
		if !ok {
			return false, "edit range out of bounds for file " + path
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil { //nolint:gosec // demo host
			return false, err.Error()
		}
	}
	return true, ""
}

func applyRange(text string, e docsync.TextEdit) (string, bool) {
	lines := strings.Split(text, "\n")
	start := int(e.Range.Start.Line)
	end := int(e.Range.End.Line)
	if start < 0 || end >= len(lines) || start > end {
		return "", false
	}

	startLine := lines[start]
	endLine := lines[end]
	startChar := int(e.Range.Start.Character)
	endChar := int(e.Range.End.Character)
	if startChar > len(startLine) || endChar > len(endLine) {
		return "", false
	}

	prefix := startLine[:startChar]
	suffix := endLine[endChar:]
	replacement := prefix + e.NewText + suffix

	out := make([]string, 0, len(lines)-(end-start))
	out = append(out, lines[:start]...)
	out = append(out, replacement)
	out = append(out, lines[end+1:]...)
	return strings.Join(out, "\n"), true
}

type noProject struct{}

func (noProject) Subscribe(func(protocol.FileEvent)) func() {
	return func() {}
}
