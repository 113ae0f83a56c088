package diagnostics_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/lspbridge/diagnostics"
	"github.com/wharflab/lspbridge/protocol"
)

// roundTrip asserts the published entries survive the cache read back
// byte-for-byte (spec.md §8 "round-trip laws"), using cmp.Diff the way
// teacher-adjacent packages compare structured values in tests.
func roundTrip(t *testing.T, want, got []diagnostics.Entry) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("diagnostic entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCachePublishUpgradesSeverityFromTags(t *testing.T) {
	cache := diagnostics.NewCache()

	cache.Publish("file:///a.c", []protocol.Diagnostic{
		{
			Message:  "unused variable x",
			Severity: protocol.SeverityWarning,
			Tags:     []protocol.DiagnosticTag{protocol.TagUnnecessary},
		},
	})

	got := cache.Get("file:///a.c")
	require.Len(t, got, 1)
	assert.Equal(t, protocol.SeverityHint, got[0].Severity)

	want := []diagnostics.Entry{{
		Message:  "unused variable x",
		Severity: protocol.SeverityHint,
		Tags:     []protocol.DiagnosticTag{protocol.TagUnnecessary},
	}}
	roundTrip(t, want, got)
}

func TestCachePublishDefaultsSeverityToError(t *testing.T) {
	cache := diagnostics.NewCache()
	cache.Publish("file:///a.c", []protocol.Diagnostic{{Message: "syntax error"}})

	got := cache.Get("file:///a.c")
	require.Len(t, got, 1)
	assert.Equal(t, protocol.SeverityError, got[0].Severity)
}

func TestCacheSecondPublishReplacesWholesaleAndFiresTwice(t *testing.T) {
	cache := diagnostics.NewCache()

	var updates int
	cache.Subscribe(func(uri protocol.DocumentURI, entries []diagnostics.Entry) {
		updates++
	})

	cache.Publish("file:///a.c", []protocol.Diagnostic{{Message: "first"}})
	cache.Publish("file:///a.c", []protocol.Diagnostic{{Message: "second"}})

	assert.Equal(t, 2, updates)

	got := cache.Get("file:///a.c")
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Message)
}

func TestCacheInvalidateClearsEntry(t *testing.T) {
	cache := diagnostics.NewCache()
	cache.Publish("file:///a.c", []protocol.Diagnostic{{Message: "x"}})
	require.Len(t, cache.Get("file:///a.c"), 1)

	cache.Invalidate("file:///a.c")
	assert.Empty(t, cache.Get("file:///a.c"))
}

func TestCacheRelatedInformationStaysAttachedToOwningFile(t *testing.T) {
	cache := diagnostics.NewCache()
	cache.Publish("file:///a.c", []protocol.Diagnostic{
		{
			Message:  "redefinition of 'foo'",
			Severity: protocol.SeverityError,
			RelatedInformation: []protocol.DiagnosticRelatedInformation{
				{Location: protocol.Location{URI: "file:///b.c"}, Message: "previously defined here"},
			},
		},
	})

	got := cache.Get("file:///a.c")
	require.Len(t, got, 1)
	require.Len(t, got[0].Related, 1)
	assert.Equal(t, protocol.DocumentURI("file:///b.c"), got[0].Related[0].Location.URI)

	// The related location never gets its own cache entry (spec.md §4.C).
	assert.Empty(t, cache.Get("file:///b.c"))
}
