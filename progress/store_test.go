package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/lspbridge/progress"
	"github.com/wharflab/lspbridge/protocol"
)

func strToken(s string) protocol.IntegerOrString {
	return protocol.IntegerOrString{String: &s}
}

func TestStoreBeginReportEndLifecycle(t *testing.T) {
	store := progress.NewStore()
	token := strToken("job-1")

	store.Create(token)
	_, ok := store.Get(token)
	assert.True(t, ok)

	pct := uint32(0)
	store.Begin(token, protocol.WorkDoneProgressBegin{Title: "Indexing", Percentage: &pct})

	got, ok := store.Get(token)
	require.True(t, ok)
	assert.Equal(t, "Indexing", got.Title)
	assert.Equal(t, uint32(0), *got.Percentage)

	half := uint32(50)
	store.Report(token, protocol.WorkDoneProgressReport{Message: "halfway", Percentage: &half})

	got, ok = store.Get(token)
	require.True(t, ok)
	assert.Equal(t, "halfway", got.Message)
	assert.Equal(t, uint32(50), *got.Percentage)

	store.End(token, protocol.WorkDoneProgressEnd{Message: "done"})

	_, ok = store.Get(token)
	assert.False(t, ok, "ended sessions are removed from the store")
}

func TestStoreReportWithoutBeginCreatesEntry(t *testing.T) {
	store := progress.NewStore()
	token := strToken("unsolicited")

	got := store.Report(token, protocol.WorkDoneProgressReport{Message: "still going"})
	assert.Equal(t, "still going", got.Message)

	fetched, ok := store.Get(token)
	require.True(t, ok)
	assert.Equal(t, "still going", fetched.Message)
}

func TestStoreIntegerTokenKeying(t *testing.T) {
	store := progress.NewStore()
	n := int64(42)
	token := protocol.IntegerOrString{Integer: &n}

	store.Begin(token, protocol.WorkDoneProgressBegin{Title: "compiling"})

	got, ok := store.Get(token)
	require.True(t, ok)
	assert.Equal(t, "42", got.Key)
	assert.Equal(t, "compiling", got.Title)
}
