package backup

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendrill/internal/core"
	"spendrill/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "spendrill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	_, err := src.AddTransaction(ctx, core.Transaction{Date: "2025-12-20", Amount: 42.5, Note: "dinner", CatID: "food_dining"})
	require.NoError(t, err)
	_, err = src.AddTransaction(ctx, core.Transaction{Date: "2025-12-21", Amount: 9, CatID: "transportation", SubID: "cab"})
	require.NoError(t, err)
	require.NoError(t, src.SaveSetting(ctx, "theme", json.RawMessage(`"midnight"`)))

	env, err := Export(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, Version, env.Version)
	assert.NotEmpty(t, env.ExportedAt)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	dst := newTestStore(t)
	summary, err := Import(ctx, dst, raw, true)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Transactions)
	assert.True(t, summary.Cleared)

	// The restored store matches the source byte for byte.
	gotTxs, gotCats, gotSettings, err := dst.ExportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.Data.Transactions, gotTxs)
	assert.Equal(t, env.Data.Categories, gotCats)
	assert.Equal(t, env.Data.Settings, gotSettings)
}

func TestImportMergeKeepsExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing, err := s.AddTransaction(ctx, core.Transaction{Date: "2025-12-01", Amount: 10, CatID: "shopping"})
	require.NoError(t, err)

	raw := []byte(`{
		"version": 1,
		"exportedAt": "2026-01-01T00:00:00Z",
		"data": {
			"transactions": [{"id": "tx-import", "date": "2025-12-05", "amount": 7, "note": "", "catId": "shopping"}],
			"categories": [],
			"settings": []
		}
	}`)
	_, err = Import(ctx, s, raw, false)
	require.NoError(t, err)

	_, err = s.GetTransaction(ctx, existing.ID)
	require.NoError(t, err, "merge import must not drop existing records")
	_, err = s.GetTransaction(ctx, "tx-import")
	require.NoError(t, err)
}

func TestImportRejectsMalformed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	before, _, _, err := s.ExportData(ctx)
	require.NoError(t, err)

	cases := map[string]string{
		"not json":            `{{{`,
		"missing data":        `{"version": 1}`,
		"null data":           `{"version": 1, "data": null}`,
		"data wrong type":     `{"version": 1, "data": {"transactions": "nope"}}`,
		"version from future": `{"version": 99, "data": {"transactions": []}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Import(ctx, s, []byte(raw), true)
			var malformed *core.MalformedBackupError
			require.ErrorAs(t, err, &malformed)
		})
	}

	// Nothing was written, even with clearExisting requested.
	after, _, _, err := s.ExportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestParseAcceptsMissingCollections(t *testing.T) {
	env, err := Parse([]byte(`{"version": 1, "data": {}}`))
	require.NoError(t, err)
	assert.Empty(t, env.Data.Transactions)
	assert.Empty(t, env.Data.Categories)
	assert.Empty(t, env.Data.Settings)
}
