// Package backup encodes and decodes the portable backup envelope. The
// format is versioned JSON so a file exported today can be restored by a
// later build.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"spendrill/internal/core"
	"spendrill/internal/storage"
)

// Version is the current envelope format version.
const Version = 1

// Envelope is the on-disk backup document.
type Envelope struct {
	Version    int    `json:"version"`
	ExportedAt string `json:"exportedAt"`
	Data       Data   `json:"data"`
}

// Data carries the three collections. Settings keep their raw JSON values so
// keys this layer does not own round-trip unchanged.
type Data struct {
	Transactions []core.Transaction `json:"transactions"`
	Categories   []core.Category    `json:"categories"`
	Settings     []core.Setting     `json:"settings"`
}

// Summary reports what an import wrote.
type Summary struct {
	Transactions int  `json:"transactions"`
	Categories   int  `json:"categories"`
	Settings     int  `json:"settings"`
	Cleared      bool `json:"cleared"`
}

// Export reads the store and builds a version-1 envelope.
func Export(ctx context.Context, store *storage.Store) (*Envelope, error) {
	txs, cats, settings, err := store.ExportData(ctx)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Version:    Version,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Data: Data{
			Transactions: txs,
			Categories:   cats,
			Settings:     settings,
		},
	}

	slog.InfoContext(ctx, "backup exported",
		"transactions", len(txs),
		"categories", len(cats),
		"settings", len(settings))
	return env, nil
}

// Import parses raw as an envelope and restores it through the store in one
// atomic transaction. Malformed input is rejected before anything is written:
// the whole import aborts, there are no partial restores and no retries.
func Import(ctx context.Context, store *storage.Store, raw []byte, clearExisting bool) (*Summary, error) {
	env, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	if err := store.Import(ctx, env.Data.Categories, env.Data.Transactions, env.Data.Settings, clearExisting); err != nil {
		return nil, fmt.Errorf("restore backup: %w", err)
	}

	return &Summary{
		Transactions: len(env.Data.Transactions),
		Categories:   len(env.Data.Categories),
		Settings:     len(env.Data.Settings),
		Cleared:      clearExisting,
	}, nil
}

// Parse validates the envelope shape without touching the store.
func Parse(raw []byte) (*Envelope, error) {
	// Decode into a shell with a raw data field first, so "data missing"
	// and "data malformed" are distinguishable from generic JSON noise.
	var shell struct {
		Version    int             `json:"version"`
		ExportedAt string          `json:"exportedAt"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &shell); err != nil {
		return nil, &core.MalformedBackupError{Reason: "not a JSON object: " + err.Error()}
	}
	if len(shell.Data) == 0 || string(shell.Data) == "null" {
		return nil, &core.MalformedBackupError{Reason: "missing data section"}
	}
	if shell.Version > Version {
		return nil, &core.MalformedBackupError{Reason: fmt.Sprintf("unsupported version %d", shell.Version)}
	}

	var data Data
	if err := json.Unmarshal(shell.Data, &data); err != nil {
		return nil, &core.MalformedBackupError{Reason: "invalid data section: " + err.Error()}
	}

	return &Envelope{Version: shell.Version, ExportedAt: shell.ExportedAt, Data: data}, nil
}
