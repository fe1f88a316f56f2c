package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendrill/internal/core"
)

// Import bulk-loads categories, transactions and settings inside a single
// atomic transaction. With clearExisting set, all three collections are
// wiped first. Merge rules: categories are inserted only when their id is
// not already present; transactions are upserted by id; settings are
// upserted by key. Invalid transaction records are skipped with a warning
// rather than failing the whole batch.
func (s *Store) Import(ctx context.Context, categories []core.Category, transactions []core.Transaction, settings []core.Setting, clearExisting bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if clearExisting {
		for _, stmt := range []string{
			`DELETE FROM transactions`,
			`DELETE FROM subcategories`,
			`DELETE FROM categories`,
			`DELETE FROM settings`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear existing data: %w", err)
			}
		}
	}

	catsInserted := 0
	for i := range categories {
		cat := categories[i]
		if strings.TrimSpace(cat.ID) == "" {
			cat.ID = core.Slugify(cat.Name)
		}
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, cat.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check category %s: %w", cat.ID, err)
		}
		if exists {
			continue
		}
		if err := insertCategory(ctx, tx, &cat); err != nil {
			return err
		}
		catsInserted++
	}

	txsUpserted := 0
	for _, t := range transactions {
		if err := t.Validate(); err != nil {
			slog.WarnContext(ctx, "transaction import skipped", "id", t.ID, "error", err)
			continue
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt == "" {
			t.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   date = excluded.date, amount = excluded.amount, note = excluded.note,
			   cat_id = excluded.cat_id, sub_id = excluded.sub_id, created_at = excluded.created_at`,
			t.ID, t.Date, t.Amount, t.Note, t.CatID, t.SubID, t.CreatedAt); err != nil {
			return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
		}
		txsUpserted++
	}

	for _, setting := range settings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			setting.Key, string(setting.Value)); err != nil {
			return fmt.Errorf("upsert setting %s: %w", setting.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "import committed",
		"categories", catsInserted,
		"transactions", txsUpserted,
		"settings", len(settings),
		"cleared", clearExisting)
	return nil
}
