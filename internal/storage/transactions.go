package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spendrill/internal/core"
)

const transactionColumns = `id, date, amount, note, cat_id, sub_id, created_at`

// AddTransaction validates and stores a transaction. The referenced category
// must exist at write time (a soft check, not a foreign-key constraint).
// Missing id and createdAt are filled in.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	exists, err := s.categoryExists(ctx, t.CatID)
	if err != nil {
		return core.Transaction{}, err
	}
	if !exists {
		return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrUnknownCategory, t.CatID)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date, t.Amount, t.Note, t.CatID, t.SubID, t.CreatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "insert transaction failed", "id", t.ID, "error", err)
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "transaction added",
		"id", t.ID, "amount", t.Amount, "cat_id", t.CatID, "date", t.Date)
	return t, nil
}

// UpdateTransaction merges a partial patch onto the stored record,
// re-validating every touched field. A patched catId is checked for
// existence the same way AddTransaction checks it.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	existing, err := s.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	merged := existing
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.Amount != nil {
		merged.Amount = *patch.Amount
	}
	if patch.Note != nil {
		merged.Note = *patch.Note
	}
	if patch.CatID != nil {
		merged.CatID = *patch.CatID
	}
	if patch.SubID != nil {
		merged.SubID = *patch.SubID
	}

	if err := merged.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if patch.CatID != nil {
		exists, err := s.categoryExists(ctx, merged.CatID)
		if err != nil {
			return core.Transaction{}, err
		}
		if !exists {
			return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrUnknownCategory, merged.CatID)
		}
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, amount = ?, note = ?, cat_id = ?, sub_id = ? WHERE id = ?`,
		merged.Date, merged.Amount, merged.Note, merged.CatID, merged.SubID, id)
	if err != nil {
		slog.ErrorContext(ctx, "update transaction failed", "id", id, "error", err)
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "transaction updated", "id", id)
	return merged, nil
}

// DeleteTransaction removes a transaction by id.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
	}

	slog.InfoContext(ctx, "transaction deleted", "id", id)
	return nil
}

// GetTransaction returns a single transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the full collection, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
}

// ListTransactionsByRange returns transactions whose date falls inside
// [from, to], inclusive on both ends.
func (s *Store) ListTransactionsByRange(ctx context.Context, from, to string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE date >= ? AND date <= ? ORDER BY date DESC, created_at DESC`,
		from, to)
}

// ListTransactionsByMonth prefix-scans dates for one "YYYY-MM" month.
func (s *Store) ListTransactionsByMonth(ctx context.Context, month string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE date LIKE ? ORDER BY date DESC, created_at DESC`,
		month+"%")
}

// SearchTransactions substring-matches q against note, amount and date.
func (s *Store) SearchTransactions(ctx context.Context, q string) ([]core.Transaction, error) {
	like := "%" + q + "%"
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE note LIKE ? OR date LIKE ? OR CAST(amount AS TEXT) LIKE ?
		 ORDER BY date DESC, created_at DESC`,
		like, like, like)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return txs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.Date, &t.Amount, &t.Note, &t.CatID, &t.SubID, &t.CreatedAt)
	return t, err
}
