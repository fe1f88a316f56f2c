package storage

import (
	"context"
	"fmt"

	"spendrill/internal/core"
)

// ExportData reads all three collections for a backup envelope. Reads run
// on one connection back to back; the cooperative single-writer model makes
// that as consistent as the original export was.
func (s *Store) ExportData(ctx context.Context) ([]core.Transaction, []core.Category, []core.Setting, error) {
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("export transactions: %w", err)
	}
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("export categories: %w", err)
	}
	settings, err := s.ListSettings(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("export settings: %w", err)
	}
	return txs, cats, settings, nil
}
