package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spendrill/internal/core"
)

// AddCategory writes a category, deriving a slug id from the name when none
// is supplied. Re-adding a category whose id already exists is a
// duplicate-proof upsert: the existing record is returned unchanged and
// nothing is written.
func (s *Store) AddCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	if strings.TrimSpace(cat.ID) == "" {
		cat.ID = core.Slugify(cat.Name)
	}

	existing, err := s.GetCategory(ctx, cat.ID)
	if err == nil {
		slog.DebugContext(ctx, "category already exists, returning existing record", "id", cat.ID)
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Category{}, fmt.Errorf("begin add category: %w", err)
	}
	defer tx.Rollback()

	if err := insertCategory(ctx, tx, &cat); err != nil {
		return core.Category{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Category{}, fmt.Errorf("commit add category: %w", err)
	}

	slog.InfoContext(ctx, "category added", "id", cat.ID, "name", cat.Name, "subcategories", len(cat.Subcategories))
	return cat, nil
}

// UpdateCategory replaces an existing category record, subcategories
// included.
func (s *Store) UpdateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	if strings.TrimSpace(cat.ID) == "" {
		return core.Category{}, fmt.Errorf("%w: category id", core.ErrNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Category{}, fmt.Errorf("begin update category: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE categories SET name = ?, emoji = ?, image = ? WHERE id = ?`,
		cat.Name, cat.Emoji, cat.Image, cat.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if affected == 0 {
		return core.Category{}, fmt.Errorf("%w: category %s", core.ErrNotFound, cat.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM subcategories WHERE cat_id = ?`, cat.ID); err != nil {
		return core.Category{}, fmt.Errorf("replace subcategories: %w", err)
	}
	if err := insertSubcategories(ctx, tx, &cat); err != nil {
		return core.Category{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Category{}, fmt.Errorf("commit update category: %w", err)
	}

	slog.InfoContext(ctx, "category updated", "id", cat.ID, "name", cat.Name)
	return cat, nil
}

// DeleteCategory removes a category. With dependents and force unset it
// fails with a Conflict error and changes nothing. With force set, the
// category and every dependent transaction are removed in one atomic
// transaction.
func (s *Store) DeleteCategory(ctx context.Context, id string, force bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: category %s", core.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("lookup category: %w", err)
	}

	var dependents int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE cat_id = ?`, id).Scan(&dependents)
	if err != nil {
		return fmt.Errorf("count dependent transactions: %w", err)
	}

	if dependents > 0 && !force {
		return &core.ConflictError{CategoryID: id, CategoryName: name, Dependents: dependents}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE cat_id = ?`, id); err != nil {
		return fmt.Errorf("delete dependent transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subcategories WHERE cat_id = ?`, id); err != nil {
		return fmt.Errorf("delete subcategories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}

	slog.InfoContext(ctx, "category deleted", "id", id, "cascaded_transactions", dependents)
	return nil
}

// GetCategory returns a category with its subcategories.
func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var cat core.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, emoji, image FROM categories WHERE id = ?`, id).
		Scan(&cat.ID, &cat.Name, &cat.Emoji, &cat.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("%w: category %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}

	if err := s.loadSubcategories(ctx, &cat); err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

// ListCategories returns every category in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, emoji, image FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var cat core.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Emoji, &cat.Image); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	for i := range cats {
		if err := s.loadSubcategories(ctx, &cats[i]); err != nil {
			return nil, err
		}
	}
	return cats, nil
}

func (s *Store) loadSubcategories(ctx context.Context, cat *core.Category) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, emoji, image FROM subcategories WHERE cat_id = ? ORDER BY position`, cat.ID)
	if err != nil {
		return fmt.Errorf("load subcategories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sub core.Subcategory
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Emoji, &sub.Image); err != nil {
			return fmt.Errorf("scan subcategory: %w", err)
		}
		cat.Subcategories = append(cat.Subcategories, sub)
	}
	return rows.Err()
}

func (s *Store) categoryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return exists, nil
}

// insertCategory writes a category and its subcategories inside tx,
// deriving subcategory slug ids where missing.
func insertCategory(ctx context.Context, tx *sql.Tx, cat *core.Category) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO categories (id, name, emoji, image) VALUES (?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.Emoji, cat.Image); err != nil {
		return fmt.Errorf("insert category %s: %w", cat.ID, err)
	}
	return insertSubcategories(ctx, tx, cat)
}

func insertSubcategories(ctx context.Context, tx *sql.Tx, cat *core.Category) error {
	for i := range cat.Subcategories {
		sub := &cat.Subcategories[i]
		if strings.TrimSpace(sub.ID) == "" {
			sub.ID = core.Slugify(sub.Name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subcategories (cat_id, id, name, position, emoji, image) VALUES (?, ?, ?, ?, ?, ?)`,
			cat.ID, sub.ID, sub.Name, i, sub.Emoji, sub.Image); err != nil {
			return fmt.Errorf("insert subcategory %s/%s: %w", cat.ID, sub.ID, err)
		}
	}
	return nil
}
