package storage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"spendrill/internal/core"
)

//go:embed default_categories.yaml
var defaultCategoriesYAML []byte

// SampleTransactions is the demo data offered on a brand-new store. Loading
// it is opt-in (SeedSampleData) and guarded by its own persisted flag.
var SampleTransactions = []core.Transaction{
	{Amount: 120, CatID: "food_dining", SubID: "restaurants_cafes", Date: "2025-12-28"},
	{Amount: 45, CatID: "transportation", SubID: "cab", Date: "2025-12-27"},
	{Amount: 780, CatID: "shopping", SubID: "electronics_gadgets", Note: "New earphones", Date: "2025-12-25"},
	{Amount: 2300, CatID: "bills_utilities", SubID: "electricity_bill", Note: "Electricity bill", Date: "2025-12-20"},
	{Amount: 90, CatID: "food_dining", SubID: "tea_coffee_snacks", Note: "Starbucks", Date: "2025-12-24"},
	{Amount: 150, CatID: "cash_small_expenses", SubID: "water_bottle", Note: "Water + snacks", Date: "2025-12-23"},
	{Amount: 550, CatID: "health_medical", SubID: "medicines", Note: "Cold medicines", Date: "2025-12-22"},
	{Amount: 880, CatID: "entertainment", SubID: "movies", Note: "Movie night", Date: "2025-12-21"},
	{Amount: 1100, CatID: "work_career", SubID: "software_apps", Note: "Software tools", Date: "2025-12-19"},
	{Amount: 340, CatID: "transportation", SubID: "petrol_diesel", Note: "Fuel top-up", Date: "2025-12-26"},
	{Amount: 50, CatID: "cash_small_expenses", SubID: "chai_small_snacks", Note: "Evening chai", Date: "2025-12-25"},
	{Amount: 1600, CatID: "shopping", SubID: "clothing", Note: "New shirt", Date: "2025-12-18"},
}

// DefaultCategories decodes the embedded taxonomy.
func DefaultCategories() ([]core.Category, error) {
	var doc struct {
		Categories []core.Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(defaultCategoriesYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode default categories: %w", err)
	}
	return doc.Categories, nil
}

// seedDefaults populates the default category taxonomy exactly once, at
// store-creation time. The run is guarded by a persisted flag AND by actual
// emptiness: when the flag is missing but categories already exist, the flag
// is set and nothing is written, so the store never silently re-seeds.
func (s *Store) seedDefaults(ctx context.Context) error {
	done, err := s.getBoolSetting(ctx, core.SettingSeedCompleted)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		slog.WarnContext(ctx, "seed flag missing but categories exist, marking seed complete", "count", count)
		return s.setBoolSetting(ctx, core.SettingSeedCompleted, true)
	}

	cats, err := DefaultCategories()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i := range cats {
		if err := insertCategory(ctx, tx, &cats[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	if err := s.setBoolSetting(ctx, core.SettingSeedCompleted, true); err != nil {
		return err
	}

	slog.InfoContext(ctx, "default taxonomy seeded", "categories", len(cats))
	return nil
}

// SeedSampleData loads the demo transactions once, guarded by the
// sampleDataLoaded flag. Samples referencing a category or subcategory that
// no longer exists are skipped.
func (s *Store) SeedSampleData(ctx context.Context) error {
	loaded, err := s.getBoolSetting(ctx, core.SettingSampleDataLoaded)
	if err != nil {
		return err
	}
	if loaded {
		return nil
	}

	inserted := 0
	for _, sample := range SampleTransactions {
		cat, err := s.GetCategory(ctx, sample.CatID)
		if err != nil {
			continue
		}
		if sample.SubID != "" && !hasSubcategory(cat, sample.SubID) {
			continue
		}
		if _, err := s.AddTransaction(ctx, sample); err != nil {
			slog.WarnContext(ctx, "sample transaction skipped", "cat_id", sample.CatID, "error", err)
			continue
		}
		inserted++
	}

	if err := s.setBoolSetting(ctx, core.SettingSampleDataLoaded, true); err != nil {
		return err
	}

	slog.InfoContext(ctx, "sample transactions loaded", "count", inserted)
	return nil
}

func hasSubcategory(cat core.Category, subID string) bool {
	for _, sub := range cat.Subcategories {
		if sub.ID == subID {
			return true
		}
	}
	return false
}
