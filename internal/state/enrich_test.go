package state

import (
	"testing"

	"spendrill/internal/core"
)

func TestEnrichIconFallbackChain(t *testing.T) {
	tx := core.Transaction{ID: "t1", CatID: "food", SubID: "coffee"}

	tests := []struct {
		name string
		cat  core.Category
		want string
	}{
		{
			name: "sub image wins over everything",
			cat: core.Category{ID: "food", Name: "Food", Emoji: "🍽️", Image: "cat.png",
				Subcategories: []core.Subcategory{{ID: "coffee", Name: "Coffee", Emoji: "☕", Image: "coffee.png"}}},
			want: "coffee.png",
		},
		{
			name: "sub emoji before cat image",
			cat: core.Category{ID: "food", Name: "Food", Emoji: "🍽️", Image: "cat.png",
				Subcategories: []core.Subcategory{{ID: "coffee", Name: "Coffee", Emoji: "☕"}}},
			want: "☕",
		},
		{
			name: "cat image before cat emoji",
			cat: core.Category{ID: "food", Name: "Food", Emoji: "🍽️", Image: "cat.png",
				Subcategories: []core.Subcategory{{ID: "coffee", Name: "Coffee"}}},
			want: "cat.png",
		},
		{
			name: "cat emoji as last resort before default",
			cat: core.Category{ID: "food", Name: "Food", Emoji: "🍽️",
				Subcategories: []core.Subcategory{{ID: "coffee", Name: "Coffee"}}},
			want: "🍽️",
		},
		{
			name: "default glyph when nothing set",
			cat: core.Category{ID: "food", Name: "Food",
				Subcategories: []core.Subcategory{{ID: "coffee", Name: "Coffee"}}},
			want: fallbackIcon,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enrich(tx, map[string]core.Category{"food": tt.cat})
			if got.Icon != tt.want {
				t.Errorf("icon = %q, want %q", got.Icon, tt.want)
			}
		})
	}
}

func TestEnrichDanglingCategory(t *testing.T) {
	tx := core.Transaction{ID: "t1", CatID: "deleted", SubID: "gone", Amount: 5, Date: "2025-12-01"}
	got := enrich(tx, map[string]core.Category{})

	if got.CatName != fallbackCategoryName {
		t.Errorf("catName = %q, want %q", got.CatName, fallbackCategoryName)
	}
	if got.Icon != fallbackIcon {
		t.Errorf("icon = %q, want %q", got.Icon, fallbackIcon)
	}
	if got.Amount != 5 || got.Date != "2025-12-01" {
		t.Error("enrichment must not alter the underlying record")
	}
}

func TestEnrichJoinsDisplayFields(t *testing.T) {
	cats := map[string]core.Category{
		"food": {ID: "food", Name: "Food & Dining", Emoji: "🍽️",
			Subcategories: []core.Subcategory{{ID: "coffee", Name: "Tea & Coffee", Emoji: "☕"}}},
	}
	got := enrich(core.Transaction{CatID: "food", SubID: "coffee"}, cats)

	if got.CatName != "Food & Dining" || got.CatEmoji != "🍽️" {
		t.Errorf("category fields not joined: %+v", got)
	}
	if got.SubName != "Tea & Coffee" || got.SubEmoji != "☕" {
		t.Errorf("subcategory fields not joined: %+v", got)
	}
}

func TestEnrichAllPreservesOrder(t *testing.T) {
	txs := []core.Transaction{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := enrichAll(txs, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, tx := range txs {
		if got[i].ID != tx.ID {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, tx.ID)
		}
	}
}
