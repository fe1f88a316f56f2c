package state

import "spendrill/internal/core"

// fallbackIcon is shown when neither the subcategory nor the category
// carries any display art.
const fallbackIcon = "🧾"

// fallbackCategoryName labels transactions whose category has been deleted
// out from under them.
const fallbackCategoryName = "Uncategorized"

// enrich joins a raw transaction against the category index. A dangling
// catId degrades gracefully instead of failing: the record keeps its data
// and renders with fallback display fields. The icon resolves through the
// fixed chain sub image, sub emoji, cat image, cat emoji, default glyph.
func enrich(tx core.Transaction, categories map[string]core.Category) core.EnrichedTransaction {
	out := core.EnrichedTransaction{Transaction: tx, CatName: fallbackCategoryName}

	cat, ok := categories[tx.CatID]
	if ok {
		out.CatName = cat.Name
		out.CatEmoji = cat.Emoji
		out.CatImage = cat.Image
		if tx.SubID != "" {
			for _, sub := range cat.Subcategories {
				if sub.ID == tx.SubID {
					out.SubName = sub.Name
					out.SubEmoji = sub.Emoji
					out.SubImage = sub.Image
					break
				}
			}
		}
	}

	switch {
	case out.SubImage != "":
		out.Icon = out.SubImage
	case out.SubEmoji != "":
		out.Icon = out.SubEmoji
	case out.CatImage != "":
		out.Icon = out.CatImage
	case out.CatEmoji != "":
		out.Icon = out.CatEmoji
	default:
		out.Icon = fallbackIcon
	}

	return out
}

// enrichAll maps enrich over a slice, preserving order.
func enrichAll(txs []core.Transaction, categories map[string]core.Category) []core.EnrichedTransaction {
	out := make([]core.EnrichedTransaction, len(txs))
	for i, tx := range txs {
		out[i] = enrich(tx, categories)
	}
	return out
}

func indexCategories(cats []core.Category) map[string]core.Category {
	m := make(map[string]core.Category, len(cats))
	for _, cat := range cats {
		m[cat.ID] = cat
	}
	return m
}
