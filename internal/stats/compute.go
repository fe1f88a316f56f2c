package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"spendrill/internal/core"
)

// Compute runs one linear pass over the transaction list and returns the
// aggregate payload. It is pure: no state survives between calls.
//
// Semantics:
//   - non-finite amounts count as 0 but still increment the count
//   - category totals are keyed by catId; ties on the top category go to the
//     first-seen key
//   - month buckets are keyed by zero-padded "YYYY-MM"; monthlyTotal is the
//     bucket for the month of now
//   - average is round(sum/count), 0 for an empty list
//   - trend is the last three month buckets in chronological order
func Compute(transactions []core.EnrichedTransaction, now time.Time) Payload {
	currentMonth := monthKey(now.Year(), int(now.Month()))

	var sum float64
	count := 0
	categoryTotals := make(map[string]float64)
	var categoryOrder []string
	months := make(map[string]float64)

	for _, tx := range transactions {
		amount := tx.Amount
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			amount = 0
		}
		sum += amount
		count++

		catKey := tx.CatID
		if catKey == "" {
			catKey = "uncategorized"
		}
		if _, seen := categoryTotals[catKey]; !seen {
			categoryOrder = append(categoryOrder, catKey)
		}
		categoryTotals[catKey] += amount

		if key, ok := monthOf(tx.Date); ok {
			months[key] += amount
		}
	}

	payload := Payload{
		MonthlyTotal:   months[currentMonth],
		CategoryTotals: categoryTotals,
		Trend:          []MonthTotal{},
	}

	if count > 0 {
		payload.Average = math.Round(sum / float64(count))
	}

	var topTotal float64
	for _, key := range categoryOrder {
		if payload.TopCategory == nil || categoryTotals[key] > topTotal {
			k := key
			payload.TopCategory = &k
			topTotal = categoryTotals[key]
		}
	}

	keys := make([]string, 0, len(months))
	for key := range months {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > 3 {
		keys = keys[len(keys)-3:]
	}
	for _, key := range keys {
		payload.Trend = append(payload.Trend, MonthTotal{Month: key, Total: months[key]})
	}

	return payload
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// monthOf derives the aggregation bucket from an ISO date string. Dates that
// do not parse contribute to sum and count but land in no month bucket.
func monthOf(date string) (string, bool) {
	if len(date) < 10 {
		return "", false
	}
	t, err := time.Parse("2006-01-02", date[:10])
	if err != nil {
		return "", false
	}
	return monthKey(t.Year(), int(t.Month())), true
}
