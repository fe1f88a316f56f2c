package core

import (
	"encoding/json"
	"math"
	"strings"
)

// Subcategory is a nested entry inside a Category. Emoji and Image may both
// be empty; records created before the schema carried those fields are
// backfilled with empty strings on upgrade.
type Subcategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Image string `json:"image"`
}

// Category groups transactions. ID is a slug derived from Name unless
// explicitly supplied, which makes category creation idempotent.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Emoji         string        `json:"emoji"`
	Image         string        `json:"image"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Transaction is a raw stored expense. Date is an ISO date string
// (YYYY-MM-DD); Amount must be a positive finite number.
type Transaction struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note"`
	CatID     string  `json:"catId"`
	SubID     string  `json:"subId,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// TransactionPatch carries the fields of a partial update. Nil fields are
// left untouched on the stored record.
type TransactionPatch struct {
	Date   *string  `json:"date,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Note   *string  `json:"note,omitempty"`
	CatID  *string  `json:"catId,omitempty"`
	SubID  *string  `json:"subId,omitempty"`
}

// EnrichedTransaction is a Transaction joined against its category and
// subcategory display fields. Consumers only ever see this form; it is never
// persisted.
type EnrichedTransaction struct {
	Transaction
	CatName  string `json:"catName"`
	CatEmoji string `json:"catEmoji"`
	CatImage string `json:"catImage"`
	SubName  string `json:"subName"`
	SubEmoji string `json:"subEmoji"`
	SubImage string `json:"subImage"`
	Icon     string `json:"icon"`
}

// Setting is an arbitrary key/value pair. Value is kept as raw JSON so
// structured values round-trip unchanged.
type Setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Snapshot is the single in-memory view combining enriched transactions,
// categories and settings. It is rebuilt or patched by the state manager.
type Snapshot struct {
	Transactions []EnrichedTransaction      `json:"transactions"`
	Categories   []Category                 `json:"categories"`
	Settings     map[string]json.RawMessage `json:"settings"`
	PinHash      string                     `json:"pinHash,omitempty"`
}

// Well-known setting keys owned by the data layer. Theme and backup-path
// settings pass through this layer opaque.
const (
	SettingSeedCompleted    = "seedCompleted"
	SettingSampleDataLoaded = "sampleDataLoaded"
	SettingPinHash          = "pinHash"
)

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Date) == "" {
		return ErrMissingDate
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(t.CatID) == "" {
		return ErrMissingCategory
	}
	return nil
}

// ValidateAmount enforces a strictly positive finite amount.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
