package state

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"spendrill/internal/backup"
	"spendrill/internal/bus"
	"spendrill/internal/core"
	"spendrill/internal/stats"
	"spendrill/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *bus.Bus) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "spendrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	b := bus.New()
	worker := stats.NewWorker(b, 4)
	return NewManager(store, b, worker), b
}

func TestSnapshotNilBeforeLoad(t *testing.T) {
	m, _ := newTestManager(t)
	if m.Snapshot() != nil {
		t.Error("snapshot should be nil before the first load")
	}
}

func TestLoadSnapshotEnriches(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.AddTransaction(ctx, core.Transaction{Date: "2025-12-20", Amount: 90, CatID: "food_dining", SubID: "tea_coffee_snacks"}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	snap, err := m.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(snap.Transactions))
	}

	tx := snap.Transactions[0]
	if tx.CatName != "Food & Dining" {
		t.Errorf("catName = %q, want %q", tx.CatName, "Food & Dining")
	}
	if tx.SubName == "" || tx.Icon == "" {
		t.Errorf("enrichment incomplete: %+v", tx)
	}
	if len(snap.Categories) != 20 {
		t.Errorf("expected the 20 seeded categories, got %d", len(snap.Categories))
	}
}

func TestAddTransactionEmitsStateChanged(t *testing.T) {
	m, b := newTestManager(t)
	ctx := context.Background()

	var events []*core.Snapshot
	b.On(bus.TopicStateChanged, func(payload any) {
		if snap, ok := payload.(*core.Snapshot); ok {
			events = append(events, snap)
		}
	})

	enriched, err := m.AddTransaction(ctx, core.Transaction{Date: "2025-12-20", Amount: 42, CatID: "shopping"})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	if enriched.ID == "" {
		t.Error("returned record should carry the generated id")
	}
	if enriched.CatName != "Shopping" {
		t.Errorf("returned record not enriched: catName = %q", enriched.CatName)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 state-changed event, got %d", len(events))
	}
	if len(events[0].Transactions) != 1 {
		t.Errorf("event snapshot should contain the new transaction")
	}
}

func TestUpdateAndDeleteTransactionRefreshCache(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	added, err := m.AddTransaction(ctx, core.Transaction{Date: "2025-12-20", Amount: 42, CatID: "shopping"})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	amount := 99.0
	updated, err := m.UpdateTransaction(ctx, added.ID, core.TransactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	if updated.Amount != 99 {
		t.Errorf("amount = %v, want 99", updated.Amount)
	}
	if got := m.Snapshot().Transactions[0].Amount; got != 99 {
		t.Errorf("cached amount = %v, want 99", got)
	}

	if err := m.DeleteTransaction(ctx, added.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if got := len(m.Snapshot().Transactions); got != 0 {
		t.Errorf("cached transactions after delete = %d, want 0", got)
	}
}

func TestRefreshCategoriesReenriches(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.AddTransaction(ctx, core.Transaction{Date: "2025-12-20", Amount: 10, CatID: "shopping"}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	if _, err := m.UpdateCategory(ctx, core.Category{ID: "shopping", Name: "Retail Therapy", Emoji: "🛒"}); err != nil {
		t.Fatalf("update category: %v", err)
	}

	// Renaming the category must flow through to the cached enriched records.
	if got := m.Snapshot().Transactions[0].CatName; got != "Retail Therapy" {
		t.Errorf("cached catName = %q, want %q", got, "Retail Therapy")
	}
}

func TestDeleteCategoryCascadeUpdatesSnapshot(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.AddTransaction(ctx, core.Transaction{Date: "2025-12-20", Amount: 10, CatID: "shopping"}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	err := m.DeleteCategory(ctx, "shopping", false)
	var conflict *core.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	if err := m.DeleteCategory(ctx, "shopping", true); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	snap := m.Snapshot()
	if len(snap.Transactions) != 0 {
		t.Errorf("cascaded transactions should be gone from the snapshot")
	}
	for _, cat := range snap.Categories {
		if cat.ID == "shopping" {
			t.Error("deleted category still in snapshot")
		}
	}
}

func TestSetPinHash(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.LoadSnapshot(ctx); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	hash := core.HashPin("1234")
	if err := m.SetPinHash(ctx, hash); err != nil {
		t.Fatalf("set pin hash: %v", err)
	}
	if got := m.Snapshot().PinHash; got != hash {
		t.Errorf("snapshot pinHash = %q, want %q", got, hash)
	}

	// Survives a full reload.
	snap, err := m.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("reload snapshot: %v", err)
	}
	if snap.PinHash != hash {
		t.Errorf("reloaded pinHash = %q, want %q", snap.PinHash, hash)
	}
}

func TestSaveSettingPatchesSnapshot(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.LoadSnapshot(ctx); err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	if err := m.SaveSetting(ctx, "theme", json.RawMessage(`"midnight"`)); err != nil {
		t.Fatalf("save setting: %v", err)
	}
	if got := string(m.Snapshot().Settings["theme"]); got != `"midnight"` {
		t.Errorf("cached setting = %s, want %q", got, `"midnight"`)
	}
}

func TestComputeStatsPublishesOnBus(t *testing.T) {
	m, b := newTestManager(t)
	ctx := context.Background()

	worker := stats.NewWorker(b, 4)
	m.worker = worker
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	defer worker.Stop()

	if _, err := m.AddTransaction(ctx, core.Transaction{Date: "2025-12-20", Amount: 120, CatID: "food_dining"}); err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	results := make(chan stats.Payload, 1)
	b.Once(bus.TopicStatsReady, func(payload any) {
		if p, ok := payload.(stats.Payload); ok {
			results <- p
		}
	})

	m.ComputeStats()

	select {
	case p := <-results:
		if p.CategoryTotals["food_dining"] != 120 {
			t.Errorf("categoryTotals = %v", p.CategoryTotals)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stats-ready")
	}
}

func TestComputeStatsBeforeLoadIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	m.ComputeStats() // must not panic with a stopped worker and no snapshot
}

func TestImportBackupEmitsDataImported(t *testing.T) {
	m, b := newTestManager(t)
	ctx := context.Background()

	var imported []*backup.Summary
	b.On(bus.TopicDataImported, func(payload any) {
		if s, ok := payload.(*backup.Summary); ok {
			imported = append(imported, s)
		}
	})

	raw := []byte(`{
		"version": 1,
		"exportedAt": "2026-01-01T00:00:00Z",
		"data": {
			"transactions": [{"id": "tx1", "date": "2025-12-05", "amount": 7, "note": "", "catId": "shopping"}],
			"categories": [],
			"settings": []
		}
	}`)
	if err := m.ImportBackup(ctx, raw, false); err != nil {
		t.Fatalf("import backup: %v", err)
	}

	if len(imported) != 1 {
		t.Fatalf("expected 1 data-imported event, got %d", len(imported))
	}
	if imported[0].Transactions != 1 {
		t.Errorf("summary transactions = %d, want 1", imported[0].Transactions)
	}
	if got := len(m.Snapshot().Transactions); got != 1 {
		t.Errorf("snapshot transactions = %d, want 1", got)
	}
}

func TestImportBackupRejectsMalformedWithoutStateChange(t *testing.T) {
	m, b := newTestManager(t)
	ctx := context.Background()

	fired := false
	b.On(bus.TopicDataImported, func(any) { fired = true })

	err := m.ImportBackup(ctx, []byte(`{"version": 1}`), true)
	var malformed *core.MalformedBackupError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected malformed backup error, got %v", err)
	}
	if fired {
		t.Error("data-imported must not fire on a rejected import")
	}
}
