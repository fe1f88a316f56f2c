// Package state is the snapshot cache: it orchestrates the store, the
// dispatcher and the stats worker behind one in-memory view of the data.
// All mutations flow through the Manager so the cached snapshot, the
// database and the "state-changed" subscribers never disagree.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"spendrill/internal/backup"
	"spendrill/internal/bus"
	"spendrill/internal/core"
	"spendrill/internal/stats"
	"spendrill/internal/storage"
)

// Manager owns the cached snapshot. It is constructed explicitly and handed
// its collaborators; there is no package-level instance. The cached snapshot
// is replaced wholesale on every refresh and must be treated as read-only by
// callers.
type Manager struct {
	store  *storage.Store
	bus    *bus.Bus
	worker *stats.Worker

	mu       sync.RWMutex
	snapshot *core.Snapshot
}

func NewManager(store *storage.Store, b *bus.Bus, worker *stats.Worker) *Manager {
	return &Manager{store: store, bus: b, worker: worker}
}

// LoadSnapshot reads all three collections concurrently, enriches every
// transaction against the category index and installs the result as the
// cached snapshot.
func (m *Manager) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	var (
		txs      []core.Transaction
		cats     []core.Category
		settings []core.Setting
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = m.store.ListTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = m.store.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = m.store.ListSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap := buildSnapshot(txs, cats, settings)

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	slog.DebugContext(ctx, "snapshot loaded",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories),
		"settings", len(snap.Settings))
	return snap, nil
}

// Snapshot returns the cached snapshot, nil before the first LoadSnapshot.
func (m *Manager) Snapshot() *core.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// RefreshTransactions re-reads the transaction collection and re-enriches it
// against the cached categories. Falls back to a full load when nothing is
// cached yet.
func (m *Manager) RefreshTransactions(ctx context.Context) (*core.Snapshot, error) {
	prev := m.Snapshot()
	if prev == nil {
		return m.LoadSnapshot(ctx)
	}

	txs, err := m.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh transactions: %w", err)
	}

	snap := &core.Snapshot{
		Transactions: enrichAll(txs, indexCategories(prev.Categories)),
		Categories:   prev.Categories,
		Settings:     prev.Settings,
		PinHash:      prev.PinHash,
	}

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()
	return snap, nil
}

// RefreshCategories re-reads the category collection. Every cached
// transaction is re-enriched afterwards; category display fields are
// denormalized into the enriched records, so skipping this would leave
// stale names and icons in the snapshot.
func (m *Manager) RefreshCategories(ctx context.Context) (*core.Snapshot, error) {
	prev := m.Snapshot()
	if prev == nil {
		return m.LoadSnapshot(ctx)
	}

	cats, err := m.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh categories: %w", err)
	}

	txs, err := m.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh categories: %w", err)
	}

	snap := &core.Snapshot{
		Transactions: enrichAll(txs, indexCategories(cats)),
		Categories:   cats,
		Settings:     prev.Settings,
		PinHash:      prev.PinHash,
	}

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()
	return snap, nil
}

// AddTransaction persists the record, refreshes the cached view and notifies
// subscribers. The returned record is the enriched form of what was stored.
func (m *Manager) AddTransaction(ctx context.Context, tx core.Transaction) (core.EnrichedTransaction, error) {
	stored, err := m.store.AddTransaction(ctx, tx)
	if err != nil {
		return core.EnrichedTransaction{}, err
	}

	snap, err := m.RefreshTransactions(ctx)
	if err != nil {
		return core.EnrichedTransaction{}, err
	}

	m.bus.Emit(bus.TopicStateChanged, snap)
	return enrich(stored, indexCategories(snap.Categories)), nil
}

// UpdateTransaction applies a partial update and refreshes like AddTransaction.
func (m *Manager) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.EnrichedTransaction, error) {
	stored, err := m.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		return core.EnrichedTransaction{}, err
	}

	snap, err := m.RefreshTransactions(ctx)
	if err != nil {
		return core.EnrichedTransaction{}, err
	}

	m.bus.Emit(bus.TopicStateChanged, snap)
	return enrich(stored, indexCategories(snap.Categories)), nil
}

func (m *Manager) DeleteTransaction(ctx context.Context, id string) error {
	if err := m.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	snap, err := m.RefreshTransactions(ctx)
	if err != nil {
		return err
	}

	m.bus.Emit(bus.TopicStateChanged, snap)
	return nil
}

func (m *Manager) AddCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	stored, err := m.store.AddCategory(ctx, cat)
	if err != nil {
		return core.Category{}, err
	}

	snap, err := m.RefreshCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}

	m.bus.Emit(bus.TopicStateChanged, snap)
	return stored, nil
}

func (m *Manager) UpdateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	stored, err := m.store.UpdateCategory(ctx, cat)
	if err != nil {
		return core.Category{}, err
	}

	snap, err := m.RefreshCategories(ctx)
	if err != nil {
		return core.Category{}, err
	}

	m.bus.Emit(bus.TopicStateChanged, snap)
	return stored, nil
}

// DeleteCategory deletes a category, cascading to its transactions when
// force is set. The conflict error from the store passes through untouched
// so callers can inspect the dependent count.
func (m *Manager) DeleteCategory(ctx context.Context, id string, force bool) error {
	if err := m.store.DeleteCategory(ctx, id, force); err != nil {
		return err
	}

	snap, err := m.RefreshCategories(ctx)
	if err != nil {
		return err
	}

	m.bus.Emit(bus.TopicStateChanged, snap)
	return nil
}

// SaveSetting persists a setting and patches it into the cached snapshot.
func (m *Manager) SaveSetting(ctx context.Context, key string, value json.RawMessage) error {
	if err := m.store.SaveSetting(ctx, key, value); err != nil {
		return err
	}

	prev := m.Snapshot()
	if prev == nil {
		return nil
	}

	settings := make(map[string]json.RawMessage, len(prev.Settings)+1)
	for k, v := range prev.Settings {
		settings[k] = v
	}
	settings[key] = value

	snap := &core.Snapshot{
		Transactions: prev.Transactions,
		Categories:   prev.Categories,
		Settings:     settings,
		PinHash:      pinHashFrom(settings),
	}

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	m.bus.Emit(bus.TopicStateChanged, snap)
	return nil
}

// SetPinHash stores the SHA-256 hex digest of the PIN. Verification and
// entry UI live above this layer.
func (m *Manager) SetPinHash(ctx context.Context, hash string) error {
	value, err := json.Marshal(hash)
	if err != nil {
		return fmt.Errorf("encode pin hash: %w", err)
	}
	return m.SaveSetting(ctx, core.SettingPinHash, value)
}

// ComputeStats hands a copy of the cached enriched transactions to the
// worker. The result arrives asynchronously on the "stats-ready" topic.
// Before the first load there is nothing to compute and the call is a no-op.
func (m *Manager) ComputeStats() {
	snap := m.Snapshot()
	if snap == nil {
		return
	}

	m.worker.Submit(stats.Request{
		Type:    stats.TypeCompute,
		Payload: stats.RequestPayload{Transactions: snap.Transactions},
	})
}

// ImportBackup restores a backup envelope through the store, rebuilds the
// snapshot and announces both the import and the new state.
func (m *Manager) ImportBackup(ctx context.Context, raw []byte, clearExisting bool) error {
	summary, err := backup.Import(ctx, m.store, raw, clearExisting)
	if err != nil {
		return err
	}

	snap, err := m.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	m.bus.Emit(bus.TopicDataImported, summary)
	m.bus.Emit(bus.TopicStateChanged, snap)
	return nil
}

func buildSnapshot(txs []core.Transaction, cats []core.Category, settings []core.Setting) *core.Snapshot {
	settingsMap := make(map[string]json.RawMessage, len(settings))
	for _, s := range settings {
		settingsMap[s.Key] = s.Value
	}

	return &core.Snapshot{
		Transactions: enrichAll(txs, indexCategories(cats)),
		Categories:   cats,
		Settings:     settingsMap,
		PinHash:      pinHashFrom(settingsMap),
	}
}

func pinHashFrom(settings map[string]json.RawMessage) string {
	raw, ok := settings[core.SettingPinHash]
	if !ok {
		return ""
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return ""
	}
	return hash
}
