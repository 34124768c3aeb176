package counting_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	appcounting "github.com/jhoicas/Conteo-api/internal/application/counting"
	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
	"github.com/jhoicas/Conteo-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria de los puertos de persistencia.
// memStore emula la semántica relevante de Postgres: escritura condicionada por
// versión, fijación única de la referencia e inserción idempotente de ajustes.
// txMu serializa las "transacciones" como lo haría el lock de fila del conteo.
// ──────────────────────────────────────────────────────────────────────────────

type itemKey struct{ countID, itemID, warehouse string }

type pairKey struct{ itemID, warehouse string }

type memStore struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	counts      map[string]*entity.InventoryCount
	items       map[itemKey]*entity.CountItem
	adjustments map[itemKey]*entity.AdjustmentMovement
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		counts:      map[string]*entity.InventoryCount{},
		items:       map[itemKey]*entity.CountItem{},
		adjustments: map[itemKey]*entity.AdjustmentMovement{},
	}
}

func cloneCount(c *entity.InventoryCount) *entity.InventoryCount {
	cp := *c
	cp.Warehouses = append([]string(nil), c.Warehouses...)
	if c.StartedDate != nil {
		t := *c.StartedDate
		cp.StartedDate = &t
	}
	if c.CompletedDate != nil {
		t := *c.CompletedDate
		cp.CompletedDate = &t
	}
	return &cp
}

func cloneItem(it *entity.CountItem) *entity.CountItem {
	cp := *it
	cp.Rounds = append([]entity.CountingRound(nil), it.Rounds...)
	if it.CountedQuantity != nil {
		q := *it.CountedQuantity
		cp.CountedQuantity = &q
	}
	if it.SystemQuantityAtFinalization != nil {
		q := *it.SystemQuantityAtFinalization
		cp.SystemQuantityAtFinalization = &q
	}
	if it.CountedDate != nil {
		t := *it.CountedDate
		cp.CountedDate = &t
	}
	return &cp
}

// memCounts implementa repository.CountRepository.
type memCounts struct{ s *memStore }

func (r memCounts) Create(count *entity.InventoryCount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.counts[count.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.counts[count.ID] = cloneCount(count)
	return nil
}

func (r memCounts) GetByID(id string) (*entity.InventoryCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.counts[id]
	if !ok {
		return nil, nil
	}
	return cloneCount(c), nil
}

func (r memCounts) GetForUpdate(id string) (*entity.InventoryCount, error) {
	return r.GetByID(id)
}

// UpdateStatusVersioned replica el contrato del repositorio real: CAS sobre la
// versión, escribe solo estado y sellos, nunca las columnas de agregados.
func (r memCounts) UpdateStatusVersioned(count *entity.InventoryCount, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.counts[count.ID]
	if !ok || stored.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}
	stored.Status = count.Status
	stored.ApprovedBy = count.ApprovedBy
	stored.StartedDate = nil
	if count.StartedDate != nil {
		t := *count.StartedDate
		stored.StartedDate = &t
	}
	stored.CompletedDate = nil
	if count.CompletedDate != nil {
		t := *count.CompletedDate
		stored.CompletedDate = &t
	}
	stored.Version = expectedVersion + 1
	count.Version = expectedVersion + 1
	return nil
}

func (r memCounts) UpdateAggregates(count *entity.InventoryCount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.counts[count.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.TotalItems = count.TotalItems
	stored.CountedItems = count.CountedItems
	stored.Discrepancies = count.Discrepancies
	stored.TotalValue = count.TotalValue
	stored.DiscrepancyValue = count.DiscrepancyValue
	return nil
}

func (r memCounts) List(filter repository.CountFilter) ([]*entity.InventoryCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.InventoryCount
	for _, c := range r.s.counts {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Warehouse != "" {
			found := false
			for _, w := range c.Warehouses {
				if w == filter.Warehouse {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		all = append(all, cloneCount(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

// memItems implementa repository.CountItemRepository.
type memItems struct{ s *memStore }

func (r memItems) key(it *entity.CountItem) itemKey {
	return itemKey{it.CountID, it.ItemID, it.Warehouse}
}

func (r memItems) Create(item *entity.CountItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := r.key(item)
	if _, ok := r.s.items[k]; ok {
		return domain.ErrDuplicate
	}
	r.s.items[k] = cloneItem(item)
	return nil
}

func (r memItems) GetByKey(countID, itemID, warehouse string) (*entity.CountItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[itemKey{countID, itemID, warehouse}]
	if !ok {
		return nil, nil
	}
	return cloneItem(it), nil
}

func (r memItems) ListByCount(countID string) ([]*entity.CountItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CountItem
	for _, it := range r.s.items {
		if it.CountID == countID {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r memItems) AppendRound(item *entity.CountItem, round entity.CountingRound) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.items[r.key(item)]
	if !ok {
		return domain.ErrNotFound
	}
	apply := func(it *entity.CountItem) {
		it.Rounds = append(it.Rounds, round)
		q := round.Quantity
		it.CountedQuantity = &q
		it.CountedBy = round.CountedBy
		t := round.CountedDate
		it.CountedDate = &t
		it.Notes = round.Notes
	}
	apply(stored)
	apply(item)
	return nil
}

func (r memItems) SetFinalQuantity(itemID string, qty decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.items {
		if it.ID != itemID {
			continue
		}
		if it.SystemQuantityAtFinalization == nil {
			q := qty
			it.SystemQuantityAtFinalization = &q
		}
		return *it.SystemQuantityAtFinalization, nil
	}
	return decimal.Zero, domain.ErrNotFound
}

func (r memItems) ListForReport(countID, warehouse string) ([]*entity.CountItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CountItem
	for _, it := range r.s.items {
		if countID != "" && it.CountID != countID {
			continue
		}
		if warehouse != "" && it.Warehouse != warehouse {
			continue
		}
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// memAdjustments implementa repository.AdjustmentRepository.
type memAdjustments struct{ s *memStore }

func (r memAdjustments) CreateIfAbsent(mov *entity.AdjustmentMovement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := itemKey{mov.CountID, mov.ItemID, mov.Warehouse}
	if _, ok := r.s.adjustments[k]; ok {
		return false, nil
	}
	r.s.seq++
	cp := *mov
	cp.ID = fmt.Sprintf("adj-%d", r.s.seq)
	r.s.adjustments[k] = &cp
	return true, nil
}

func (r memAdjustments) Exists(countID, itemID, warehouse string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.adjustments[itemKey{countID, itemID, warehouse}]
	return ok, nil
}

func (r memAdjustments) ListByCount(countID string) ([]*entity.AdjustmentMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AdjustmentMovement
	for _, m := range r.s.adjustments {
		if m.CountID == countID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// memTxRunner serializa las transacciones con un mutex, como el lock de fila,
// y restaura el estado previo si la función falla (rollback).
type memTxRunner struct{ s *memStore }

func (t memTxRunner) Run(ctx context.Context, fn func(
	counts repository.CountRepository,
	items repository.CountItemRepository,
	adjustments repository.AdjustmentRepository,
) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.Lock()
	prevCounts := map[string]*entity.InventoryCount{}
	for k, v := range t.s.counts {
		prevCounts[k] = cloneCount(v)
	}
	prevItems := map[itemKey]*entity.CountItem{}
	for k, v := range t.s.items {
		prevItems[k] = cloneItem(v)
	}
	prevAdjustments := map[itemKey]*entity.AdjustmentMovement{}
	for k, v := range t.s.adjustments {
		cp := *v
		prevAdjustments[k] = &cp
	}
	t.s.mu.Unlock()

	err := fn(memCounts{t.s}, memItems{t.s}, memAdjustments{t.s})
	if err != nil {
		t.s.mu.Lock()
		t.s.counts = prevCounts
		t.s.items = prevItems
		t.s.adjustments = prevAdjustments
		t.s.mu.Unlock()
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// fakeLedger: libro de stock en memoria con congelamiento por dueño y
// contabilización idempotente sobre (referenceID, itemID, warehouse).
// ──────────────────────────────────────────────────────────────────────────────

type fakeLedger struct {
	mu        sync.Mutex
	qty       map[pairKey]decimal.Decimal
	freezes   map[pairKey]string
	movements map[itemKey]string
	seq       int
	// failPosts restantes antes de que PostMovement empiece a fallar; -1 nunca falla.
	failAfter int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		qty:       map[pairKey]decimal.Decimal{},
		freezes:   map[pairKey]string{},
		movements: map[itemKey]string{},
		failAfter: -1,
	}
}

func (l *fakeLedger) setQuantity(itemID, warehouse string, q decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.qty[pairKey{itemID, warehouse}] = q
}

func (l *fakeLedger) GetQuantity(ctx context.Context, itemID, warehouse string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.qty[pairKey{itemID, warehouse}]
	if !ok {
		return decimal.Zero, nil
	}
	return q, nil
}

func (l *fakeLedger) PostMovement(ctx context.Context, kind, itemID, warehouse string, quantity decimal.Decimal, referenceID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pair := pairKey{itemID, warehouse}
	if owner, frozen := l.freezes[pair]; frozen && owner != referenceID {
		return "", domain.ErrLocked
	}
	k := itemKey{referenceID, itemID, warehouse}
	if id, ok := l.movements[k]; ok {
		return id, nil
	}
	if l.failAfter == 0 {
		return "", fmt.Errorf("%w: fallo simulado", domain.ErrLedgerUnavailable)
	}
	if l.failAfter > 0 {
		l.failAfter--
	}
	l.seq++
	id := fmt.Sprintf("mov-%d", l.seq)
	l.movements[k] = id
	l.qty[pair] = l.qty[pair].Add(quantity)
	return id, nil
}

func (l *fakeLedger) Lock(ctx context.Context, itemID, warehouse, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	pair := pairKey{itemID, warehouse}
	if owner, frozen := l.freezes[pair]; frozen && owner != ownerID {
		return domain.ErrLocked
	}
	l.freezes[pair] = ownerID
	return nil
}

func (l *fakeLedger) Unlock(ctx context.Context, itemID, warehouse, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	pair := pairKey{itemID, warehouse}
	if l.freezes[pair] == ownerID {
		delete(l.freezes, pair)
	}
	return nil
}

func (l *fakeLedger) frozenPairs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.freezes)
}

func (l *fakeLedger) movementCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.movements)
}

func (l *fakeLedger) quantity(itemID, warehouse string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.qty[pairKey{itemID, warehouse}]
}

// fakeCatalog catálogo de datos maestros en memoria.
type fakeCatalog struct {
	items []appcounting.CatalogItem
}

func (c *fakeCatalog) ListInScope(ctx context.Context, warehouses []string, section, category string) ([]appcounting.CatalogItem, error) {
	var out []appcounting.CatalogItem
	for _, it := range c.items {
		if !containsStr(warehouses, it.Warehouse) {
			continue
		}
		if section != "" && it.Section != section {
			continue
		}
		if category != "" && it.Category != category {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (c *fakeCatalog) GetByIDs(ctx context.Context, itemIDs, warehouses []string) ([]appcounting.CatalogItem, error) {
	var out []appcounting.CatalogItem
	for _, it := range c.items {
		if containsStr(itemIDs, it.ItemID) && containsStr(warehouses, it.Warehouse) {
			out = append(out, it)
		}
	}
	return out, nil
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────────────────────────────────
// fixture: todos los casos de uso armados sobre los dobles.
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store   *memStore
	ledger  *fakeLedger
	catalog *fakeCatalog

	create  *appcounting.CreateCountUseCase
	submit  *appcounting.SubmitCountUseCase
	trans   *appcounting.TransitionUseCase
	approve *appcounting.ApproveUseCase
	query   *appcounting.CountQueryUseCase
	report  *appcounting.ReportUseCase
}

func newFixture() *fixture {
	store := newMemStore()
	ledger := newFakeLedger()
	catalog := &fakeCatalog{}
	tx := memTxRunner{store}
	counts := memCounts{store}
	items := memItems{store}
	adjustments := memAdjustments{store}
	log := logger.New(logger.Config{Env: "production", Level: "error", Service: "conteo-test"})

	return &fixture{
		store:   store,
		ledger:  ledger,
		catalog: catalog,
		create:  appcounting.NewCreateCountUseCase(tx, ledger, catalog),
		submit:  appcounting.NewSubmitCountUseCase(tx),
		trans:   appcounting.NewTransitionUseCase(counts, items, ledger),
		approve: appcounting.NewApproveUseCase(counts, items, adjustments, ledger, log),
		query:   appcounting.NewCountQueryUseCase(counts, items),
		report:  appcounting.NewReportUseCase(items),
	}
}

// seedItem registra el ítem en el catálogo y su cantidad en el libro.
func (f *fixture) seedItem(itemID, warehouse, section, category string, qty, price decimal.Decimal) {
	f.catalog.items = append(f.catalog.items, appcounting.CatalogItem{
		ItemID:    itemID,
		Warehouse: warehouse,
		Section:   section,
		Category:  category,
		Unit:      "und",
		UnitPrice: price,
	})
	f.ledger.setQuantity(itemID, warehouse, qty)
}
