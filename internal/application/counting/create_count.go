package counting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/counting"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

// CreateCountUseCase crea sesiones de conteo y puebla sus ítems.
// Si el conteo congela movimientos, aquí se toman los bloqueos en el libro
// (controlador de congelamiento): primero el lock, luego la foto de cantidad,
// para que la foto no pueda quedar desfasada respecto del par ya congelado.
type CreateCountUseCase struct {
	txRunner TxRunner
	ledger   StockLedger
	catalog  ItemCatalog
}

// NewCreateCountUseCase construye el caso de uso.
func NewCreateCountUseCase(txRunner TxRunner, ledger StockLedger, catalog ItemCatalog) *CreateCountUseCase {
	return &CreateCountUseCase{txRunner: txRunner, ledger: ledger, catalog: catalog}
}

// CreateCountInput entrada para crear una sesión de conteo.
// ItemIDs es obligatorio para type=cycle e ignorado para full/partial.
type CreateCountInput struct {
	Type            string
	Warehouses      []string
	Section         string
	Category        string
	FreezeMovements bool
	CreatedBy       string
	ItemIDs         []string
}

// Create crea el conteo en borrador, resuelve el alcance contra el catálogo,
// toma la foto de sistema por ítem (y el lock si congela) y deja los agregados
// recalculados. Todo o nada: si algo falla se liberan los locks ya tomados.
func (uc *CreateCountUseCase) Create(ctx context.Context, input CreateCountInput) (*entity.InventoryCount, error) {
	if len(input.Warehouses) == 0 || input.CreatedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	switch input.Type {
	case entity.CountTypeFull, entity.CountTypePartial:
	case entity.CountTypeCycle:
		if len(input.ItemIDs) == 0 {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	scope, err := uc.resolveScope(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	count := &entity.InventoryCount{
		ID:               uuid.New().String(),
		CountNumber:      newCountNumber(now),
		Type:             input.Type,
		Warehouses:       input.Warehouses,
		Section:          input.Section,
		Category:         input.Category,
		FreezeMovements:  input.FreezeMovements,
		Status:           counting.StatusDraft,
		CreatedBy:        input.CreatedBy,
		CreatedDate:      now,
		TotalValue:       decimal.Zero,
		DiscrepancyValue: decimal.Zero,
		Version:          1,
	}

	// Locks tomados durante la población, para poder liberarlos si falla la tx.
	var locked []CatalogItem

	err = uc.txRunner.Run(ctx, func(
		counts repository.CountRepository,
		items repository.CountItemRepository,
		_ repository.AdjustmentRepository,
	) error {
		if err := counts.Create(count); err != nil {
			return err
		}
		built := make([]*entity.CountItem, 0, len(scope))
		for _, ci := range scope {
			item, err := uc.buildItem(ctx, count, ci)
			if err != nil {
				return err
			}
			if count.FreezeMovements {
				locked = append(locked, ci)
			}
			if err := items.Create(item); err != nil {
				return err
			}
			built = append(built, item)
		}
		counting.Recompute(built).Apply(count)
		return counts.UpdateAggregates(count)
	})
	if err != nil {
		uc.releaseLocks(ctx, count.ID, locked)
		return nil, err
	}
	return count, nil
}

// AddItems agrega ítems a un conteo existente (solo en draft/counting).
// Los pares ya presentes en el conteo se ignoran.
func (uc *CreateCountUseCase) AddItems(ctx context.Context, countID string, itemIDs []string) (*entity.InventoryCount, error) {
	if countID == "" || len(itemIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.InventoryCount
	var locked []CatalogItem

	err := uc.txRunner.Run(ctx, func(
		counts repository.CountRepository,
		items repository.CountItemRepository,
		_ repository.AdjustmentRepository,
	) error {
		count, err := counts.GetForUpdate(countID)
		if err != nil {
			return err
		}
		if count == nil {
			return domain.ErrNotFound
		}
		if !counting.Mutable(count.Status) {
			return domain.ErrInvalidState
		}
		scope, err := uc.catalog.GetByIDs(ctx, itemIDs, count.Warehouses)
		if err != nil {
			return err
		}
		for _, ci := range scope {
			existing, err := items.GetByKey(count.ID, ci.ItemID, ci.Warehouse)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			item, err := uc.buildItem(ctx, count, ci)
			if err != nil {
				return err
			}
			if count.FreezeMovements {
				locked = append(locked, ci)
			}
			if err := items.Create(item); err != nil {
				return err
			}
		}
		all, err := items.ListByCount(count.ID)
		if err != nil {
			return err
		}
		counting.Recompute(all).Apply(count)
		if err := counts.UpdateAggregates(count); err != nil {
			return err
		}
		result = count
		return nil
	})
	if err != nil {
		uc.releaseLocks(ctx, countID, locked)
		return nil, err
	}
	return result, nil
}

// resolveScope resuelve el alcance del conteo contra el catálogo de ítems.
func (uc *CreateCountUseCase) resolveScope(ctx context.Context, input CreateCountInput) ([]CatalogItem, error) {
	if input.Type == entity.CountTypeCycle {
		return uc.catalog.GetByIDs(ctx, input.ItemIDs, input.Warehouses)
	}
	return uc.catalog.ListInScope(ctx, input.Warehouses, input.Section, input.Category)
}

// buildItem congela el par si aplica y toma la foto de cantidad del libro.
// Si la foto falla, el lock recién tomado se libera aquí mismo: el caller solo
// conoce los locks de ítems construidos y no podría liberar este.
func (uc *CreateCountUseCase) buildItem(ctx context.Context, count *entity.InventoryCount, ci CatalogItem) (*entity.CountItem, error) {
	if count.FreezeMovements {
		if err := uc.ledger.Lock(ctx, ci.ItemID, ci.Warehouse, count.ID); err != nil {
			return nil, err
		}
	}
	qty, err := uc.ledger.GetQuantity(ctx, ci.ItemID, ci.Warehouse)
	if err != nil {
		if count.FreezeMovements {
			_ = uc.ledger.Unlock(ctx, ci.ItemID, ci.Warehouse, count.ID)
		}
		return nil, err
	}
	return &entity.CountItem{
		ID:             uuid.New().String(),
		CountID:        count.ID,
		ItemID:         ci.ItemID,
		Warehouse:      ci.Warehouse,
		Section:        ci.Section,
		Category:       ci.Category,
		Unit:           ci.Unit,
		SystemQuantity: qty,
		UnitPrice:      ci.UnitPrice,
	}, nil
}

// releaseLocks libera en mejor esfuerzo los locks tomados en una operación fallida.
func (uc *CreateCountUseCase) releaseLocks(ctx context.Context, ownerID string, locked []CatalogItem) {
	for _, ci := range locked {
		_ = uc.ledger.Unlock(ctx, ci.ItemID, ci.Warehouse, ownerID)
	}
}

// newCountNumber genera el consecutivo legible del conteo.
func newCountNumber(now time.Time) string {
	return fmt.Sprintf("CNT-%s-%s", now.Format("20060102"), uuid.New().String()[:8])
}
