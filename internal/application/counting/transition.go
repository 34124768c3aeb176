package counting

import (
	"context"
	"time"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/counting"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

// TransitionUseCase mueve el conteo por su ciclo de vida con escritura
// condicionada por versión. Un choque de versiones devuelve
// ErrConcurrentModification y no debe reintentarse a ciegas.
type TransitionUseCase struct {
	counts repository.CountRepository
	items  repository.CountItemRepository
	ledger StockLedger
}

// NewTransitionUseCase construye el caso de uso.
func NewTransitionUseCase(counts repository.CountRepository, items repository.CountItemRepository, ledger StockLedger) *TransitionUseCase {
	return &TransitionUseCase{counts: counts, items: items, ledger: ledger}
}

// Transition aplica countID→target. La arista hacia approved no pasa por aquí:
// aprobar contabiliza ajustes y solo el coordinador de aprobación puede hacerlo.
func (uc *TransitionUseCase) Transition(ctx context.Context, countID, target, actor string) (*entity.InventoryCount, error) {
	if countID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if target == counting.StatusApproved {
		return nil, domain.ErrInvalidInput
	}
	count, err := uc.counts.GetByID(countID)
	if err != nil {
		return nil, err
	}
	if count == nil {
		return nil, domain.ErrNotFound
	}
	prevVersion := count.Version
	if err := counting.Transition(count, target, actor, time.Now()); err != nil {
		return nil, err
	}
	if err := uc.counts.UpdateStatusVersioned(count, prevVersion); err != nil {
		return nil, err
	}
	// Un conteo congelado que se cancela no puede seguir bloqueando el libro.
	if target == counting.StatusCancelled && count.FreezeMovements {
		if err := uc.releaseFreeze(ctx, count); err != nil {
			return nil, err
		}
	}
	return count, nil
}

// releaseFreeze libera los locks del libro de todos los ítems del conteo.
func (uc *TransitionUseCase) releaseFreeze(ctx context.Context, count *entity.InventoryCount) error {
	all, err := uc.items.ListByCount(count.ID)
	if err != nil {
		return err
	}
	for _, it := range all {
		if err := uc.ledger.Unlock(ctx, it.ItemID, it.Warehouse, count.ID); err != nil {
			return err
		}
	}
	return nil
}
