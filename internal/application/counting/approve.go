package counting

import (
	"context"
	"time"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/counting"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
	"github.com/jhoicas/Conteo-api/pkg/logger"
)

// ApproveUseCase coordinador de aprobación y reconciliación.
//
// La transición ready_for_approval→approved se escribe primero, condicionada
// por versión: de N aprobaciones concurrentes exactamente una pasa y las demás
// reciben ErrConcurrentModification. Eso convierte el resto del proceso en
// escritor único por conteo.
//
// Los pasos posteriores (fijar referencias, contabilizar ajustes, recalcular
// agregados, liberar congelamiento) son individualmente idempotentes: la llave
// (countID, itemID, warehouse) se verifica antes de contabilizar y el libro es
// idempotente sobre ella, así que una aprobación interrumpida se reanuda con
// Resume sin duplicar ni omitir ajustes. La transición a approved nunca se
// revierte una vez escrita.
type ApproveUseCase struct {
	counts      repository.CountRepository
	items       repository.CountItemRepository
	adjustments repository.AdjustmentRepository
	ledger      StockLedger
	log         *logger.Logger
}

// NewApproveUseCase construye el coordinador.
func NewApproveUseCase(
	counts repository.CountRepository,
	items repository.CountItemRepository,
	adjustments repository.AdjustmentRepository,
	ledger StockLedger,
	log *logger.Logger,
) *ApproveUseCase {
	return &ApproveUseCase{counts: counts, items: items, adjustments: adjustments, ledger: ledger, log: log}
}

// ApproveResult conteo aprobado y cantidad de ajustes contabilizados en esta pasada.
type ApproveResult struct {
	Count            *entity.InventoryCount
	MovementsCreated int
}

// Approve ejecuta la aprobación completa. Precondición: status ready_for_approval.
func (uc *ApproveUseCase) Approve(ctx context.Context, countID, approvedBy string) (*ApproveResult, error) {
	if countID == "" || approvedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	count, err := uc.counts.GetByID(countID)
	if err != nil {
		return nil, err
	}
	if count == nil {
		return nil, domain.ErrNotFound
	}
	switch count.Status {
	case counting.StatusReadyForApproval:
	case counting.StatusApproved:
		// Otro aprobador ya ganó la arista: mismo error que ve un perdedor del CAS.
		return nil, domain.ErrConcurrentModification
	default:
		return nil, domain.ErrInvalidState
	}

	// Paso 1: transición CAS. Si otro actor ganó la carrera (o el conteo cambió
	// por cualquier vía), abortar aquí sin tocar el libro.
	prevVersion := count.Version
	if err := counting.Transition(count, counting.StatusApproved, approvedBy, time.Now()); err != nil {
		return nil, err
	}
	if err := uc.counts.UpdateStatusVersioned(count, prevVersion); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("count_id", count.ID).
		Str("count_number", count.CountNumber).
		Str("approved_by", approvedBy).
		Msg("conteo aprobado, iniciando contabilización")

	created, err := uc.settle(ctx, count)
	if err != nil {
		// El conteo queda approved con contabilización parcial; Resume la completa.
		uc.log.Error().Err(err).
			Str("count_id", count.ID).
			Int("movements_created", created).
			Msg("contabilización incompleta, requiere reanudación")
		return nil, err
	}
	return &ApproveResult{Count: count, MovementsCreated: created}, nil
}

// Resume reanuda la contabilización de un conteo que quedó en approved con una
// pasada parcial. Re-ejecuta los pasos 2–6 de forma idempotente.
func (uc *ApproveUseCase) Resume(ctx context.Context, countID string) (*ApproveResult, error) {
	if countID == "" {
		return nil, domain.ErrInvalidInput
	}
	count, err := uc.counts.GetByID(countID)
	if err != nil {
		return nil, err
	}
	if count == nil {
		return nil, domain.ErrNotFound
	}
	if count.Status != counting.StatusApproved {
		return nil, domain.ErrInvalidState
	}
	created, err := uc.settle(ctx, count)
	if err != nil {
		return nil, err
	}
	return &ApproveResult{Count: count, MovementsCreated: created}, nil
}

// settle pasos 2–6: fija referencias, contabiliza ajustes, recalcula agregados
// y libera el congelamiento. Cada escritura es idempotente por sí sola.
func (uc *ApproveUseCase) settle(ctx context.Context, count *entity.InventoryCount) (int, error) {
	all, err := uc.items.ListByCount(count.ID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, it := range all {
		if err := uc.finalizeReference(ctx, count, it); err != nil {
			return created, err
		}
		// Ítems nunca contados: sin referencia de discrepancia, sin ajuste.
		d, ok := counting.ItemDiscrepancy(it)
		if !ok || d.IsZero() {
			continue
		}
		exists, err := uc.adjustments.Exists(count.ID, it.ItemID, it.Warehouse)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		if _, err := uc.ledger.PostMovement(ctx, entity.MovementTypeADJUSTMENT, it.ItemID, it.Warehouse, d, count.ID); err != nil {
			return created, err
		}
		ok, err = uc.adjustments.CreateIfAbsent(&entity.AdjustmentMovement{
			CountID:   count.ID,
			ItemID:    it.ItemID,
			Warehouse: it.Warehouse,
			Quantity:  d,
			PostedAt:  time.Now(),
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	counting.Recompute(all).Apply(count)
	if err := uc.counts.UpdateAggregates(count); err != nil {
		return created, err
	}

	if count.FreezeMovements {
		for _, it := range all {
			if err := uc.ledger.Unlock(ctx, it.ItemID, it.Warehouse, count.ID); err != nil {
				return created, err
			}
		}
		uc.log.Info().Str("count_id", count.ID).Msg("congelamiento liberado")
	}
	return created, nil
}

// finalizeReference fija SystemQuantityAtFinalization una única vez.
// Con congelamiento la referencia es la foto tomada al agregar el ítem; sin
// congelamiento se lee fresca del libro: la aprobación, nunca la creación, es
// la fuente de verdad de la cantidad de referencia.
func (uc *ApproveUseCase) finalizeReference(ctx context.Context, count *entity.InventoryCount, it *entity.CountItem) error {
	if it.SystemQuantityAtFinalization != nil {
		return nil
	}
	ref := it.SystemQuantity
	if !count.FreezeMovements {
		qty, err := uc.ledger.GetQuantity(ctx, it.ItemID, it.Warehouse)
		if err != nil {
			return err
		}
		ref = qty
	}
	final, err := uc.items.SetFinalQuantity(it.ID, ref)
	if err != nil {
		return err
	}
	it.SystemQuantityAtFinalization = &final
	return nil
}
