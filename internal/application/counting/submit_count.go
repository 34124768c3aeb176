package counting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/counting"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

// SubmitCountUseCase registra cantidades contadas como vueltas de conteo.
// El historial completo de vueltas se conserva; la última gana. Las vueltas
// se serializan con el lock de fila del conteo, que también asegura que el
// RoundNumber sea consecutivo y que los agregados se recalculen sin carreras.
type SubmitCountUseCase struct {
	txRunner TxRunner
}

// NewSubmitCountUseCase construye el caso de uso.
func NewSubmitCountUseCase(txRunner TxRunner) *SubmitCountUseCase {
	return &SubmitCountUseCase{txRunner: txRunner}
}

// SubmitInput una cantidad contada para un ítem del conteo.
type SubmitInput struct {
	CountID   string
	ItemID    string
	Warehouse string
	Quantity  decimal.Decimal
	CountedBy string
	Notes     string
}

// Submit agrega una vuelta al ítem (solo en draft/counting) y deja los
// agregados del conteo recalculados en la misma transacción.
func (uc *SubmitCountUseCase) Submit(ctx context.Context, input SubmitInput) (*entity.CountItem, error) {
	if input.CountID == "" || input.ItemID == "" || input.Warehouse == "" || input.CountedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.Quantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	var result *entity.CountItem
	err := uc.txRunner.Run(ctx, func(
		counts repository.CountRepository,
		items repository.CountItemRepository,
		_ repository.AdjustmentRepository,
	) error {
		count, err := counts.GetForUpdate(input.CountID)
		if err != nil {
			return err
		}
		if count == nil {
			return domain.ErrNotFound
		}
		if !counting.Mutable(count.Status) {
			return domain.ErrInvalidState
		}
		item, err := items.GetByKey(input.CountID, input.ItemID, input.Warehouse)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		round := entity.CountingRound{
			RoundNumber: len(item.Rounds) + 1,
			Quantity:    input.Quantity,
			CountedBy:   input.CountedBy,
			CountedDate: time.Now(),
			Notes:       input.Notes,
		}
		if err := items.AppendRound(item, round); err != nil {
			return err
		}
		all, err := items.ListByCount(count.ID)
		if err != nil {
			return err
		}
		counting.Recompute(all).Apply(count)
		if err := counts.UpdateAggregates(count); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitBulk registra varias cantidades; se detiene en el primer error.
func (uc *SubmitCountUseCase) SubmitBulk(ctx context.Context, inputs []SubmitInput) ([]*entity.CountItem, error) {
	out := make([]*entity.CountItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := uc.Submit(ctx, in)
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
