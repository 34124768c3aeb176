package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain/entity"
)

// CountItemRepository puerto de persistencia para los ítems de un conteo.
type CountItemRepository interface {
	Create(item *entity.CountItem) error
	// GetByKey busca por (countID, itemID, warehouse). nil, nil si no existe.
	GetByKey(countID, itemID, warehouse string) (*entity.CountItem, error)
	ListByCount(countID string) ([]*entity.CountItem, error)
	// AppendRound agrega una vuelta y actualiza los campos derivados del ítem
	// (CountedQuantity, CountedBy, CountedDate, Notes).
	AppendRound(item *entity.CountItem, round entity.CountingRound) error
	// SetFinalQuantity fija SystemQuantityAtFinalization solo si aún es null;
	// devuelve la cantidad vigente tras la operación (la ya fijada si existía).
	SetFinalQuantity(itemID string, qty decimal.Decimal) (decimal.Decimal, error)
	// ListForReport ítems para el informe de discrepancias; countID y
	// warehouse vacíos significan sin filtro.
	ListForReport(countID, warehouse string) ([]*entity.CountItem, error)
}
