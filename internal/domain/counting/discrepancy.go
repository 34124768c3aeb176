package counting

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain/entity"
)

// Discrepancy diferencia contado − referencia. Positivo = sobrante físico,
// negativo = faltante. Sin redondeo: las cantidades pueden ser fraccionarias.
func Discrepancy(counted, reference decimal.Decimal) decimal.Decimal {
	return counted.Sub(reference)
}

// DiscrepancyValue valoriza la discrepancia al precio unitario capturado.
func DiscrepancyValue(discrepancy, unitPrice decimal.Decimal) decimal.Decimal {
	return discrepancy.Mul(unitPrice)
}

// ItemDiscrepancy discrepancia viva de un ítem contra su referencia vigente
// (finalizada si existe, foto de sistema si no). ok=false mientras el ítem no
// tenga ninguna vuelta registrada: la discrepancia es indefinida, no cero.
func ItemDiscrepancy(it *entity.CountItem) (decimal.Decimal, bool) {
	if it.CountedQuantity == nil {
		return decimal.Zero, false
	}
	return Discrepancy(*it.CountedQuantity, it.ReferenceQuantity()), true
}

// ItemDiscrepancyValue valor de la discrepancia viva del ítem.
func ItemDiscrepancyValue(it *entity.CountItem) (decimal.Decimal, bool) {
	d, ok := ItemDiscrepancy(it)
	if !ok {
		return decimal.Zero, false
	}
	return DiscrepancyValue(d, it.UnitPrice), true
}
