package counting

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain/entity"
)

// Aggregates agregados cacheados de un conteo, siempre producto de un recálculo
// completo sobre sus ítems (nunca contadores incrementales, para evitar deriva).
type Aggregates struct {
	TotalItems       int
	CountedItems     int
	Discrepancies    int
	TotalValue       decimal.Decimal
	DiscrepancyValue decimal.Decimal
}

// Recompute recalcula los agregados desde cero sobre el conjunto de ítems.
// Los ítems sin contar quedan fuera de Discrepancies, TotalValue y
// DiscrepancyValue: su discrepancia es indefinida.
func Recompute(items []*entity.CountItem) Aggregates {
	agg := Aggregates{
		TotalValue:       decimal.Zero,
		DiscrepancyValue: decimal.Zero,
	}
	for _, it := range items {
		agg.TotalItems++
		d, ok := ItemDiscrepancy(it)
		if !ok {
			continue
		}
		agg.CountedItems++
		agg.TotalValue = agg.TotalValue.Add(it.CountedQuantity.Mul(it.UnitPrice))
		if !d.IsZero() {
			agg.Discrepancies++
			agg.DiscrepancyValue = agg.DiscrepancyValue.Add(DiscrepancyValue(d, it.UnitPrice))
		}
	}
	return agg
}

// Apply copia los agregados recalculados al conteo.
func (a Aggregates) Apply(c *entity.InventoryCount) {
	c.TotalItems = a.TotalItems
	c.CountedItems = a.CountedItems
	c.Discrepancies = a.Discrepancies
	c.TotalValue = a.TotalValue
	c.DiscrepancyValue = a.DiscrepancyValue
}
