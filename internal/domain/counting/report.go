package counting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
)

// Dimensiones de agrupación del informe de discrepancias.
const (
	GroupByCategory  = "category"
	GroupByWarehouse = "warehouse"
	GroupBySection   = "section"
	GroupByCountedBy = "countedBy"
)

// ReportRow fila resumen por grupo del informe de discrepancias.
type ReportRow struct {
	Key                   string
	ItemsCount            int
	TotalDiscrepancy      decimal.Decimal
	TotalDiscrepancyValue decimal.Decimal
	PositiveDiscrepancies int
	NegativeDiscrepancies int
}

// ValidGroupBy verifica que la dimensión de agrupación sea una de las cuatro conocidas.
func ValidGroupBy(groupBy string) bool {
	switch groupBy {
	case GroupByCategory, GroupByWarehouse, GroupBySection, GroupByCountedBy:
		return true
	}
	return false
}

// groupKey extrae la llave de agrupación del ítem según la dimensión (ya validada).
func groupKey(it *entity.CountItem, groupBy string) string {
	switch groupBy {
	case GroupByCategory:
		return it.Category
	case GroupByWarehouse:
		return it.Warehouse
	case GroupBySection:
		return it.Section
	default:
		return it.CountedBy
	}
}

// GroupDiscrepancies agrupa los ítems por la dimensión indicada y acumula las
// discrepancias con signo. Los ítems sin contar (discrepancia indefinida) se
// excluyen de todas las sumas y del ItemsCount del grupo.
// La dimensión se valida antes de recorrer: una dimensión desconocida es
// ErrInvalidInput aunque no haya ítems contados.
func GroupDiscrepancies(items []*entity.CountItem, groupBy string) ([]ReportRow, error) {
	if !ValidGroupBy(groupBy) {
		return nil, domain.ErrInvalidInput
	}
	byKey := map[string]*ReportRow{}
	for _, it := range items {
		d, ok := ItemDiscrepancy(it)
		if !ok {
			continue
		}
		key := groupKey(it, groupBy)
		row := byKey[key]
		if row == nil {
			row = &ReportRow{
				Key:                   key,
				TotalDiscrepancy:      decimal.Zero,
				TotalDiscrepancyValue: decimal.Zero,
			}
			byKey[key] = row
		}
		row.ItemsCount++
		row.TotalDiscrepancy = row.TotalDiscrepancy.Add(d)
		row.TotalDiscrepancyValue = row.TotalDiscrepancyValue.Add(DiscrepancyValue(d, it.UnitPrice))
		if d.IsPositive() {
			row.PositiveDiscrepancies++
		} else if d.IsNegative() {
			row.NegativeDiscrepancies++
		}
	}
	rows := make([]ReportRow, 0, len(byKey))
	for _, row := range byKey {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows, nil
}
