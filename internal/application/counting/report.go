package counting

import (
	"github.com/jhoicas/Conteo-api/internal/domain/counting"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

// ReportUseCase informe de discrepancias agrupado por dimensión.
type ReportUseCase struct {
	items repository.CountItemRepository
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(items repository.CountItemRepository) *ReportUseCase {
	return &ReportUseCase{items: items}
}

// ReportFilter filtros opcionales del informe.
type ReportFilter struct {
	CountID   string
	Warehouse string
}

// Discrepancies agrupa los ítems filtrados por la dimensión indicada
// (category, warehouse, section, countedBy). Los ítems sin contar quedan fuera.
func (uc *ReportUseCase) Discrepancies(filter ReportFilter, groupBy string) ([]counting.ReportRow, error) {
	items, err := uc.items.ListForReport(filter.CountID, filter.Warehouse)
	if err != nil {
		return nil, err
	}
	return counting.GroupDiscrepancies(items, groupBy)
}
