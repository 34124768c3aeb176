package counting

import (
	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

// CountQueryUseCase lecturas de conteos para la capa de presentación.
type CountQueryUseCase struct {
	counts repository.CountRepository
	items  repository.CountItemRepository
}

// NewCountQueryUseCase construye el caso de uso.
func NewCountQueryUseCase(counts repository.CountRepository, items repository.CountItemRepository) *CountQueryUseCase {
	return &CountQueryUseCase{counts: counts, items: items}
}

// Get devuelve el conteo con sus ítems.
func (uc *CountQueryUseCase) Get(countID string) (*entity.InventoryCount, []*entity.CountItem, error) {
	count, err := uc.counts.GetByID(countID)
	if err != nil {
		return nil, nil, err
	}
	if count == nil {
		return nil, nil, domain.ErrNotFound
	}
	items, err := uc.items.ListByCount(countID)
	if err != nil {
		return nil, nil, err
	}
	return count, items, nil
}

// List lista conteos con filtros y paginación.
func (uc *CountQueryUseCase) List(filter repository.CountFilter) ([]*entity.InventoryCount, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.counts.List(filter)
}
