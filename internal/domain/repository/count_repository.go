package repository

import "github.com/jhoicas/Conteo-api/internal/domain/entity"

// CountFilter filtros de listado de conteos.
type CountFilter struct {
	Status    string
	Warehouse string
	Limit     int
	Offset    int
}

// CountRepository puerto de persistencia para sesiones de conteo.
type CountRepository interface {
	Create(count *entity.InventoryCount) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(id string) (*entity.InventoryCount, error)
	// GetForUpdate bloquea la fila del conteo durante la transacción
	// (serializa vueltas de conteo y recálculo de agregados).
	GetForUpdate(id string) (*entity.InventoryCount, error)
	// UpdateStatusVersioned escribe estado y sellos condicionado a que la
	// versión persistida siga siendo expectedVersion, e incrementa la versión.
	// Si la condición falla devuelve domain.ErrConcurrentModification.
	// Nunca escribe agregados: eso es de UpdateAggregates, con datos frescos.
	UpdateStatusVersioned(count *entity.InventoryCount, expectedVersion int) error
	// UpdateAggregates persiste los agregados cacheados sin tocar el estado.
	UpdateAggregates(count *entity.InventoryCount) error
	List(filter CountFilter) ([]*entity.InventoryCount, error)
}
