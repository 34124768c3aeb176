package counting

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para las escrituras
// multi-tabla del motor de conteos (alta de ítems, vueltas + agregados).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		counts repository.CountRepository,
		items repository.CountItemRepository,
		adjustments repository.AdjustmentRepository,
	) error) error
}

// StockLedger colaborador externo: el libro de stock. El motor de conteos solo
// lo consume; nunca es dueño de sus cantidades.
// PostMovement es idempotente sobre (referenceID, itemID, warehouse) y rechaza
// con domain.ErrLocked los movimientos sobre pares congelados por otro dueño.
// Cualquier fallo de I/O llega envuelto en domain.ErrLedgerUnavailable.
type StockLedger interface {
	GetQuantity(ctx context.Context, itemID, warehouse string) (decimal.Decimal, error)
	PostMovement(ctx context.Context, kind, itemID, warehouse string, quantity decimal.Decimal, referenceID string) (movementID string, err error)
	Lock(ctx context.Context, itemID, warehouse, ownerID string) error
	Unlock(ctx context.Context, itemID, warehouse, ownerID string) error
}

// CatalogItem datos maestros mínimos de un ítem en alcance de conteo.
// El precio unitario se captura aquí y no se vuelve a leer durante la sesión.
type CatalogItem struct {
	ItemID    string
	Warehouse string
	Section   string
	Category  string
	Unit      string
	UnitPrice decimal.Decimal
}

// ItemCatalog colaborador de datos maestros: resuelve qué ítems entran en el
// alcance de un conteo. La gestión de productos/bodegas vive fuera del motor.
type ItemCatalog interface {
	// ListInScope ítems de las bodegas dadas, filtrables por sección y/o categoría.
	ListInScope(ctx context.Context, warehouses []string, section, category string) ([]CatalogItem, error)
	// GetByIDs resuelve una lista explícita de ítems dentro de las bodegas dadas.
	GetByIDs(ctx context.Context, itemIDs, warehouses []string) ([]CatalogItem, error)
}
