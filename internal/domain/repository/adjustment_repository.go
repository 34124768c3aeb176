package repository

import "github.com/jhoicas/Conteo-api/internal/domain/entity"

// AdjustmentFilter filtros del informe de discrepancias.
type AdjustmentFilter struct {
	CountID   string
	Warehouse string
}

// AdjustmentRepository registro local de ajustes contabilizados por conteo.
// La tripleta (CountID, ItemID, Warehouse) es única: es la llave de
// idempotencia que hace segura la reanudación de una aprobación.
type AdjustmentRepository interface {
	// CreateIfAbsent inserta el ajuste si la llave no existe.
	// created=false significa que ya estaba contabilizado.
	CreateIfAbsent(mov *entity.AdjustmentMovement) (created bool, err error)
	Exists(countID, itemID, warehouse string) (bool, error)
	ListByCount(countID string) ([]*entity.AdjustmentMovement, error)
}
