package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de conteo físico.
const (
	CountTypeFull    = "full"    // todas las referencias de las bodegas en alcance
	CountTypePartial = "partial" // filtrado por sección y/o categoría
	CountTypeCycle   = "cycle"   // lista explícita de ítems (conteo cíclico)
)

// InventoryCount representa una sesión de conteo físico sobre una o más bodegas.
// Los agregados (TotalItems, CountedItems, Discrepancies, TotalValue,
// DiscrepancyValue) son caché: siempre se recalculan completos desde los ítems
// al final de cada escritura, nunca se incrementan sueltos.
// Version es el contador de concurrencia optimista: toda escritura de estado
// se condiciona a que Version no haya cambiado.
type InventoryCount struct {
	ID               string
	CountNumber      string // único, legible (CNT-20240115-a1b2c3d4)
	Type             string // full, partial, cycle
	Warehouses       []string
	Section          string
	Category         string
	FreezeMovements  bool
	Status           string
	CreatedBy        string
	ApprovedBy       string
	CreatedDate      time.Time
	StartedDate      *time.Time
	CompletedDate    *time.Time
	TotalItems       int
	CountedItems     int
	Discrepancies    int
	TotalValue       decimal.Decimal
	DiscrepancyValue decimal.Decimal
	Version          int
}
