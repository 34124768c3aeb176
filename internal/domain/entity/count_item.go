package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountingRound una vuelta de conteo registrada para un ítem (historial de auditoría).
type CountingRound struct {
	RoundNumber int
	Quantity    decimal.Decimal
	CountedBy   string
	CountedDate time.Time
	Notes       string
}

// CountItem registro por ítem dentro de una sesión de conteo.
// Invariantes: CountedQuantity es la cantidad de la última vuelta, o nil si y
// solo si Rounds está vacío; SystemQuantityAtFinalization se fija una única vez
// en la aprobación y nunca se vuelve a leer del libro para ese ítem.
type CountItem struct {
	ID          string
	CountID     string
	ItemID      string
	Warehouse   string
	Section     string
	Category    string
	Unit        string
	// SystemQuantity es la foto del libro al agregar el ítem. Con congelamiento
	// es la referencia definitiva; sin congelamiento es solo informativa.
	SystemQuantity               decimal.Decimal
	SystemQuantityAtFinalization *decimal.Decimal
	CountedQuantity              *decimal.Decimal
	Rounds                       []CountingRound
	UnitPrice                    decimal.Decimal // capturado al agregar, no se relee
	CountedBy                    string
	CountedDate                  *time.Time
	Notes                        string
}

// ReferenceQuantity devuelve la cantidad de referencia vigente: la finalizada
// si ya existe, o la foto de sistema en su defecto.
func (it *CountItem) ReferenceQuantity() decimal.Decimal {
	if it.SystemQuantityAtFinalization != nil {
		return *it.SystemQuantityAtFinalization
	}
	return it.SystemQuantity
}

// Counted indica si el ítem tiene al menos una vuelta registrada.
func (it *CountItem) Counted() bool {
	return it.CountedQuantity != nil
}
