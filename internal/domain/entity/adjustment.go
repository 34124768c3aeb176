package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementTypeADJUSTMENT único tipo de movimiento que este motor publica al libro.
const MovementTypeADJUSTMENT = "ADJUSTMENT"

// AdjustmentMovement movimiento de ajuste contabilizado al aprobar un conteo.
// Invariante: a lo sumo un ajuste por (CountID, ItemID, Warehouse); esa tripleta
// es la llave de idempotencia de la aprobación.
type AdjustmentMovement struct {
	ID        string
	CountID   string
	ItemID    string
	Warehouse string
	Quantity  decimal.Decimal // con signo: positivo sobrante, negativo faltante
	PostedAt  time.Time
}
