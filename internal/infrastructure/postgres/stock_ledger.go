package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/application/counting"
	"github.com/jhoicas/Conteo-api/internal/domain"
)

var _ counting.StockLedger = (*StockLedgerClient)(nil)

// StockLedgerClient adaptador del libro de stock sobre sus tablas (stock,
// stock_movements, stock_freezes). El motor de conteos es solo un consumidor:
// lee cantidades, contabiliza ajustes idempotentes y congela/descongela pares.
// Los fallos de I/O se envuelven en domain.ErrLedgerUnavailable.
type StockLedgerClient struct {
	pool *pgxpool.Pool
}

// NewStockLedgerClient construye el cliente del libro.
func NewStockLedgerClient(pool *pgxpool.Pool) *StockLedgerClient {
	return &StockLedgerClient{pool: pool}
}

// GetQuantity cantidad actual del par (ítem, bodega). Sin fila = cero.
func (c *StockLedgerClient) GetQuantity(ctx context.Context, itemID, warehouse string) (decimal.Decimal, error) {
	query := `SELECT quantity FROM stock WHERE item_id = $1 AND warehouse_id = $2`
	var qty decimal.Decimal
	err := c.pool.QueryRow(ctx, query, itemID, warehouse).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, ledgerErr("get quantity", err)
	}
	return qty, nil
}

// PostMovement contabiliza un movimiento en el libro, idempotente sobre
// (referenceID, itemID, warehouse): si la llave ya existe devuelve el
// movimiento original sin volver a afectar el stock. Los pares congelados por
// otro dueño se rechazan con domain.ErrLocked.
func (c *StockLedgerClient) PostMovement(ctx context.Context, kind, itemID, warehouse string, quantity decimal.Decimal, referenceID string) (string, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return "", ledgerErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owner string
	err = tx.QueryRow(ctx,
		`SELECT owner_id FROM stock_freezes WHERE item_id = $1 AND warehouse_id = $2 FOR SHARE`,
		itemID, warehouse,
	).Scan(&owner)
	switch {
	case err == nil:
		if owner != referenceID {
			return "", domain.ErrLocked
		}
	case errors.Is(err, pgx.ErrNoRows):
		// par no congelado
	default:
		return "", ledgerErr("check freeze", err)
	}

	movementID := uuid.New().String()
	tag, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (id, type, item_id, warehouse_id, quantity, reference_id, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (reference_id, item_id, warehouse_id) DO NOTHING`,
		movementID, kind, itemID, warehouse, quantity, referenceID, time.Now(),
	)
	if err != nil {
		return "", ledgerErr("insert movement", err)
	}
	if tag.RowsAffected() == 0 {
		// Ya contabilizado por esta misma referencia: devolver el original.
		err = tx.QueryRow(ctx,
			`SELECT id FROM stock_movements WHERE reference_id = $1 AND item_id = $2 AND warehouse_id = $3`,
			referenceID, itemID, warehouse,
		).Scan(&movementID)
		if err != nil {
			return "", ledgerErr("get existing movement", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return "", ledgerErr("commit", err)
		}
		return movementID, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock (item_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (item_id, warehouse_id)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = now()`,
		itemID, warehouse, quantity,
	)
	if err != nil {
		return "", ledgerErr("apply movement to stock", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", ledgerErr("commit", err)
	}
	return movementID, nil
}

// Lock congela el par para el dueño dado. Repetir el lock propio es inocuo;
// un par ya congelado por otro dueño devuelve domain.ErrLocked.
func (c *StockLedgerClient) Lock(ctx context.Context, itemID, warehouse, ownerID string) error {
	tag, err := c.pool.Exec(ctx, `
		INSERT INTO stock_freezes (item_id, warehouse_id, owner_id, frozen_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (item_id, warehouse_id) DO NOTHING`,
		itemID, warehouse, ownerID,
	)
	if err != nil {
		return ledgerErr("lock", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var owner string
	err = c.pool.QueryRow(ctx,
		`SELECT owner_id FROM stock_freezes WHERE item_id = $1 AND warehouse_id = $2`,
		itemID, warehouse,
	).Scan(&owner)
	if err != nil {
		return ledgerErr("lock owner", err)
	}
	if owner != ownerID {
		return domain.ErrLocked
	}
	return nil
}

// Unlock libera el congelamiento del dueño. Liberar un par no congelado es inocuo.
func (c *StockLedgerClient) Unlock(ctx context.Context, itemID, warehouse, ownerID string) error {
	_, err := c.pool.Exec(ctx,
		`DELETE FROM stock_freezes WHERE item_id = $1 AND warehouse_id = $2 AND owner_id = $3`,
		itemID, warehouse, ownerID,
	)
	if err != nil {
		return ledgerErr("unlock", err)
	}
	return nil
}

// ledgerErr envuelve fallos de I/O del libro en domain.ErrLedgerUnavailable.
func ledgerErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrLedgerUnavailable, op, err)
}
