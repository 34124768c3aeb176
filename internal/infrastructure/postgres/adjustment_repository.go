package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo registro local de ajustes por conteo. La unicidad de
// (count_id, item_id, warehouse) en la tabla es la que hace idempotente la
// reanudación de una aprobación.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// CreateIfAbsent inserta el ajuste si la llave no existe (ON CONFLICT DO NOTHING).
func (r *AdjustmentRepo) CreateIfAbsent(mov *entity.AdjustmentMovement) (bool, error) {
	if mov.ID == "" {
		mov.ID = uuid.New().String()
	}
	query := `
		INSERT INTO count_adjustments (id, count_id, item_id, warehouse, quantity, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (count_id, item_id, warehouse) DO NOTHING`
	tag, err := r.q.Exec(context.Background(), query,
		mov.ID, mov.CountID, mov.ItemID, mov.Warehouse, mov.Quantity, mov.PostedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create adjustment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Exists verifica si ya hay un ajuste contabilizado para la llave.
func (r *AdjustmentRepo) Exists(countID, itemID, warehouse string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM count_adjustments
			WHERE count_id = $1 AND item_id = $2 AND warehouse = $3)`
	var exists bool
	err := r.q.QueryRow(context.Background(), query, countID, itemID, warehouse).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("adjustment exists: %w", err)
	}
	return exists, nil
}

// ListByCount lista los ajustes contabilizados de un conteo.
func (r *AdjustmentRepo) ListByCount(countID string) ([]*entity.AdjustmentMovement, error) {
	query := `
		SELECT id, count_id, item_id, warehouse, quantity, posted_at
		FROM count_adjustments WHERE count_id = $1 ORDER BY posted_at`
	rows, err := r.q.Query(context.Background(), query, countID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var list []*entity.AdjustmentMovement
	for rows.Next() {
		var m entity.AdjustmentMovement
		if err := rows.Scan(&m.ID, &m.CountID, &m.ItemID, &m.Warehouse, &m.Quantity, &m.PostedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
