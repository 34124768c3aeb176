package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

var _ repository.CountRepository = (*CountRepo)(nil)

const countColumns = `id, count_number, type, warehouses, section, category, freeze_movements,
		status, created_by, approved_by, created_date, started_date, completed_date,
		total_items, counted_items, discrepancies, total_value, discrepancy_value, version`

// CountRepo implementación de CountRepository sobre PostgreSQL (usable con pool o tx).
type CountRepo struct {
	q Querier
}

// NewCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCountRepository(q Querier) *CountRepo {
	return &CountRepo{q: q}
}

// Create persiste una sesión de conteo nueva.
func (r *CountRepo) Create(count *entity.InventoryCount) error {
	query := `
		INSERT INTO inventory_counts (` + countColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(context.Background(), query,
		count.ID, count.CountNumber, count.Type, count.Warehouses, count.Section, count.Category,
		count.FreezeMovements, count.Status, count.CreatedBy, nullable(count.ApprovedBy),
		count.CreatedDate, count.StartedDate, count.CompletedDate,
		count.TotalItems, count.CountedItems, count.Discrepancies,
		count.TotalValue, count.DiscrepancyValue, count.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create count: %w", err)
	}
	return nil
}

// GetByID obtiene un conteo por ID. Devuelve nil, nil si no existe.
func (r *CountRepo) GetByID(id string) (*entity.InventoryCount, error) {
	query := `SELECT ` + countColumns + ` FROM inventory_counts WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate obtiene el conteo y bloquea la fila para update (SELECT FOR UPDATE).
func (r *CountRepo) GetForUpdate(id string) (*entity.InventoryCount, error) {
	query := `SELECT ` + countColumns + ` FROM inventory_counts WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// UpdateStatusVersioned escribe estado y sellos condicionado a la versión
// esperada (compare-and-swap). Cero filas afectadas significa que otro actor
// escribió primero: domain.ErrConcurrentModification.
// No toca las columnas de agregados: esas son siempre producto de un recálculo
// fresco vía UpdateAggregates, y escribirlas desde la copia leída aquí podría
// pisar una vuelta registrada entre la lectura y el CAS.
func (r *CountRepo) UpdateStatusVersioned(count *entity.InventoryCount, expectedVersion int) error {
	query := `
		UPDATE inventory_counts
		SET status = $1, approved_by = $2, started_date = $3, completed_date = $4,
		    version = version + 1
		WHERE id = $5 AND version = $6`
	tag, err := r.q.Exec(context.Background(), query,
		count.Status, nullable(count.ApprovedBy), count.StartedDate, count.CompletedDate,
		count.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update count status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	count.Version = expectedVersion + 1
	return nil
}

// UpdateAggregates persiste los agregados cacheados sin tocar estado ni versión.
func (r *CountRepo) UpdateAggregates(count *entity.InventoryCount) error {
	query := `
		UPDATE inventory_counts
		SET total_items = $1, counted_items = $2, discrepancies = $3,
		    total_value = $4, discrepancy_value = $5
		WHERE id = $6`
	_, err := r.q.Exec(context.Background(), query,
		count.TotalItems, count.CountedItems, count.Discrepancies,
		count.TotalValue, count.DiscrepancyValue, count.ID,
	)
	if err != nil {
		return fmt.Errorf("update count aggregates: %w", err)
	}
	return nil
}

// List lista conteos con filtros opcionales y paginación.
func (r *CountRepo) List(filter repository.CountFilter) ([]*entity.InventoryCount, error) {
	query := `SELECT ` + countColumns + ` FROM inventory_counts WHERE 1=1`
	args := []any{}
	pos := 1
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.Warehouse != "" {
		query += fmt.Sprintf(" AND $%d = ANY(warehouses)", pos)
		args = append(args, filter.Warehouse)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_date DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list counts: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryCount
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *CountRepo) scanOne(row pgx.Row) (*entity.InventoryCount, error) {
	c, err := scanCount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func scanCount(row pgx.Row) (*entity.InventoryCount, error) {
	var c entity.InventoryCount
	var approvedBy *string
	err := row.Scan(
		&c.ID, &c.CountNumber, &c.Type, &c.Warehouses, &c.Section, &c.Category,
		&c.FreezeMovements, &c.Status, &c.CreatedBy, &approvedBy,
		&c.CreatedDate, &c.StartedDate, &c.CompletedDate,
		&c.TotalItems, &c.CountedItems, &c.Discrepancies,
		&c.TotalValue, &c.DiscrepancyValue, &c.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan count: %w", err)
	}
	if approvedBy != nil {
		c.ApprovedBy = *approvedBy
	}
	return &c, nil
}

// nullable convierte cadena vacía en NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
