package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Conteo-api/internal/application/counting"
)

var _ counting.ItemCatalog = (*ItemCatalogRepo)(nil)

// ItemCatalogRepo resuelve el alcance de un conteo contra los datos maestros
// (products) y la existencia por bodega (stock). La gestión de esos datos es
// de otro sistema; aquí solo se leen.
type ItemCatalogRepo struct {
	pool *pgxpool.Pool
}

// NewItemCatalogRepository construye el adaptador de catálogo.
func NewItemCatalogRepository(pool *pgxpool.Pool) *ItemCatalogRepo {
	return &ItemCatalogRepo{pool: pool}
}

const catalogQuery = `
	SELECT p.id, s.warehouse_id, p.section, p.category, p.unit, p.price
	FROM products p
	JOIN stock s ON s.item_id = p.id`

// ListInScope ítems presentes en las bodegas dadas, filtrables por sección y/o categoría.
func (r *ItemCatalogRepo) ListInScope(ctx context.Context, warehouses []string, section, category string) ([]counting.CatalogItem, error) {
	query := catalogQuery + `
	WHERE s.warehouse_id = ANY($1)
	  AND ($2 = '' OR p.section = $2)
	  AND ($3 = '' OR p.category = $3)
	ORDER BY p.id, s.warehouse_id`
	return r.query(ctx, query, warehouses, section, category)
}

// GetByIDs resuelve una lista explícita de ítems dentro de las bodegas dadas.
func (r *ItemCatalogRepo) GetByIDs(ctx context.Context, itemIDs, warehouses []string) ([]counting.CatalogItem, error) {
	query := catalogQuery + `
	WHERE p.id = ANY($1) AND s.warehouse_id = ANY($2)
	ORDER BY p.id, s.warehouse_id`
	return r.query(ctx, query, itemIDs, warehouses)
}

func (r *ItemCatalogRepo) query(ctx context.Context, query string, args ...any) ([]counting.CatalogItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query item catalog: %w", err)
	}
	defer rows.Close()
	var list []counting.CatalogItem
	for rows.Next() {
		var ci counting.CatalogItem
		var section, category *string
		if err := rows.Scan(&ci.ItemID, &ci.Warehouse, &section, &category, &ci.Unit, &ci.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		if section != nil {
			ci.Section = *section
		}
		if category != nil {
			ci.Category = *category
		}
		list = append(list, ci)
	}
	return list, rows.Err()
}
