package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
	"github.com/jhoicas/Conteo-api/internal/domain/repository"
)

var _ repository.CountItemRepository = (*CountItemRepo)(nil)

const itemColumns = `id, count_id, item_id, warehouse, section, category, unit,
		system_quantity, system_quantity_final, counted_quantity, unit_price,
		counted_by, counted_date, notes`

// CountItemRepo implementación de CountItemRepository sobre PostgreSQL.
// Las vueltas de conteo viven en counting_rounds y se materializan sobre el
// ítem (counted_quantity refleja siempre la última vuelta).
type CountItemRepo struct {
	q Querier
}

// NewCountItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCountItemRepository(q Querier) *CountItemRepo {
	return &CountItemRepo{q: q}
}

// Create persiste un ítem de conteo.
func (r *CountItemRepo) Create(item *entity.CountItem) error {
	query := `
		INSERT INTO count_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.CountID, item.ItemID, item.Warehouse, item.Section, item.Category, item.Unit,
		item.SystemQuantity, item.SystemQuantityAtFinalization, item.CountedQuantity, item.UnitPrice,
		nullable(item.CountedBy), item.CountedDate, nullable(item.Notes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create count item: %w", err)
	}
	return nil
}

// GetByKey busca por (countID, itemID, warehouse) con su historial de vueltas.
func (r *CountItemRepo) GetByKey(countID, itemID, warehouse string) (*entity.CountItem, error) {
	query := `SELECT ` + itemColumns + ` FROM count_items
		WHERE count_id = $1 AND item_id = $2 AND warehouse = $3`
	item, err := scanItem(r.q.QueryRow(context.Background(), query, countID, itemID, warehouse))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadRounds(item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListByCount lista los ítems del conteo con sus vueltas.
func (r *CountItemRepo) ListByCount(countID string) ([]*entity.CountItem, error) {
	query := `SELECT ` + itemColumns + ` FROM count_items WHERE count_id = $1 ORDER BY item_id, warehouse`
	rows, err := r.q.Query(context.Background(), query, countID)
	if err != nil {
		return nil, fmt.Errorf("list count items: %w", err)
	}
	defer rows.Close()
	var list []*entity.CountItem
	byID := map[string]*entity.CountItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roundsQuery := `
		SELECT r.count_item_id, r.round_number, r.quantity, r.counted_by, r.counted_date, r.notes
		FROM counting_rounds r
		JOIN count_items i ON i.id = r.count_item_id
		WHERE i.count_id = $1
		ORDER BY r.count_item_id, r.round_number`
	roundRows, err := r.q.Query(context.Background(), roundsQuery, countID)
	if err != nil {
		return nil, fmt.Errorf("list counting rounds: %w", err)
	}
	defer roundRows.Close()
	for roundRows.Next() {
		var itemID string
		var round entity.CountingRound
		var notes *string
		if err := roundRows.Scan(&itemID, &round.RoundNumber, &round.Quantity, &round.CountedBy, &round.CountedDate, &notes); err != nil {
			return nil, fmt.Errorf("scan counting round: %w", err)
		}
		if notes != nil {
			round.Notes = *notes
		}
		if item := byID[itemID]; item != nil {
			item.Rounds = append(item.Rounds, round)
		}
	}
	return list, roundRows.Err()
}

// AppendRound inserta la vuelta y materializa los derivados sobre el ítem.
func (r *CountItemRepo) AppendRound(item *entity.CountItem, round entity.CountingRound) error {
	insert := `
		INSERT INTO counting_rounds (count_item_id, round_number, quantity, counted_by, counted_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), insert,
		item.ID, round.RoundNumber, round.Quantity, round.CountedBy, round.CountedDate, nullable(round.Notes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append counting round: %w", err)
	}
	update := `
		UPDATE count_items
		SET counted_quantity = $1, counted_by = $2, counted_date = $3, notes = $4
		WHERE id = $5`
	_, err = r.q.Exec(context.Background(), update,
		round.Quantity, round.CountedBy, round.CountedDate, nullable(round.Notes), item.ID,
	)
	if err != nil {
		return fmt.Errorf("update count item after round: %w", err)
	}
	item.Rounds = append(item.Rounds, round)
	qty := round.Quantity
	item.CountedQuantity = &qty
	item.CountedBy = round.CountedBy
	date := round.CountedDate
	item.CountedDate = &date
	item.Notes = round.Notes
	return nil
}

// SetFinalQuantity fija la referencia de aprobación una única vez (COALESCE
// conserva el valor ya fijado) y devuelve la cantidad vigente.
func (r *CountItemRepo) SetFinalQuantity(itemID string, qty decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE count_items
		SET system_quantity_final = COALESCE(system_quantity_final, $2)
		WHERE id = $1
		RETURNING system_quantity_final`
	var final decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, itemID, qty).Scan(&final)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("set final quantity: %w", err)
	}
	return final, nil
}

// ListForReport ítems para el informe; filtros vacíos significan sin filtro.
// No carga vueltas: el informe solo usa los derivados materializados.
func (r *CountItemRepo) ListForReport(countID, warehouse string) ([]*entity.CountItem, error) {
	query := `SELECT ` + itemColumns + ` FROM count_items
		WHERE ($1 = '' OR count_id = $1) AND ($2 = '' OR warehouse = $2)`
	rows, err := r.q.Query(context.Background(), query, countID, warehouse)
	if err != nil {
		return nil, fmt.Errorf("list items for report: %w", err)
	}
	defer rows.Close()
	var list []*entity.CountItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

func (r *CountItemRepo) loadRounds(item *entity.CountItem) error {
	query := `
		SELECT round_number, quantity, counted_by, counted_date, notes
		FROM counting_rounds WHERE count_item_id = $1 ORDER BY round_number`
	rows, err := r.q.Query(context.Background(), query, item.ID)
	if err != nil {
		return fmt.Errorf("load counting rounds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var round entity.CountingRound
		var notes *string
		if err := rows.Scan(&round.RoundNumber, &round.Quantity, &round.CountedBy, &round.CountedDate, &notes); err != nil {
			return fmt.Errorf("scan counting round: %w", err)
		}
		if notes != nil {
			round.Notes = *notes
		}
		item.Rounds = append(item.Rounds, round)
	}
	return rows.Err()
}

func scanItem(row pgx.Row) (*entity.CountItem, error) {
	var it entity.CountItem
	var countedBy, notes *string
	err := row.Scan(
		&it.ID, &it.CountID, &it.ItemID, &it.Warehouse, &it.Section, &it.Category, &it.Unit,
		&it.SystemQuantity, &it.SystemQuantityAtFinalization, &it.CountedQuantity, &it.UnitPrice,
		&countedBy, &it.CountedDate, &notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan count item: %w", err)
	}
	if countedBy != nil {
		it.CountedBy = *countedBy
	}
	if notes != nil {
		it.Notes = *notes
	}
	return &it, nil
}
