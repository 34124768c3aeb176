package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos SQLSTATE que el motor de conteos distingue.
const (
	pgUniqueViolation = "23505"
)

// isUniqueViolation reporta si err es una violación de unicidad: la señal de
// duplicado en las inserciones con llave natural (count_number, la tripleta de
// ajustes, los pares congelados).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
