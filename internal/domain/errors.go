package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrInvalidTransition      = errors.New("transición de estado no permitida")
	ErrInvalidState           = errors.New("operación no permitida en el estado actual")
	ErrConcurrentModification = errors.New("el registro fue modificado por otra operación")
	ErrLocked                 = errors.New("ítem congelado por un conteo en curso")
	ErrLedgerUnavailable      = errors.New("libro de stock no disponible")
	ErrDuplicate              = errors.New("recurso duplicado")
)
