package counting

import (
	"time"

	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
)

// Estados de una sesión de conteo.
const (
	StatusDraft            = "draft"
	StatusCounting         = "counting"
	StatusReadyForApproval = "ready_for_approval"
	StatusApproved         = "approved"
	StatusClosed           = "closed"
	StatusCancelled        = "cancelled"
)

// transitions tabla de aristas legales del ciclo de vida. Cualquier arista que
// no aparezca aquí es ErrInvalidTransition; closed y cancelled son terminales.
var transitions = map[string]map[string]bool{
	StatusDraft: {
		StatusCounting:  true,
		StatusCancelled: true,
	},
	StatusCounting: {
		StatusReadyForApproval: true,
		StatusCancelled:        true,
	},
	StatusReadyForApproval: {
		StatusApproved:  true,
		StatusCancelled: true,
	},
	StatusApproved: {
		StatusClosed: true,
	},
}

// ValidStatus verifica que s sea uno de los estados conocidos.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusCounting, StatusReadyForApproval, StatusApproved, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition indica si la arista from→to es legal.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Terminal indica si el estado no admite más transiciones de negocio.
func Terminal(s string) bool {
	return s == StatusClosed || s == StatusCancelled
}

// Mutable indica si el conteo acepta altas de ítems y registros de cantidades.
func Mutable(s string) bool {
	return s == StatusDraft || s == StatusCounting
}

// Transition aplica la arista sobre el conteo en memoria: valida la tabla,
// cambia el estado y estampa fechas/actor según la arista.
// La escritura condicionada por Version (CAS) es responsabilidad del repositorio;
// aquí solo se decide la legalidad y el sellado.
func Transition(c *entity.InventoryCount, to, actor string, now time.Time) error {
	if !ValidStatus(to) {
		return domain.ErrInvalidInput
	}
	if !CanTransition(c.Status, to) {
		return domain.ErrInvalidTransition
	}
	c.Status = to
	switch to {
	case StatusCounting:
		t := now
		c.StartedDate = &t
	case StatusApproved:
		c.ApprovedBy = actor
	case StatusClosed:
		t := now
		c.CompletedDate = &t
	}
	return nil
}
