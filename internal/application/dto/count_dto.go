package dto

import "github.com/shopspring/decimal"

// CreateCountRequest crea una sesión de conteo.
// item_ids es obligatorio para type=cycle.
type CreateCountRequest struct {
	Type            string   `json:"type"`
	Warehouses      []string `json:"warehouses"`
	Section         string   `json:"section"`
	Category        string   `json:"category"`
	FreezeMovements bool     `json:"freeze_movements"`
	ItemIDs         []string `json:"item_ids"`
}

// AddItemsRequest agrega ítems a un conteo existente.
type AddItemsRequest struct {
	ItemIDs []string `json:"item_ids"`
}

// SubmitCountRequest registra una cantidad contada para un ítem.
type SubmitCountRequest struct {
	ItemID    string          `json:"item_id"`
	Warehouse string          `json:"warehouse"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes"`
}

// SubmitBulkRequest registra varias cantidades contadas.
type SubmitBulkRequest struct {
	Counts []SubmitCountRequest `json:"counts"`
}

// TransitionRequest mueve el conteo a otro estado del ciclo de vida.
type TransitionRequest struct {
	Target string `json:"target"`
}

// RoundResponse una vuelta de conteo del historial.
type RoundResponse struct {
	RoundNumber int             `json:"round_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	CountedBy   string          `json:"counted_by"`
	CountedDate string          `json:"counted_date"`
	Notes       string          `json:"notes,omitempty"`
}

// CountItemResponse ítem de conteo con su discrepancia viva.
type CountItemResponse struct {
	ID               string           `json:"id"`
	ItemID           string           `json:"item_id"`
	Warehouse        string           `json:"warehouse"`
	Section          string           `json:"section,omitempty"`
	Category         string           `json:"category,omitempty"`
	Unit             string           `json:"unit"`
	SystemQuantity   decimal.Decimal  `json:"system_quantity"`
	FinalQuantity    *decimal.Decimal `json:"final_quantity,omitempty"`
	CountedQuantity  *decimal.Decimal `json:"counted_quantity,omitempty"`
	Discrepancy      *decimal.Decimal `json:"discrepancy,omitempty"`
	DiscrepancyValue *decimal.Decimal `json:"discrepancy_value,omitempty"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	CountedBy        string           `json:"counted_by,omitempty"`
	CountedDate      string           `json:"counted_date,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Rounds           []RoundResponse  `json:"rounds,omitempty"`
}

// CountResponse sesión de conteo con agregados cacheados.
type CountResponse struct {
	ID               string              `json:"id"`
	CountNumber      string              `json:"count_number"`
	Type             string              `json:"type"`
	Warehouses       []string            `json:"warehouses"`
	Section          string              `json:"section,omitempty"`
	Category         string              `json:"category,omitempty"`
	FreezeMovements  bool                `json:"freeze_movements"`
	Status           string              `json:"status"`
	CreatedBy        string              `json:"created_by"`
	ApprovedBy       string              `json:"approved_by,omitempty"`
	CreatedDate      string              `json:"created_date"`
	StartedDate      string              `json:"started_date,omitempty"`
	CompletedDate    string              `json:"completed_date,omitempty"`
	TotalItems       int                 `json:"total_items"`
	CountedItems     int                 `json:"counted_items"`
	Discrepancies    int                 `json:"discrepancies"`
	TotalValue       decimal.Decimal     `json:"total_value"`
	DiscrepancyValue decimal.Decimal     `json:"discrepancy_value"`
	Progress         float64             `json:"progress"`
	Version          int                 `json:"version"`
	Items            []CountItemResponse `json:"items,omitempty"`
}

// CountListResponse listado paginado de conteos.
type CountListResponse struct {
	Items []CountResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// ApproveResponse resultado de la aprobación.
type ApproveResponse struct {
	Count            CountResponse `json:"count"`
	MovementsCreated int           `json:"movements_created"`
}

// ReportRowResponse fila del informe de discrepancias.
type ReportRowResponse struct {
	Key                   string          `json:"key"`
	ItemsCount            int             `json:"items_count"`
	TotalDiscrepancy      decimal.Decimal `json:"total_discrepancy"`
	TotalDiscrepancyValue decimal.Decimal `json:"total_discrepancy_value"`
	PositiveDiscrepancies int             `json:"positive_discrepancies"`
	NegativeDiscrepancies int             `json:"negative_discrepancies"`
}
