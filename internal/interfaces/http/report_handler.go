package http

import (
	"github.com/gofiber/fiber/v2"

	appcounting "github.com/jhoicas/Conteo-api/internal/application/counting"
	"github.com/jhoicas/Conteo-api/internal/application/dto"
)

// ReportHandler informe de discrepancias (protegido).
type ReportHandler struct {
	report *appcounting.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(report *appcounting.ReportUseCase) *ReportHandler {
	return &ReportHandler{report: report}
}

// Discrepancies godoc
// @Summary      Informe de discrepancias agrupado
// @Description  Agrupa los ítems contados por category, warehouse, section o
//	countedBy y suma discrepancias con signo. Los ítems sin contar no suman.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        group_by   query  string  true   "category | warehouse | section | countedBy"
// @Param        count_id   query  string  false  "Filtrar por conteo"
// @Param        warehouse  query  string  false  "Filtrar por bodega"
// @Success      200  {array}   dto.ReportRowResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/discrepancies [get]
func (h *ReportHandler) Discrepancies(c *fiber.Ctx) error {
	rows, err := h.report.Discrepancies(appcounting.ReportFilter{
		CountID:   c.Query("count_id"),
		Warehouse: c.Query("warehouse"),
	}, c.Query("group_by"))
	if err != nil {
		return statusError(c, err)
	}
	out := make([]dto.ReportRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ReportRowResponse{
			Key:                   row.Key,
			ItemsCount:            row.ItemsCount,
			TotalDiscrepancy:      row.TotalDiscrepancy,
			TotalDiscrepancyValue: row.TotalDiscrepancyValue,
			PositiveDiscrepancies: row.PositiveDiscrepancies,
			NegativeDiscrepancies: row.NegativeDiscrepancies,
		})
	}
	return c.JSON(out)
}
