package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Conteo-api/internal/application/counting"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CreateCount *counting.CreateCountUseCase
	SubmitCount *counting.SubmitCountUseCase
	Transition  *counting.TransitionUseCase
	Approve     *counting.ApproveUseCase
	CountQuery  *counting.CountQueryUseCase
	Report      *counting.ReportUseCase
	JWTSecret   string
}

// Router registra las rutas de la API. Todo el motor de conteos requiere
// Bearer Token; aprobar y reanudar además exigen rol de supervisor.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	counts := api.Group("/counts")
	countHandler := NewCountHandler(deps.CreateCount, deps.SubmitCount, deps.Transition, deps.Approve, deps.CountQuery)
	counts.Post("/", countHandler.Create)
	counts.Get("/", countHandler.List)
	counts.Get("/:id", countHandler.GetByID)
	counts.Post("/:id/items", countHandler.AddItems)
	counts.Post("/:id/submissions", countHandler.Submit)
	counts.Post("/:id/submissions/bulk", countHandler.SubmitBulk)
	counts.Post("/:id/transition", countHandler.Transition)
	counts.Post("/:id/approve", RequireRole("admin", "supervisor"), countHandler.Approve)
	counts.Post("/:id/approve/resume", RequireRole("admin", "supervisor"), countHandler.Resume)

	reports := api.Group("/reports")
	reportHandler := NewReportHandler(deps.Report)
	reports.Get("/discrepancies", reportHandler.Discrepancies)
}
