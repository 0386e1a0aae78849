package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/analytics"
	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/consumables"
	"github.com/jhoicas/Almacen-api/internal/application/expiry"
	"github.com/jhoicas/Almacen-api/internal/application/forecast"
	"github.com/jhoicas/Almacen-api/internal/application/importer"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Almacen-api/internal/notify"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine       *stock.Engine
	Advisor      *forecast.Advisor
	ConsumableUC *consumables.UseCase
	ExpiryUC     *expiry.UseCase
	DashboardUC  *analytics.DashboardUseCase
	AuthUC       *auth.AuthUseCase
	StockImp     *importer.StockImporter
	ConsImp      *importer.ConsumableImporter
	Exporter     *importer.StockExporter
	PDFGen       *pdf.ExpiryReportGenerator
	Hub          *notify.Hub
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Registro de usuarios: solo admin puede crear cuentas
	protected.Post("/auth/register", RequireAdmin(), authHandler.Register)
	protected.Get("/auth/me", authHandler.Me)

	// Artículos y motor de stock
	stockHandler := NewStockHandler(deps.Engine)
	items := protected.Group("/items")
	items.Post("/", stockHandler.RegisterItem)
	items.Get("/", stockHandler.ListItems)
	items.Get("/search", stockHandler.SearchItems)
	items.Get("/:id", stockHandler.GetItem)
	items.Put("/:id", RequireAdmin(), stockHandler.UpdateItem)
	items.Delete("/:id", RequireAdmin(), stockHandler.DeleteItem)
	items.Get("/:id/movements", stockHandler.ItemMovements)

	st := protected.Group("/stock")
	st.Post("/receipts", stockHandler.Receive)
	st.Post("/issues", stockHandler.Issue)

	lots := protected.Group("/lots")
	lots.Put("/:id", RequireAdmin(), stockHandler.AdjustLot)
	lots.Delete("/:id", RequireAdmin(), stockHandler.DeleteLot)

	movements := protected.Group("/movements")
	movements.Post("/:id/reverse", RequireAdmin(), stockHandler.ReverseMovement)
	movements.Delete("/:id", RequireAdmin(), stockHandler.EraseMovement)

	// Pronóstico y compras
	forecastHandler := NewForecastHandler(deps.Advisor)
	items.Get("/:id/forecast", forecastHandler.Forecast)
	protected.Get("/purchases/suggestions", forecastHandler.Suggestions)
	protected.Get("/stock/turnover", forecastHandler.Turnover)

	// Consumibles
	consHandler := NewConsumableHandler(deps.ConsumableUC)
	cons := protected.Group("/consumables")
	cons.Get("/", consHandler.Search)
	cons.Get("/movements", consHandler.RecentMovements)
	cons.Post("/movements", consHandler.RegisterMovement)
	cons.Get("/:id", consHandler.Get)

	// Control de vencimiento
	expiryHandler := NewExpiryHandler(deps.ExpiryUC, deps.Exporter, deps.PDFGen)
	exp := protected.Group("/expiry")
	exp.Get("/pending", expiryHandler.Pending)
	exp.Get("/history", expiryHandler.History)
	exp.Post("/:id/done", expiryHandler.MarkDone)
	exp.Post("/:id/reopen", expiryHandler.Reopen)
	exp.Get("/export/excel", expiryHandler.ExportExcel)
	exp.Get("/export/pdf", expiryHandler.ExportPDF)

	// Dashboard y reportes
	dashHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard", dashHandler.Dashboard)
	protected.Get("/reports/movements", dashHandler.MovementReport)

	// Importación/exportación masiva (admin)
	importHandler := NewImportHandler(deps.StockImp, deps.ConsImp, deps.Exporter)
	imp := protected.Group("/import", RequireAdmin())
	imp.Post("/stock", importHandler.ImportStock)
	imp.Post("/consumables", importHandler.ImportConsumables)
	protected.Get("/export/stock", importHandler.ExportStock)

	// Eventos en vivo (SSE)
	eventsHandler := NewEventsHandler(deps.Hub)
	protected.Get("/events", eventsHandler.Stream)
}
