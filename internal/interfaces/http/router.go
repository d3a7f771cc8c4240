package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/agro-inventario/internal/application/analytics"
	"github.com/jhoicas/agro-inventario/internal/application/auth"
	"github.com/jhoicas/agro-inventario/internal/application/fumigation"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/application/purchase"
	"github.com/jhoicas/agro-inventario/internal/application/report"
	"github.com/jhoicas/agro-inventario/internal/application/transfer"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

const bodyLimit = 12 << 20

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	ProductUC    *inventory.ProductUseCase
	WarehouseUC  *usecase.WarehouseUseCase
	TransferUC   *transfer.UseCase
	PurchaseUC   *purchase.UseCase
	FumigationUC *fumigation.UseCase
	FieldUC      *usecase.FieldUseCase
	UserUC       *usecase.UserUseCase
	DashboardUC  *analytics.DashboardUseCase
	ReportUC     *report.UseCase
	Notifier     ports.ChangeNotifier
	// Done se cierra al iniciar el apagado; corta los streams de /cambios.
	Done      <-chan struct{}
	JWTSecret string
	Log       *logger.Logger
}

// NewApp crea la app Fiber con el manejo de errores centralizado, recover y log de peticiones.
func NewApp(name string, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      name,
		BodyLimit:    bodyLimit,
		ErrorHandler: NewErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(RequestLogger(log))
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/password", authHandler.ChangePassword)

	changes := NewChangesHandler(deps.Notifier, deps.Done, deps.Log)
	protected.Get("/cambios", changes.Stream)

	dashboard := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard", RequirePermission(entity.PermDashboard), dashboard.GetSummary)

	// Productos
	products := protected.Group("/productos", RequirePermission(entity.PermProducts))
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/historial", productHandler.History)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Almacenes
	warehouses := protected.Group("/almacenes", RequirePermission(entity.PermWarehouses))
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", warehouseHandler.Update)
	warehouses.Delete("/:id", warehouseHandler.Delete)

	// Transferencias
	transfers := protected.Group("/transferencias", RequirePermission(entity.PermTransfers))
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Get("/", transferHandler.List)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Patch("/:id/estado", transferHandler.UpdateStatus)

	// Compras
	purchases := protected.Group("/compras", RequirePermission(entity.PermPurchases))
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC)
	purchases.Get("/", purchaseHandler.List)
	purchases.Post("/", purchaseHandler.Create)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Post("/:id/recepciones", purchaseHandler.Receive)
	purchases.Get("/:id/historial", purchaseHandler.History)

	// Fumigaciones
	fumigations := protected.Group("/fumigaciones", RequirePermission(entity.PermFumigations))
	fumigationHandler := NewFumigationHandler(deps.FumigationUC, deps.ReportUC)
	fumigations.Get("/", fumigationHandler.List)
	fumigations.Post("/", fumigationHandler.Create)
	fumigations.Get("/:id", fumigationHandler.GetByID)
	fumigations.Put("/:id", fumigationHandler.Update)
	fumigations.Delete("/:id", fumigationHandler.Delete)
	fumigations.Patch("/:id/estado", fumigationHandler.UpdateStatus)
	fumigations.Put("/:id/imagen", fumigationHandler.AttachImage)
	fumigations.Get("/:id/imagen", fumigationHandler.ImageURL)
	fumigations.Get("/:id/pdf", fumigationHandler.PDF)
	fumigations.Post("/:id/pdf/exportar", fumigationHandler.ExportPDF)

	// Campos y lotes
	fields := protected.Group("/campos", RequirePermission(entity.PermFields))
	fieldHandler := NewFieldHandler(deps.FieldUC)
	fields.Get("/", fieldHandler.List)
	fields.Post("/", fieldHandler.Create)
	fields.Get("/:id", fieldHandler.GetByID)
	fields.Put("/:id", fieldHandler.Update)
	fields.Delete("/:id", fieldHandler.Delete)
	fields.Post("/:id/lotes", fieldHandler.AddLot)
	fields.Put("/:id/lotes/:lotId", fieldHandler.UpdateLot)
	fields.Delete("/:id/lotes/:lotId", fieldHandler.RemoveLot)

	// Usuarios (solo admin)
	users := protected.Group("/usuarios", RequirePermission(entity.PermAdmin))
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Put("/:id/permisos", userHandler.UpdatePermissions)

	// Reportes
	reports := protected.Group("/reportes", RequirePermission(entity.PermReports))
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/stock", reportHandler.Stock)
	reports.Get("/stock.xlsx", reportHandler.StockXLSX)
	reports.Get("/movimientos", reportHandler.Movements)
	reports.Get("/movimientos.xlsx", reportHandler.MovementsXLSX)
}
