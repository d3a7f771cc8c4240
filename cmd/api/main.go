// Package main arranca la API de inventario agrícola.
//
//	@title						Agro Inventario API
//	@version					1.0
//	@description				Inventario de insumos agrícolas: almacenes, traslados, compras y fumigaciones.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//
//go:generate go run github.com/swaggo/swag/cmd/swag init -g cmd/api/main.go -d ../../ -o ../../docs
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/application/analytics"
	"github.com/jhoicas/agro-inventario/internal/application/auth"
	"github.com/jhoicas/agro-inventario/internal/application/fumigation"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/ports"
	"github.com/jhoicas/agro-inventario/internal/application/purchase"
	"github.com/jhoicas/agro-inventario/internal/application/report"
	"github.com/jhoicas/agro-inventario/internal/application/transfer"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/excel"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/realtime"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/agro-inventario/internal/interfaces/http"
	"github.com/jhoicas/agro-inventario/pkg/config"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// persistence agrupa los adaptadores elegidos según STORE_DRIVER.
type persistence struct {
	tx    inventory.TxRunner
	repos inventory.Repos
	users repository.UserRepository
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	// Cantidades como números JSON, no strings.
	decimal.MarshalJSONWithoutQuotes = true

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	store, err := openPersistence(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer store.close()

	// Blob Store opcional (imágenes de fumigación y PDFs exportados)
	var blobs ports.BlobStore
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, storage.Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			UseSSL:        cfg.Storage.UseSSL,
			UsePathStyle:  cfg.Storage.UsePathStyle,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento S3")
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("bucket S3")
		}
		blobs = s3Store
	} else {
		log.Warn().Msg("S3_BUCKET vacío: imágenes y exportaciones deshabilitadas")
	}

	// Feed de cambios: Redis si está configurado, si no en memoria (una sola instancia).
	var notifier ports.ChangeNotifier
	if cfg.Redis.Enabled() {
		redisNotifier, err := realtime.NewRedisNotifier(ctx, realtime.RedisConfig{
			Addr:          cfg.Redis.Addr,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			ChannelPrefix: cfg.Redis.ChannelPrefix,
		}, log.Named("realtime"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisNotifier.Close()
		notifier = redisNotifier
	} else {
		notifier = realtime.NewLocalNotifier()
	}

	events := inventory.NewPublisher(notifier, log.Named("events"))
	ledger := inventory.NewLedger()

	userUC := usecase.NewUserUseCase(store.users, events)
	if cfg.Admin.Enabled() {
		created, err := userUC.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("crear administrador inicial")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("administrador inicial creado")
		}
	}

	reportUC := report.NewUseCase(
		store.repos,
		pdf.NewFumigationOrderRenderer(cfg.App.Name, time.Local),
		excel.NewExporter(time.Local),
		blobs,
		log,
	)

	app := httpRouter.NewApp(cfg.App.Name, log)

	// Swagger UI en local: http://localhost:<port>/docs (requiere `swag init`)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Agro Inventario API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	shutdown := make(chan struct{})
	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC: auth.NewAuthUseCase(store.users, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}, log),
		ProductUC:   inventory.NewProductUseCase(store.tx, store.repos, events),
		WarehouseUC: usecase.NewWarehouseUseCase(store.tx, store.repos, events, log),
		TransferUC:  transfer.NewUseCase(store.tx, store.repos, ledger, events, log),
		PurchaseUC:  purchase.NewUseCase(store.tx, store.repos, ledger, events, log),
		FumigationUC: fumigation.NewUseCase(store.tx, store.repos, ledger, blobs, events, fumigation.Policy{
			RequireStock:         cfg.Policy.FumigationRequireStock,
			ReconvertOnRecompute: cfg.Policy.FumigationReconvertOnRecompute,
		}, log),
		FieldUC:     usecase.NewFieldUseCase(store.tx, store.repos, events),
		UserUC:      userUC,
		DashboardUC: analytics.NewDashboardUseCase(store.repos),
		ReportUC:    reportUC,
		Notifier:    notifier,
		Done:        shutdown,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	close(shutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openPersistence abre PostgreSQL (con migraciones opcionales) o el store en memoria.
func openPersistence(ctx context.Context, cfg *config.Config, log *logger.Logger) (*persistence, error) {
	if cfg.App.StoreDriver == config.StoreMemory {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		return &persistence{tx: mem, repos: mem.Repos(), users: mem.Users(), close: func() {}}, nil
	}

	if cfg.DB.AutoMigrate {
		m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), cfg.DB.MigrationsPath, log)
		if err != nil {
			return nil, err
		}
		err = m.Up()
		m.Close()
		if err != nil {
			return nil, err
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &persistence{
		tx:    postgres.NewTxRunner(pool),
		repos: postgres.NewRepos(pool),
		users: postgres.NewUserRepository(pool),
		close: pool.Close,
	}, nil
}
