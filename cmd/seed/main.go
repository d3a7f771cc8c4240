// seed carga el catálogo inicial (almacenes, productos y stock) desde una planilla.
//
// Uso: go run ./cmd/seed [-latin1] catalogo.xlsx|catalogo.csv
// Columnas: nombre, categoria, unidad, lote, vencimiento, stock_minimo, almacen, cantidad.
// Los almacenes que no existen se crean; los productos ya cargados (mismo nombre y lote) se omiten.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/application/mapper"
	"github.com/jhoicas/agro-inventario/internal/application/usecase"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/agro-inventario/pkg/config"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV está codificado en ISO-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Uso: seed [-latin1] catalogo.xlsx|catalogo.csv")
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("abrir catálogo")
	}
	defer f.Close()
	items, err := readCatalog(f, path, *latin1)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	repos := postgres.NewRepos(pool)
	tx := postgres.NewTxRunner(pool)
	events := inventory.NewPublisher(nil, log)
	seeder := &seeder{
		warehouses: usecase.NewWarehouseUseCase(tx, repos, events, log),
		products:   inventory.NewProductUseCase(tx, repos, events),
		log:        log,
	}
	created, skipped, err := seeder.load(ctx, items)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().Int("creados", created).Int("omitidos", skipped).Msg("catálogo cargado")
}

type seeder struct {
	warehouses *usecase.WarehouseUseCase
	products   *inventory.ProductUseCase
	log        *logger.Logger
}

// load crea los almacenes faltantes y los productos nuevos con su stock inicial.
func (s *seeder) load(ctx context.Context, items []*catalogItem) (created, skipped int, err error) {
	existing, err := s.warehouses.List(ctx, "")
	if err != nil {
		return 0, 0, err
	}
	warehouseIDs := make(map[string]string, len(existing))
	for _, w := range existing {
		warehouseIDs[strings.ToLower(w.Name)] = w.ID
	}

	for _, item := range items {
		dup, err := s.exists(ctx, item)
		if err != nil {
			return created, skipped, err
		}
		if dup {
			skipped++
			continue
		}
		stock := make(map[string]decimal.Decimal, len(item.Stock))
		for name, qty := range item.Stock {
			id, ok := warehouseIDs[strings.ToLower(name)]
			if !ok {
				w, err := s.warehouses.Create(ctx, dto.CreateWarehouseRequest{Name: name})
				if err != nil {
					return created, skipped, fmt.Errorf("crear almacén %s: %w", name, err)
				}
				id = w.ID
				warehouseIDs[strings.ToLower(name)] = id
				s.log.Info().Str("almacen", name).Msg("almacén creado")
			}
			stock[id] = stock[id].Add(qty)
		}
		_, err = s.products.Create(ctx, "", dto.CreateProductRequest{
			Name:           item.Name,
			Category:       item.Category,
			MinStock:       item.MinStock,
			UnitOfMeasure:  item.Unit,
			LotNumber:      item.LotNumber,
			ExpiryDate:     mapper.ToTimestampPtr(item.Expiry),
			WarehouseStock: stock,
		})
		if err != nil {
			return created, skipped, fmt.Errorf("crear producto %s: %w", item.Name, err)
		}
		created++
	}
	return created, skipped, nil
}

func (s *seeder) exists(ctx context.Context, item *catalogItem) (bool, error) {
	list, err := s.products.List(ctx, inventory.ProductListQuery{Search: item.Name})
	if err != nil {
		return false, err
	}
	for _, p := range list.Items {
		if strings.EqualFold(p.Name, item.Name) && strings.EqualFold(p.LotNumber, item.LotNumber) {
			return true, nil
		}
	}
	return false, nil
}
