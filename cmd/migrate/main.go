// migrate aplica las migraciones SQL de migrations/ contra la base configurada.
//
// Uso: go run ./cmd/migrate [-path migrations] up|down|step <n>|version
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/agro-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/agro-inventario/pkg/config"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

func main() {
	var migrationsPath string
	flag.StringVar(&migrationsPath, "path", "", "carpeta de migraciones (por defecto MIGRATIONS_PATH)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	if migrationsPath == "" {
		migrationsPath = cfg.DB.MigrationsPath
	}

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), migrationsPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("crear migrador")
	}
	defer m.Close()

	log.Info().Str("command", command).Str("path", migrationsPath).Msg("migración")

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		if len(args) < 2 {
			log.Fatal().Msg("uso: migrate step <n>")
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal().Str("value", args[1]).Msg("número de pasos inválido")
		}
		err = m.Steps(n)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			err = verr
			break
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("versión actual")
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migración fallida")
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Uso: migrate [-path DIR] <comando>

Comandos:
  up          aplica todas las migraciones pendientes
  down        revierte todas las migraciones
  step <n>    aplica n pasos (negativo revierte)
  version     muestra la versión actual`)
}
