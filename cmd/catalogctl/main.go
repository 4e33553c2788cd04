package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/search"
	"github.com/jhoicas/Catalogo-api/internal/interfaces/cli"
	"github.com/jhoicas/Catalogo-api/pkg/config"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// pgMigrator adapta las funciones de migración del paquete postgres.
type pgMigrator struct{}

func (pgMigrator) Up(dbURL string) error              { return postgres.RunMigrations(dbURL) }
func (pgMigrator) Down(dbURL string, steps int) error { return postgres.RollbackMigration(dbURL, steps) }
func (pgMigrator) Status(dbURL string) (uint, bool, error) {
	return postgres.MigrationStatus(dbURL)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	// los logs van a stderr; stdout queda para el reporte JSON
	log := logger.NewWithWriter(os.Stderr, cfg.Log.Level)

	rt := &cli.Runtime{
		Config:   cfg,
		Log:      log,
		Migrator: pgMigrator{},
		OpenRegistry: func(ctx context.Context) (*catalog.Registry, func(), error) {
			return openRegistry(ctx, cfg)
		},
		Out: os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cli.Execute(ctx, rt); err != nil {
		log.Error().Err(err).Msg("catalogctl")
		stop()
		os.Exit(1)
	}
}

func openRegistry(ctx context.Context, cfg *config.Config) (*catalog.Registry, func(), error) {
	topology := domaincatalog.DefaultTopology()
	searcher := search.NewKeywordSearcher()
	langs := catalog.WithLanguages(cfg.Catalog.Languages...)

	if cfg.Store.Driver == config.StoreDriverMemory {
		db := memory.NewDB()
		return catalog.NewRegistry(topology, db.Store, searcher, langs), func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return catalog.NewRegistry(topology, postgres.Stores(pool), searcher, langs), pool.Close, nil
}
