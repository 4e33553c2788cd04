// @title           Catálogo API
// @version         1.0
// @description     Catálogo jerárquico (series → categorías → subcategorías → especificaciones → productos), noticias y FAQ.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/internal/application/content"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Catalogo-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Catalogo-api/internal/infrastructure/redis"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/search"
	httpRouter "github.com/jhoicas/Catalogo-api/internal/interfaces/http"
	"github.com/jhoicas/Catalogo-api/pkg/config"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	storeMetrics := metrics.NewStoreMetrics(prometheus.DefaultRegisterer)

	var (
		stores repository.StoreFactory
		tx     repository.TxRunner
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		db := memory.NewDB()
		stores = func(c string) repository.EntityStore { return storeMetrics.Wrap(db.Store(c)) }
		tx = memory.NewTxRunner(db)
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DB.ConnectionString()); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Msg("migraciones aplicadas")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		stores = func(c string) repository.EntityStore { return storeMetrics.Wrap(postgres.NewEntityStore(pool, c)) }
		tx = postgres.NewTxRunner(pool, storeMetrics.Wrap)
	}

	searcher := search.NewKeywordSearcher()
	topology := domaincatalog.DefaultTopology()
	registry := catalog.NewRegistry(topology, stores, searcher, catalog.WithLanguages(cfg.Catalog.Languages...))

	engineOpts := []catalog.HierarchyOption{catalog.WithDefaultMaxDepth(cfg.Hierarchy.MaxDepth)}
	if cfg.Hierarchy.ParallelSiblings {
		engineOpts = append(engineOpts, catalog.WithParallelSiblings(runtime.NumCPU()))
	}
	engine := catalog.NewHierarchyService(registry, log.Named("hierarchy"), engineOpts...)
	deleter := catalog.NewDeleter(registry, tx, log.Named("cascade"))

	langs := registry.Languages()
	newsRepo := content.NewNewsRepository(stores(domaincatalog.CollectionNews), searcher, langs)
	faqRepo := content.NewFaqRepository(stores(domaincatalog.CollectionFaqs), searcher, langs)

	// Caché del árbol completo: opcional, sin Redis se consulta siempre el store.
	var treeCache httpRouter.TreeCache
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, caché de jerarquía deshabilitada")
		} else {
			defer client.Close()
			treeCache = infraredis.NewHierarchyCache(client, cfg.Redis.TTL, log.Named("cache"))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		Immutable:    true, // los ids de ruta se guardan en el store en memoria
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (generar con `swag init -g cmd/api/main.go`)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Catálogo API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Registry:  registry,
		Engine:    engine,
		Deleter:   deleter,
		News:      newsRepo,
		Faqs:      faqRepo,
		Sheets:    infrapdf.NewCatalogSheetGenerator(topology),
		Cache:     treeCache,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.Named("http"),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
