package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/internal/application/content"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry  *catalog.Registry
	Engine    *catalog.HierarchyService
	Deleter   *catalog.Deleter
	News      *catalog.EntityRepository
	Faqs      *catalog.EntityRepository
	Sheets    *pdf.CatalogSheetGenerator
	Cache     TreeCache // nil = sin caché
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
// Lecturas públicas; escrituras con Bearer Token y rol admin o staff.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")
	writers := []fiber.Handler{AuthMiddleware(deps.JWTSecret), RequireRole(RoleAdmin, RoleStaff)}

	invalidate := func(ctx context.Context) {
		if deps.Cache == nil {
			return
		}
		if err := deps.Cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("no se pudo invalidar la caché de jerarquía")
		}
	}

	// Jerarquía (público)
	topology := deps.Registry.Topology()
	hierarchy := api.Group("/hierarchy")
	hh := NewHierarchyHandler(deps.Engine, deps.Sheets, deps.Cache, log)
	hierarchy.Get("/", hh.GetFull)
	hierarchy.Get("/children/:parentType/:parentId", RequireLevel("parentType", topology), hh.GetChildren)
	hierarchy.Get("/parents/:itemType/:itemId", RequireLevel("itemType", topology), hh.GetParents)
	hierarchy.Get("/:itemType/:itemId/pdf", RequireLevel("itemType", topology), hh.GetSubtreePDF)
	hierarchy.Get("/:itemType/:itemId", RequireLevel("itemType", topology), hh.GetSubtree)

	// Un grupo CRUD por nivel de la jerarquía
	for _, d := range topology.Levels() {
		repo := deps.Registry.MustResolve(d.Name)
		h := NewEntityHandler(repo, log,
			WithCascade(d.Name, deps.Deleter),
			WithWriteHook(invalidate),
		)
		registerEntityRoutes(api.Group("/"+string(d.Name)), h, writers)
	}

	// News y FAQ: sin padre, con metadatos SEO calculados al responder
	if deps.News != nil {
		registerEntityRoutes(api.Group("/news"), NewEntityHandler(deps.News, log, WithDecorator(content.DecorateNews)), writers)
	}
	if deps.Faqs != nil {
		registerEntityRoutes(api.Group("/faqs"), NewEntityHandler(deps.Faqs, log, WithDecorator(content.DecorateFaq)), writers)
	}
}

func registerEntityRoutes(g fiber.Router, h *EntityHandler, writers []fiber.Handler) {
	g.Get("/", h.List)
	g.Get("/search", h.Search)
	g.Get("/:id", h.GetByID)
	g.Post("/batch", append(writers, h.Batch)...)
	g.Post("/", append(writers, h.Create)...)
	g.Put("/:id", append(writers, h.Update)...)
	g.Delete("/:id", append(writers, h.Delete)...)
}
