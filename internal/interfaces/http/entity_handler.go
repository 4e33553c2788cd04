package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// Decorator agrega campos de presentación a un documento antes de responder.
type Decorator func(doc map[string]any) map[string]any

// EntityHandlerOption personaliza un EntityHandler.
type EntityHandlerOption func(*EntityHandler)

// WithDecorator aplica fn a cada documento de salida.
func WithDecorator(fn Decorator) EntityHandlerOption {
	return func(h *EntityHandler) { h.decorate = fn }
}

// WithCascade habilita DELETE ?cascade=true para un nivel de la jerarquía.
func WithCascade(level domaincatalog.Level, d *catalog.Deleter) EntityHandlerOption {
	return func(h *EntityHandler) {
		h.level = level
		h.deleter = d
	}
}

// WithWriteHook se ejecuta tras cada escritura exitosa (p. ej. invalidar caché).
func WithWriteHook(fn func(ctx context.Context)) EntityHandlerOption {
	return func(h *EntityHandler) { h.onWrite = fn }
}

// EntityHandler maneja el CRUD genérico de una colección.
type EntityHandler struct {
	repo     *catalog.EntityRepository
	log      *logger.Logger
	decorate Decorator
	level    domaincatalog.Level
	deleter  *catalog.Deleter
	onWrite  func(ctx context.Context)
}

// NewEntityHandler construye el handler.
func NewEntityHandler(repo *catalog.EntityRepository, log *logger.Logger, opts ...EntityHandlerOption) *EntityHandler {
	h := &EntityHandler{
		repo:     repo,
		log:      log,
		decorate: func(doc map[string]any) map[string]any { return doc },
		onWrite:  func(context.Context) {},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *EntityHandler) decorateAll(docs []catalog.Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, h.decorate(d))
	}
	return out
}

func (h *EntityHandler) fail(c *fiber.Ctx, op string, err error) error {
	return writeError(c, h.log, op, h.repo.Collection(), err)
}

// List godoc
// @Summary      Listar elementos activos
// @Description  Elementos activos en orden de creación. El filtro por padre usa el nombre del nivel padre como query (?series=<id>).
// @Tags         catalog
// @Produce      json
// @Param        collection  path   string  true   "Colección"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/{collection} [get]
func (h *EntityHandler) List(c *fiber.Ctx) error {
	q := catalog.Query{Active: catalog.OnlyActive}
	if pf := h.repo.ParentField(); pf != "" {
		q.ParentID = c.Query(pf)
	}
	res, err := h.repo.Search(c.UserContext(), q, catalog.SearchOptions{
		Sort: []repository.SortField{{Field: "createdAt"}},
	})
	if err != nil {
		return h.fail(c, "list", err)
	}
	return c.JSON(fiber.Map{h.repo.Collection(): h.decorateAll(res.Data)})
}

// Search godoc
// @Summary      Buscar elementos activos
// @Tags         catalog
// @Produce      json
// @Param        collection     path   string  true   "Colección"
// @Param        keyword        query  string  false  "Palabra clave (code y campos multilingües)"
// @Param        page           query  int     false  "Página"   default(1)
// @Param        limit          query  int     false  "Límite"   default(20)
// @Param        sort           query  string  false  "Campo de orden" default(createdAt)
// @Param        sortDirection  query  string  false  "asc | desc"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/{collection}/search [get]
func (h *EntityHandler) Search(c *fiber.Ctx) error {
	var in dto.SearchRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros de búsqueda inválidos")
	}
	if err := dto.Validate(in); err != nil {
		return h.fail(c, "search", err)
	}
	in.Normalize()

	q := catalog.Query{Active: catalog.OnlyActive}
	if pf := h.repo.ParentField(); pf != "" {
		q.ParentID = c.Query(pf, in.Parent)
	}
	sortField := in.Sort
	if sortField == "" {
		sortField = "createdAt"
	}
	res, err := h.repo.Search(c.UserContext(), q, catalog.SearchOptions{
		Keyword:    in.Keyword,
		Sort:       []repository.SortField{{Field: sortField, Desc: strings.EqualFold(in.SortDirection, "desc")}},
		Pagination: &catalog.Pagination{Page: in.Page, Limit: in.Limit},
	})
	if err != nil {
		return h.fail(c, "search", err)
	}
	return c.JSON(fiber.Map{
		h.repo.Collection(): h.decorateAll(res.Data),
		"pagination":        res.Pagination,
	})
}

// GetByID godoc
// @Summary      Obtener elemento por ID
// @Tags         catalog
// @Produce      json
// @Param        collection  path  string  true  "Colección"
// @Param        id          path  string  true  "ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/{collection}/{id} [get]
func (h *EntityHandler) GetByID(c *fiber.Ctx) error {
	node, err := h.repo.EnsureExists(c.UserContext(), c.Params("id"), catalog.AnyState)
	if err != nil {
		return h.fail(c, "get", err)
	}
	return c.JSON(h.decorate(h.repo.FormatOutput(node)))
}

// Create godoc
// @Summary      Crear elemento
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        collection  path  string                  true  "Colección"
// @Param        body        body  map[string]interface{}  true  "Documento"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/{collection} [post]
func (h *EntityHandler) Create(c *fiber.Ctx) error {
	var in map[string]any
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.repo.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, "create", err)
	}
	h.onWrite(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(h.decorate(out))
}

// Update godoc
// @Summary      Actualizar elemento
// @Description  Los objetos anidados se fusionan un nivel (name.EN no borra name.TW); los arreglos se reemplazan.
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        collection  path  string                  true  "Colección"
// @Param        id          path  string                  true  "ID"
// @Param        body        body  map[string]interface{}  true  "Campos a actualizar"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/{collection}/{id} [put]
func (h *EntityHandler) Update(c *fiber.Ctx) error {
	var in map[string]any
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.repo.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, "update", err)
	}
	h.onWrite(c.UserContext())
	return c.JSON(h.decorate(out))
}

// Delete godoc
// @Summary      Eliminar elemento
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        collection  path   string  true   "Colección"
// @Param        id          path   string  true   "ID"
// @Param        cascade     query  bool    false  "Eliminar también los descendientes"
// @Success      200  {object}  dto.DeleteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/{collection}/{id} [delete]
func (h *EntityHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.UserContext()
	if c.QueryBool("cascade", false) {
		if h.deleter == nil {
			return badRequest(c, "CASCADE_UNSUPPORTED", h.repo.Collection()+" no admite borrado en cascada")
		}
		n, err := h.deleter.DeleteCascade(ctx, h.level, id)
		if err != nil {
			return h.fail(c, "delete_cascade", err)
		}
		h.onWrite(ctx)
		return c.JSON(dto.DeleteResponse{ID: id, Deleted: n})
	}
	removed, err := h.repo.Delete(ctx, id)
	if err != nil {
		return h.fail(c, "delete", err)
	}
	n := 0
	if removed {
		n = 1
		h.onWrite(ctx)
	}
	return c.JSON(dto.DeleteResponse{ID: id, Deleted: n})
}

// Batch godoc
// @Summary      Crear y actualizar en lote
// @Description  Cada elemento se procesa por separado; los fallos se reportan en errors sin detener el lote.
// @Tags         catalog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        collection  path  string            true  "Colección"
// @Param        body        body  dto.BatchRequest  true  "toCreate / toUpdate"
// @Success      200  {object}  catalog.BatchResult
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/{collection}/batch [post]
func (h *EntityHandler) Batch(c *fiber.Ctx) error {
	var in dto.BatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := dto.Validate(in); err != nil {
		return h.fail(c, "batch", err)
	}
	res := h.repo.BatchProcess(c.UserContext(), catalog.BatchInput{
		ToCreate: in.ToCreate,
		ToUpdate: in.ToUpdate,
	})
	if len(res.Created) > 0 || len(res.Updated) > 0 {
		h.onWrite(c.UserContext())
	}
	for i := range res.Created {
		res.Created[i] = h.decorate(res.Created[i])
	}
	for i := range res.Updated {
		res.Updated[i] = h.decorate(res.Updated[i])
	}
	return c.JSON(res)
}
